package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/go-pkgz/lgr"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/feedmailer/pkg/diff"
	"github.com/umputun/feedmailer/pkg/domain"
	"github.com/umputun/feedmailer/pkg/feed"
	"github.com/umputun/feedmailer/pkg/repository"
)

//go:generate moq -out mocks/parser.go -pkg mocks -skip-ensure -fmt goimports . Parser
//go:generate moq -out mocks/state_store.go -pkg mocks -skip-ensure -fmt goimports . StateStore
//go:generate moq -out mocks/notifier.go -pkg mocks -skip-ensure -fmt goimports . Notifier

// Parser fetches and parses a remote feed
type Parser interface {
	Parse(ctx context.Context, url string) (*feed.Feed, error)
}

// StateStore loads and saves per-feed seen state
type StateStore interface {
	Load(ctx context.Context, feedURL string) (domain.SeenState, error)
	Save(ctx context.Context, feedURL string, state domain.SeenState) error
}

// Notifier sends notifications for new articles and reports per-article outcomes
type Notifier interface {
	Dispatch(ctx context.Context, articles []domain.Article) []domain.NotificationOutcome
}

// FeedProcessor runs the per-feed pipeline: fetch, normalize, load state,
// diff, dispatch notifications, save next state. Failures are isolated per
// feed; one broken feed never aborts the others.
type FeedProcessor struct {
	parser     Parser
	store      StateStore
	notifier   Notifier
	differ     *diff.Engine
	maxWorkers int
	now        func() time.Time
}

// FeedProcessorConfig holds dependencies and limits for FeedProcessor
type FeedProcessorConfig struct {
	Parser     Parser
	Store      StateStore
	Notifier   Notifier
	Differ     *diff.Engine
	MaxWorkers int
}

// NewFeedProcessor creates a feed processor with the provided dependencies
func NewFeedProcessor(cfg FeedProcessorConfig) *FeedProcessor {
	if cfg.MaxWorkers == 0 {
		cfg.MaxWorkers = 5
	}
	return &FeedProcessor{
		parser:     cfg.Parser,
		store:      cfg.Store,
		notifier:   cfg.Notifier,
		differ:     cfg.Differ,
		maxWorkers: cfg.MaxWorkers,
		now:        time.Now,
	}
}

// ProcessAll checks every feed URL concurrently, limited by maxWorkers, and
// returns one report per feed in the input order. Feeds share no state, so
// no cross-feed locking is needed.
func (fp *FeedProcessor) ProcessAll(ctx context.Context, urls []string) []domain.FeedReport {
	lgr.Printf("[INFO] checking %d feeds", len(urls))

	reports := make([]domain.FeedReport, len(urls))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fp.maxWorkers)

	for i, url := range urls {
		g.Go(func() error {
			reports[i] = fp.ProcessFeed(ctx, url)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		lgr.Printf("[ERROR] feed check error: %v", err)
	}

	sent, skipped := 0, 0
	for _, r := range reports {
		sent += r.SentCount
		if r.Status != domain.FeedStatusOK {
			skipped++
		}
	}
	lgr.Printf("[INFO] feed check completed, %d notifications sent, %d feeds not ok", sent, skipped)

	return reports
}

// ProcessFeed runs the full pipeline for a single feed URL.
//
// The save is attempted even when some notifications failed: a failed send is
// still marked seen, so the subscriber is never notified twice for the same
// article. The dual policy applies to a failed save: dispatched identities
// stay unrecorded and are re-notified on the next successful run.
func (fp *FeedProcessor) ProcessFeed(ctx context.Context, url string) domain.FeedReport {
	lgr.Printf("[DEBUG] checking feed: %s", url)

	parsed, err := fp.parser.Parse(ctx, url)
	if err != nil {
		lgr.Printf("[WARN] failed to fetch feed %s: %v", url, err)
		return domain.FeedReport{URL: url, Status: domain.FeedStatusSkipped, Err: err}
	}

	articles, droppedEntries := feed.Normalize(parsed.Entries)
	if droppedEntries > 0 {
		lgr.Printf("[WARN] dropped %d malformed entries from feed %s", droppedEntries, url)
	}

	prior, err := fp.store.Load(ctx, url)
	if err != nil {
		// skip rather than guess prior state, same isolation as a fetch error
		lgr.Printf("[WARN] failed to load state for feed %s: %v", url, err)
		return domain.FeedReport{URL: url, Status: domain.FeedStatusSkipped, Err: err}
	}

	newArticles, next := fp.differ.Diff(articles, prior, fp.now())

	report := domain.FeedReport{URL: url, Status: domain.FeedStatusOK, NewCount: len(newArticles)}

	if !prior.Initialized {
		lgr.Printf("[INFO] first check of feed %s, captured %d identities", url, len(next.KnownIDs))
	}

	if len(newArticles) > 0 {
		outcomes := fp.notifier.Dispatch(ctx, newArticles)
		for _, o := range outcomes {
			if o.Delivered {
				report.SentCount++
			}
		}
		if report.SentCount < len(newArticles) {
			lgr.Printf("[WARN] feed %s: %d of %d notifications failed", url, len(newArticles)-report.SentCount, len(newArticles))
		}
	}

	if err := fp.store.Save(ctx, url, next); err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			// a concurrent run saved first; its identities win, ours are abandoned
			lgr.Printf("[WARN] feed %s: concurrent check won the state race, skipping save", url)
			report.Status = domain.FeedStatusSkipped
			report.Err = err
			return report
		}
		// dispatched identities are not recorded, they re-notify next run
		lgr.Printf("[ERROR] failed to save state for feed %s: %v", url, err)
		report.Status = domain.FeedStatusError
		report.Err = err
		return report
	}

	if report.SentCount > 0 {
		lgr.Printf("[INFO] sent %d notifications for feed %s", report.SentCount, url)
	}
	return report
}
