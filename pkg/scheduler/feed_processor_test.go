package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/feedmailer/pkg/diff"
	"github.com/umputun/feedmailer/pkg/domain"
	"github.com/umputun/feedmailer/pkg/feed"
	"github.com/umputun/feedmailer/pkg/repository"
	"github.com/umputun/feedmailer/pkg/scheduler/mocks"
)

func makeFeed(guids ...string) *feed.Feed {
	f := &feed.Feed{Title: "test feed", Link: "http://example.com"}
	for _, g := range guids {
		f.Entries = append(f.Entries, feed.RawEntry{
			GUID:  g,
			Title: "title " + g,
			Link:  "http://example.com/" + g,
		})
	}
	return f
}

func knownState(ids ...string) domain.SeenState {
	state := domain.SeenState{Initialized: true, KnownIDs: map[string]time.Time{}, Version: 1}
	for _, id := range ids {
		state.KnownIDs[id] = time.Now().Add(-time.Hour)
	}
	return state
}

func allDelivered(articles []domain.Article) []domain.NotificationOutcome {
	res := make([]domain.NotificationOutcome, 0, len(articles))
	for _, a := range articles {
		res = append(res, domain.NotificationOutcome{Identity: a.Identity, Delivered: true})
	}
	return res
}

func TestFeedProcessor_ProcessFeed_FirstRun(t *testing.T) {
	parser := &mocks.ParserMock{
		ParseFunc: func(ctx context.Context, url string) (*feed.Feed, error) {
			return makeFeed("a", "b", "c"), nil
		},
	}
	store := &mocks.StateStoreMock{
		LoadFunc: func(ctx context.Context, feedURL string) (domain.SeenState, error) {
			return domain.NewSeenState(), nil
		},
		SaveFunc: func(ctx context.Context, feedURL string, state domain.SeenState) error {
			return nil
		},
	}
	notifier := &mocks.NotifierMock{
		DispatchFunc: func(ctx context.Context, articles []domain.Article) []domain.NotificationOutcome {
			return allDelivered(articles)
		},
	}

	fp := NewFeedProcessor(FeedProcessorConfig{Parser: parser, Store: store, Notifier: notifier, Differ: diff.NewEngine(0)})
	report := fp.ProcessFeed(context.Background(), "http://example.com/feed")

	assert.Equal(t, domain.FeedStatusOK, report.Status)
	assert.Zero(t, report.NewCount, "first check captures a baseline, no notifications")
	assert.Zero(t, report.SentCount)
	assert.Empty(t, notifier.DispatchCalls(), "nothing dispatched on first check")

	// baseline still saved
	saves := store.SaveCalls()
	require.Len(t, saves, 1)
	assert.True(t, saves[0].State.Initialized)
	assert.Len(t, saves[0].State.KnownIDs, 3)
}

func TestFeedProcessor_ProcessFeed_NewArticles(t *testing.T) {
	parser := &mocks.ParserMock{
		ParseFunc: func(ctx context.Context, url string) (*feed.Feed, error) {
			return makeFeed("a", "b", "c", "d"), nil
		},
	}
	store := &mocks.StateStoreMock{
		LoadFunc: func(ctx context.Context, feedURL string) (domain.SeenState, error) {
			return knownState("a", "b", "c"), nil
		},
		SaveFunc: func(ctx context.Context, feedURL string, state domain.SeenState) error {
			return nil
		},
	}
	notifier := &mocks.NotifierMock{
		DispatchFunc: func(ctx context.Context, articles []domain.Article) []domain.NotificationOutcome {
			return allDelivered(articles)
		},
	}

	fp := NewFeedProcessor(FeedProcessorConfig{Parser: parser, Store: store, Notifier: notifier, Differ: diff.NewEngine(0)})
	report := fp.ProcessFeed(context.Background(), "http://example.com/feed")

	assert.Equal(t, domain.FeedStatusOK, report.Status)
	assert.Equal(t, 1, report.NewCount)
	assert.Equal(t, 1, report.SentCount)

	dispatches := notifier.DispatchCalls()
	require.Len(t, dispatches, 1)
	require.Len(t, dispatches[0].Articles, 1)
	assert.Equal(t, "d", dispatches[0].Articles[0].Identity)

	// save happens after dispatch and records the new identity
	saves := store.SaveCalls()
	require.Len(t, saves, 1)
	assert.True(t, saves[0].State.Knows("d"))
	assert.Equal(t, int64(1), saves[0].State.Version, "version token carried from the loaded state")
}

func TestFeedProcessor_ProcessFeed_FetchErrorSkips(t *testing.T) {
	fetchErr := errors.New("boom")
	parser := &mocks.ParserMock{
		ParseFunc: func(ctx context.Context, url string) (*feed.Feed, error) {
			return nil, fetchErr
		},
	}
	store := &mocks.StateStoreMock{}
	notifier := &mocks.NotifierMock{}

	fp := NewFeedProcessor(FeedProcessorConfig{Parser: parser, Store: store, Notifier: notifier, Differ: diff.NewEngine(0)})
	report := fp.ProcessFeed(context.Background(), "http://example.com/feed")

	assert.Equal(t, domain.FeedStatusSkipped, report.Status)
	assert.ErrorIs(t, report.Err, fetchErr)
	assert.Empty(t, store.LoadCalls(), "state untouched on fetch failure")
	assert.Empty(t, store.SaveCalls())
}

func TestFeedProcessor_ProcessFeed_LoadErrorSkips(t *testing.T) {
	parser := &mocks.ParserMock{
		ParseFunc: func(ctx context.Context, url string) (*feed.Feed, error) {
			return makeFeed("a"), nil
		},
	}
	loadErr := errors.New("db down")
	store := &mocks.StateStoreMock{
		LoadFunc: func(ctx context.Context, feedURL string) (domain.SeenState, error) {
			return domain.SeenState{}, loadErr
		},
	}
	notifier := &mocks.NotifierMock{}

	fp := NewFeedProcessor(FeedProcessorConfig{Parser: parser, Store: store, Notifier: notifier, Differ: diff.NewEngine(0)})
	report := fp.ProcessFeed(context.Background(), "http://example.com/feed")

	assert.Equal(t, domain.FeedStatusSkipped, report.Status)
	assert.ErrorIs(t, report.Err, loadErr)
	assert.Empty(t, notifier.DispatchCalls(), "never guess prior state")
	assert.Empty(t, store.SaveCalls())
}

func TestFeedProcessor_ProcessFeed_FailedSendStillSaved(t *testing.T) {
	parser := &mocks.ParserMock{
		ParseFunc: func(ctx context.Context, url string) (*feed.Feed, error) {
			return makeFeed("a", "b"), nil
		},
	}
	store := &mocks.StateStoreMock{
		LoadFunc: func(ctx context.Context, feedURL string) (domain.SeenState, error) {
			return knownState("a"), nil
		},
		SaveFunc: func(ctx context.Context, feedURL string, state domain.SeenState) error {
			return nil
		},
	}
	notifier := &mocks.NotifierMock{
		DispatchFunc: func(ctx context.Context, articles []domain.Article) []domain.NotificationOutcome {
			res := make([]domain.NotificationOutcome, 0, len(articles))
			for _, a := range articles {
				res = append(res, domain.NotificationOutcome{Identity: a.Identity, Err: errors.New("smtp down")})
			}
			return res
		},
	}

	fp := NewFeedProcessor(FeedProcessorConfig{Parser: parser, Store: store, Notifier: notifier, Differ: diff.NewEngine(0)})
	report := fp.ProcessFeed(context.Background(), "http://example.com/feed")

	assert.Equal(t, domain.FeedStatusOK, report.Status)
	assert.Equal(t, 1, report.NewCount)
	assert.Zero(t, report.SentCount)

	// failed sends are still marked seen, never notified twice
	saves := store.SaveCalls()
	require.Len(t, saves, 1)
	assert.True(t, saves[0].State.Knows("b"))
}

func TestFeedProcessor_ProcessFeed_StaleSaveSkips(t *testing.T) {
	parser := &mocks.ParserMock{
		ParseFunc: func(ctx context.Context, url string) (*feed.Feed, error) {
			return makeFeed("a", "b"), nil
		},
	}
	store := &mocks.StateStoreMock{
		LoadFunc: func(ctx context.Context, feedURL string) (domain.SeenState, error) {
			return knownState("a"), nil
		},
		SaveFunc: func(ctx context.Context, feedURL string, state domain.SeenState) error {
			return repository.ErrStaleState
		},
	}
	notifier := &mocks.NotifierMock{
		DispatchFunc: func(ctx context.Context, articles []domain.Article) []domain.NotificationOutcome {
			return allDelivered(articles)
		},
	}

	fp := NewFeedProcessor(FeedProcessorConfig{Parser: parser, Store: store, Notifier: notifier, Differ: diff.NewEngine(0)})
	report := fp.ProcessFeed(context.Background(), "http://example.com/feed")

	assert.Equal(t, domain.FeedStatusSkipped, report.Status, "concurrent winner's state stands")
	assert.ErrorIs(t, report.Err, repository.ErrStaleState)
	assert.Equal(t, 1, report.SentCount, "dispatch already happened before the save")
}

func TestFeedProcessor_ProcessFeed_SaveErrorReported(t *testing.T) {
	parser := &mocks.ParserMock{
		ParseFunc: func(ctx context.Context, url string) (*feed.Feed, error) {
			return makeFeed("a", "b"), nil
		},
	}
	saveErr := errors.New("disk full")
	store := &mocks.StateStoreMock{
		LoadFunc: func(ctx context.Context, feedURL string) (domain.SeenState, error) {
			return knownState("a"), nil
		},
		SaveFunc: func(ctx context.Context, feedURL string, state domain.SeenState) error {
			return saveErr
		},
	}
	notifier := &mocks.NotifierMock{
		DispatchFunc: func(ctx context.Context, articles []domain.Article) []domain.NotificationOutcome {
			return allDelivered(articles)
		},
	}

	fp := NewFeedProcessor(FeedProcessorConfig{Parser: parser, Store: store, Notifier: notifier, Differ: diff.NewEngine(0)})
	report := fp.ProcessFeed(context.Background(), "http://example.com/feed")

	assert.Equal(t, domain.FeedStatusError, report.Status)
	assert.ErrorIs(t, report.Err, saveErr)
	assert.Equal(t, 1, report.SentCount, "at-least-once: sent but unrecorded, will re-notify")
}

func TestFeedProcessor_ProcessAll(t *testing.T) {
	parser := &mocks.ParserMock{
		ParseFunc: func(ctx context.Context, url string) (*feed.Feed, error) {
			if url == "http://bad.example.com/feed" {
				return nil, errors.New("unreachable")
			}
			return makeFeed("a"), nil
		},
	}
	store := &mocks.StateStoreMock{
		LoadFunc: func(ctx context.Context, feedURL string) (domain.SeenState, error) {
			return domain.NewSeenState(), nil
		},
		SaveFunc: func(ctx context.Context, feedURL string, state domain.SeenState) error {
			return nil
		},
	}
	notifier := &mocks.NotifierMock{
		DispatchFunc: func(ctx context.Context, articles []domain.Article) []domain.NotificationOutcome {
			return allDelivered(articles)
		},
	}

	fp := NewFeedProcessor(FeedProcessorConfig{Parser: parser, Store: store, Notifier: notifier, Differ: diff.NewEngine(0)})

	urls := []string{"http://one.example.com/feed", "http://bad.example.com/feed", "http://two.example.com/feed"}
	reports := fp.ProcessAll(context.Background(), urls)

	require.Len(t, reports, 3)

	// reports keep the input order regardless of completion order
	assert.Equal(t, "http://one.example.com/feed", reports[0].URL)
	assert.Equal(t, domain.FeedStatusOK, reports[0].Status)
	assert.Equal(t, "http://bad.example.com/feed", reports[1].URL)
	assert.Equal(t, domain.FeedStatusSkipped, reports[1].Status, "one broken feed never aborts the others")
	assert.Equal(t, "http://two.example.com/feed", reports[2].URL)
	assert.Equal(t, domain.FeedStatusOK, reports[2].Status)

	assert.Len(t, store.SaveCalls(), 2)
}

func TestFeedProcessor_ProcessAll_WorkerLimit(t *testing.T) {
	var active, peak int32
	parser := &mocks.ParserMock{
		ParseFunc: func(ctx context.Context, url string) (*feed.Feed, error) {
			cur := atomic.AddInt32(&active, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt32(&active, -1)
			return makeFeed("a"), nil
		},
	}
	store := &mocks.StateStoreMock{
		LoadFunc: func(ctx context.Context, feedURL string) (domain.SeenState, error) {
			return domain.NewSeenState(), nil
		},
		SaveFunc: func(ctx context.Context, feedURL string, state domain.SeenState) error {
			return nil
		},
	}
	notifier := &mocks.NotifierMock{}

	fp := NewFeedProcessor(FeedProcessorConfig{Parser: parser, Store: store, Notifier: notifier, Differ: diff.NewEngine(0), MaxWorkers: 2})

	urls := make([]string, 8)
	for i := range urls {
		urls[i] = "http://example.com/feed"
	}
	reports := fp.ProcessAll(context.Background(), urls)

	assert.Len(t, reports, 8)
	assert.LessOrEqual(t, peak, int32(2), "concurrency capped by max workers")
}
