// Package scheduler drives periodic feed checks and holds the per-feed
// processing pipeline.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/feedmailer/pkg/domain"
)

// Scheduler runs feed checks on an interval and on demand
type Scheduler struct {
	processor      Processor
	feeds          []string
	updateInterval time.Duration

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

//go:generate moq -out mocks/processor.go -pkg mocks -skip-ensure -fmt goimports . Processor

// Processor checks a list of feeds and reports per-feed results
type Processor interface {
	ProcessAll(ctx context.Context, urls []string) []domain.FeedReport
}

// Config holds scheduler configuration
type Config struct {
	Processor      Processor
	Feeds          []string
	UpdateInterval time.Duration
}

// NewScheduler creates a scheduler instance
func NewScheduler(cfg Config) *Scheduler {
	if cfg.UpdateInterval == 0 {
		cfg.UpdateInterval = 30 * time.Minute
	}
	return &Scheduler{
		processor:      cfg.Processor,
		feeds:          cfg.Feeds,
		updateInterval: cfg.UpdateInterval,
	}
}

// Start begins periodic checks. The first check runs immediately.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.checkWorker(ctx)

	lgr.Printf("[INFO] scheduler started with %d feeds, update interval %v", len(s.feeds), s.updateInterval)
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	lgr.Printf("[INFO] stopping scheduler...")
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	lgr.Printf("[INFO] scheduler stopped")
}

// CheckNow triggers an immediate check of all configured feeds, used by the
// status API and the once mode
func (s *Scheduler) CheckNow(ctx context.Context) []domain.FeedReport {
	if len(s.feeds) == 0 {
		lgr.Printf("[WARN] no feeds configured, nothing to check")
		return nil
	}
	return s.processor.ProcessAll(ctx, s.feeds)
}

// checkWorker periodically checks all feeds
func (s *Scheduler) checkWorker(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.updateInterval)
	defer ticker.Stop()

	// run immediately on start
	s.CheckNow(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CheckNow(ctx)
		}
	}
}
