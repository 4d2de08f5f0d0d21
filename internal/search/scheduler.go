package search

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/social-apps/backend/internal/logger"
)

// Reindexer rebuilds the whole search index.
type Reindexer interface {
	ReindexAll(ctx context.Context) (int, error)
}

// Scheduler runs the periodic full reindex.
type Scheduler struct {
	cron      *cron.Cron
	reindexer Reindexer
	lggr      logger.Logger

	mu      sync.Mutex
	entryID cron.EntryID
	running bool
}

// NewScheduler creates a reindex scheduler.
func NewScheduler(reindexer Reindexer, lggr logger.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		reindexer: reindexer,
		lggr:      lggr.Named("search.scheduler"),
	}
}

// Start schedules the reindex job with a cron spec such as "@every 1h" or
// "0 3 * * *" and starts the cron loop.
func (s *Scheduler) Start(spec string) error {
	id, err := s.cron.AddFunc(spec, s.reindex)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.entryID = id
	s.mu.Unlock()

	s.cron.Start()
	s.lggr.Infow("search reindex scheduled", "spec", spec)
	return nil
}

// Stop waits for a running job and stops the scheduler.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.lggr.Infow("search reindex scheduler stopped")
}

// TriggerReindex starts a reindex in the background.
func (s *Scheduler) TriggerReindex() {
	go s.reindex()
}

// NextRun returns the next scheduled run, or nil when nothing is scheduled.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entryID == 0 {
		return nil
	}
	entry := s.cron.Entry(s.entryID)
	if entry.Next.IsZero() {
		return nil
	}
	return &entry.Next
}

// reindex skips the run when the previous one is still going.
func (s *Scheduler) reindex() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.lggr.Warnw("search reindex still running, skipping")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	start := time.Now()
	n, err := s.reindexer.ReindexAll(context.Background())
	if err != nil {
		s.lggr.Errorw("search reindex failed", "indexed", n, "err", err)
		return
	}
	s.lggr.Infow("search reindex completed", "users", n, "duration", time.Since(start))
}
