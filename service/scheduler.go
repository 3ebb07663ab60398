package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/crossposter/mastodon-comments/importer"
)

// ImportService triggers import runs on a fixed cadence. The run lock is
// what actually prevents overlap; the ticker (and any manual trigger) just
// asks for a run and accepts "no" when one is still live.
type ImportService struct {
	orchestrator *importer.Orchestrator
	lock         *importer.RunLock
	interval     time.Duration
	stopChan     chan struct{}
	stopOnce     sync.Once
	logger       *log.Logger
}

func NewImportService(orchestrator *importer.Orchestrator, lock *importer.RunLock, interval time.Duration, logger *log.Logger) *ImportService {
	if interval <= 0 {
		interval = 12 * time.Hour
	}

	return &ImportService{
		orchestrator: orchestrator,
		lock:         lock,
		interval:     interval,
		stopChan:     make(chan struct{}),
		logger:       logger,
	}
}

// Run blocks until Shutdown, attempting one run immediately and then one
// per interval.
func (s *ImportService) Run() {
	s.logger.Printf("Import scheduler started, running every %v", s.interval)

	s.RunOnce(context.Background())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunOnce(context.Background())
		case <-s.stopChan:
			s.logger.Printf("Import scheduler stopped")
			return
		}
	}
}

// RunOnce performs a single lock-guarded run. The second return value is
// false when a prior run still holds the lock and nothing was attempted.
func (s *ImportService) RunOnce(ctx context.Context) (importer.RunStats, bool) {
	if !s.lock.TryAcquire() {
		s.logger.Printf("An import run started less than the lock window ago. Quitting.")
		return importer.RunStats{}, false
	}

	start := time.Now()
	stats := s.orchestrator.Run(ctx)

	s.logger.Printf("Import run finished in %v: %d posts checked, %d imported, %d skipped, %d failed",
		time.Since(start).Round(time.Millisecond), stats.Posts, stats.Imported, stats.Skipped, stats.Failed)

	return stats, true
}

func (s *ImportService) Shutdown() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}
