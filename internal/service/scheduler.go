package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// CleanupScheduler triggers cleanup runs on a cron schedule. The executor
// itself stays trigger-agnostic; this is the periodic caller the core
// assumes exists externally.
type CleanupScheduler struct {
	runner   CleanupRunner
	schedule string
	cron     *cron.Cron
	mu       sync.Mutex
	logger   *slog.Logger
	running  bool
}

// NewCleanupScheduler creates a scheduler for the given cron expression.
// An empty expression disables scheduling; Start then does nothing.
func NewCleanupScheduler(runner CleanupRunner, schedule string) *CleanupScheduler {
	return &CleanupScheduler{
		runner:   runner,
		schedule: schedule,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "cleanup.scheduler"),
	}
}

// Start begins scheduled cleanup runs. The context cancels the scheduler.
func (s *CleanupScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("cleanup schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.runCleanup(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule cleanup: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("cleanup scheduler started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

func (s *CleanupScheduler) runCleanup(ctx context.Context) {
	s.logger.Info("starting scheduled cleanup")

	res, err := s.runner.RunCleanup(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Error("scheduled cleanup failed", "error", err)
		return
	}

	s.logger.Info("scheduled cleanup completed",
		"reclaimed", res.Reclaimed,
		"skipped", res.Skipped,
		"errors", len(res.Errors),
	)
}

// Stop stops the scheduler and waits for any running job to complete.
func (s *CleanupScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done() // Wait for running jobs to finish
		s.running = false
		s.logger.Info("cleanup scheduler stopped")
	}
}

// IsRunning reports whether the scheduler is active.
func (s *CleanupScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the next scheduled cleanup time, or nil when not running.
func (s *CleanupScheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return nil
	}
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
