package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shop-accounts-api/internal/application/cleanup"
)

// startupSweepDelay gives dependencies time to settle after boot before
// the first sweep runs.
const startupSweepDelay = 2 * time.Minute

// Scheduler drives the periodic maintenance jobs: the daily account
// purge sweep and the keyspace stats report.
type Scheduler struct {
	cron    *cron.Cron
	cleanup cleanup.Service
	log     *slog.Logger
}

func New(cleanupSvc cleanup.Service, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		cron:    cron.New(),
		cleanup: cleanupSvc,
		log:     log,
	}
}

// Start registers the jobs and launches the cron loop plus a one-shot
// startup sweep. Jobs stop running once ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context, sweepSpec, statsSpec string) error {
	if _, err := s.cron.AddFunc(sweepSpec, func() {
		s.cleanup.SweepExpiredAccounts(ctx)
	}); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(statsSpec, func() {
		s.cleanup.ReportKVStats(ctx)
	}); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("scheduler started", "sweep_spec", sweepSpec, "stats_spec", statsSpec)

	go func() {
		select {
		case <-time.After(startupSweepDelay):
			s.cleanup.SweepExpiredAccounts(ctx)
		case <-ctx.Done():
		}
	}()
	return nil
}

// Stop halts the cron loop and waits for any running job to finish.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.log.Info("scheduler stopped")
}
