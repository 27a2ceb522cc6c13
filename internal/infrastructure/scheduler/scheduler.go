package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	coreport "github.com/amoria-global/faxon-sub002/internal/domain/port/core"
)

// Scheduler drives the recovery sweeps on fixed intervals
type Scheduler struct {
	cron    *cron.Cron
	sweeper *Sweeper
	logger  coreport.Logger

	sweepTimeout time.Duration
}

// NewScheduler creates a scheduler over the sweep runner
func NewScheduler(sweeper *Sweeper, logger coreport.Logger) *Scheduler {
	return &Scheduler{
		cron:         cron.New(cron.WithLocation(time.UTC)),
		sweeper:      sweeper,
		logger:       logger,
		sweepTimeout: 5 * time.Minute,
	}
}

// Register schedules both sweeps at the configured intervals
func (s *Scheduler) Register(statusInterval, distributionInterval time.Duration) error {
	_, err := s.cron.AddFunc(every(statusInterval), func() {
		s.runWithRecovery("status_sweep", s.sweeper.SweepStatuses)
	})
	if err != nil {
		return fmt.Errorf("register status sweep: %w", err)
	}

	_, err = s.cron.AddFunc(every(distributionInterval), func() {
		s.runWithRecovery("distribution_sweep", s.sweeper.SweepDistributions)
	})
	if err != nil {
		return fmt.Errorf("register distribution sweep: %w", err)
	}

	s.logger.Info("Recovery sweeps registered", map[string]any{
		"status_interval":       statusInterval.String(),
		"distribution_interval": distributionInterval.String(),
	})
	return nil
}

// runWithRecovery wraps sweep execution with panic recovery so one bad batch
// never kills the cron goroutine
func (s *Scheduler) runWithRecovery(name string, sweep func(context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Sweep panicked", map[string]any{
				"sweep": name,
				"panic": r,
			})
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.sweepTimeout)
	defer cancel()

	sweep(ctx)
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started", nil)
}

// Stop gracefully stops the scheduler, waiting for running sweeps to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Scheduler stopped", nil)
}

func every(interval time.Duration) string {
	return fmt.Sprintf("@every %s", interval)
}
