// Package scheduler runs the acquisition pipeline on a fixed interval.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/careerpilot/jobscout/internal/pipeline"
)

// Runner executes one acquisition run. *pipeline.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Report, error)
}

// Scheduler wraps robfig/cron and triggers a full run every interval.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	logger *zap.Logger
	spec   string
}

// New creates a Scheduler that fires every intervalHours hours.
func New(runner Runner, intervalHours int, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		runner: runner,
		logger: logger,
		spec:   fmt.Sprintf("@every %dh", intervalHours),
	}
}

// Start registers the job and starts the cron loop. One run is kicked off
// immediately so fresh data appears without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("registering cron job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("spec", s.spec))

	go s.runOnce(ctx)

	return nil
}

// Stop shuts down the cron loop. Runs already in flight are not interrupted.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runOnce(ctx context.Context) {
	s.logger.Info("scheduled run starting")

	report, err := s.runner.Run(ctx, pipeline.Request{})
	if err != nil {
		s.logger.Warn("scheduled run failed", zap.Error(err))
		return
	}

	s.logger.Info("scheduled run complete",
		zap.String("run_id", report.RunID),
		zap.Int("jobs_scraped", report.JobsScraped),
		zap.Int("profiles_processed", report.ProfilesProcessed),
		zap.Int("matches_created", report.MatchesCreated),
	)
}
