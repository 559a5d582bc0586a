package worker

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
)

// Schedule drives periodic ingestion runs when no external trigger
// infrastructure is available.
type Schedule struct {
	scheduler *gocron.Scheduler
	runner    IngestRunner
	interval  time.Duration
	logger    zerolog.Logger
}

// NewSchedule creates an interval schedule over the runner. A
// non-positive interval defaults to one hour.
func NewSchedule(runner IngestRunner, interval time.Duration, logger zerolog.Logger) *Schedule {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Schedule{
		scheduler: gocron.NewScheduler(time.UTC),
		runner:    runner,
		interval:  interval,
		logger:    logger,
	}
}

// Start registers the periodic job and starts the scheduler in the
// background.
func (s *Schedule) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 60
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		s.logger.Info().Msg("scheduled ingestion run starting")

		result, err := s.runner.Run(context.Background(), nil)
		if err != nil {
			s.logger.Error().Err(err).Msg("scheduled ingestion run failed")
			return
		}

		s.logger.Info().
			Str("run_id", result.RunID).
			Int("successful", result.Successful).
			Int("failed", result.Failed).
			Dur("duration", result.Duration).
			Msg("scheduled ingestion run completed")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Schedule) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
