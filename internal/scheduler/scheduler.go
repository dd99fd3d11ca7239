// Package scheduler runs the periodic gamification and notification maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/noah-isme/unishare-api/internal/observability"
)

const (
	jobMonthlyReset   = "monthly_reset"
	jobRetentionSweep = "notification_retention"
)

// MonthlyResetter zeroes monthly scores.
type MonthlyResetter interface {
	ResetMonthlyScores(ctx context.Context) (int64, error)
}

// NotificationPurger removes notifications past their retention window.
type NotificationPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Config selects the schedules and the timezone they are evaluated in.
type Config struct {
	Enabled          bool
	Timezone         string
	MonthlyResetSpec string
	RetentionSpec    string
	JobTimeout       time.Duration
}

// Scheduler owns the cron runner for maintenance jobs.
type Scheduler struct {
	cfg       Config
	resetter  MonthlyResetter
	purger    NotificationPurger
	logger    zerolog.Logger
	cron      *cron.Cron
	parentCtx context.Context
}

// New constructs a scheduler. Start must be called to register and run jobs.
func New(cfg Config, resetter MonthlyResetter, purger NotificationPurger, logger zerolog.Logger) *Scheduler {
	if cfg.MonthlyResetSpec == "" {
		cfg.MonthlyResetSpec = "0 0 1 * *"
	}
	if cfg.RetentionSpec == "" {
		cfg.RetentionSpec = "0 3 * * *"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 5 * time.Minute
	}
	return &Scheduler{
		cfg:       cfg,
		resetter:  resetter,
		purger:    purger,
		logger:    logger.With().Str("component", "scheduler").Logger(),
		parentCtx: context.Background(),
	}
}

// LoadLocation resolves the timezone the jobs run in. An empty name means UTC.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	location, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return location, nil
}

// Start registers the jobs and starts the cron runner. Jobs stop receiving new runs once
// ctx is cancelled; call Stop to wait for running jobs.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		s.logger.Info().Msg("scheduler disabled")
		return nil
	}

	location, err := LoadLocation(s.cfg.Timezone)
	if err != nil {
		return err
	}

	s.parentCtx = ctx
	s.cron = cron.New(cron.WithLocation(location))

	if _, err := s.cron.AddFunc(s.cfg.MonthlyResetSpec, func() { s.RunMonthlyReset(s.parentCtx) }); err != nil {
		return fmt.Errorf("register monthly reset job: %w", err)
	}
	if _, err := s.cron.AddFunc(s.cfg.RetentionSpec, func() { s.RunRetentionSweep(s.parentCtx) }); err != nil {
		return fmt.Errorf("register retention job: %w", err)
	}

	s.cron.Start()

	nextRun := ""
	if entries := s.cron.Entries(); len(entries) > 0 {
		nextRun = entries[0].Next.Format(time.RFC3339)
	}
	s.logger.Info().
		Str("monthly_reset", s.cfg.MonthlyResetSpec).
		Str("retention", s.cfg.RetentionSpec).
		Str("timezone", s.cfg.Timezone).
		Str("next_run", nextRun).
		Msg("scheduler started")

	return nil
}

// Stop halts the runner and waits for running jobs.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}

// RunMonthlyReset executes the monthly score reset once.
func (s *Scheduler) RunMonthlyReset(ctx context.Context) {
	s.run(ctx, jobMonthlyReset, s.resetter.ResetMonthlyScores)
}

// RunRetentionSweep executes the notification retention sweep once.
func (s *Scheduler) RunRetentionSweep(ctx context.Context) {
	s.run(ctx, jobRetentionSweep, s.purger.PurgeExpired)
}

func (s *Scheduler) run(ctx context.Context, job string, fn func(context.Context) (int64, error)) {
	if ctx.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.JobTimeout)
	defer cancel()

	start := time.Now()
	affected, err := fn(ctx)
	duration := time.Since(start)

	if err != nil {
		observability.SchedulerRunsTotal().WithLabelValues(job, "error").Inc()
		s.logger.Error().Err(err).Str("job", job).Dur("duration", duration).Msg("scheduled job failed")
		return
	}

	observability.SchedulerRunsTotal().WithLabelValues(job, "success").Inc()
	s.logger.Info().Str("job", job).Int64("affected", affected).Dur("duration", duration).Msg("scheduled job completed")
}
