// Package sweep runs the pipeline backfill on a cron schedule.
package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/zulandar/jobyard/internal/logger"
	"github.com/zulandar/jobyard/internal/pipeline"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Validate checks that expr is a 5-field cron expression.
func Validate(expr string) error {
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("sweep: invalid schedule %q: %w", expr, err)
	}
	return nil
}

// nextCronDuration parses a 5-field cron expression and returns the duration
// until the next fire time after now. Returns 0 on parse error.
func nextCronDuration(expr string, now time.Time) time.Duration {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return 0
	}
	d := sched.Next(now).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Sweeper periodically creates missing pipeline entries.
type Sweeper struct {
	DB                *gorm.DB
	Log               *zap.Logger
	Schedule          string // 5-field cron; empty disables Run
	SeedDefaultStages bool
}

// RunOnce performs a single backfill pass.
func (s *Sweeper) RunOnce(ctx context.Context) (pipeline.BackfillResult, error) {
	res, err := pipeline.Backfill(s.DB.WithContext(ctx), pipeline.BackfillOpts{SeedDefaultStages: s.SeedDefaultStages})
	l := logger.OrNop(s.Log).Named("sweep")
	if err != nil {
		l.Error("backfill failed", zap.Error(err))
		return res, err
	}
	if res != (pipeline.BackfillResult{}) {
		l.Info("backfill",
			zap.Int("jobs_seeded", res.JobsSeeded),
			zap.Int("entries_created", res.EntriesCreated),
			zap.Int("skipped", res.Skipped))
	}
	return res, nil
}

// Run sweeps on every schedule tick until ctx is cancelled. It returns
// immediately when no schedule is set.
func (s *Sweeper) Run(ctx context.Context) error {
	if s.Schedule == "" {
		return nil
	}
	if err := Validate(s.Schedule); err != nil {
		return err
	}

	timer := time.NewTimer(nextCronDuration(s.Schedule, time.Now()))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			// Errors are logged by RunOnce; the next tick retries.
			s.RunOnce(ctx)
			timer.Reset(nextCronDuration(s.Schedule, time.Now()))
		}
	}
}
