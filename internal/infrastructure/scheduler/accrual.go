// Package scheduler runs the overdue-fine accrual on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bibbank/lenderledger/internal/application/dto"
)

// AccrualLockKey is the distributed lock key of the accrual batch.
const AccrualLockKey = "lenderledger:accrue-overdue-fines"

// AccrualRunner executes one accrual batch.
type AccrualRunner interface {
	Execute(ctx context.Context, req dto.AccrueOverdueFinesRequest) (dto.AccrualResponse, error)
}

// AccrualJob runs the accrual batch under a lock, dated by the calendar day
// in the configured location.
type AccrualJob struct {
	runner   AccrualRunner
	locker   Locker
	lockTTL  time.Duration
	location *time.Location
	logger   *slog.Logger
	now      func() time.Time
}

// NewAccrualJob wires the job.
func NewAccrualJob(runner AccrualRunner, locker Locker, lockTTL time.Duration, location *time.Location, logger *slog.Logger) *AccrualJob {
	if location == nil {
		location = time.UTC
	}
	return &AccrualJob{
		runner:   runner,
		locker:   locker,
		lockTTL:  lockTTL,
		location: location,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock replaces the job's time source.
func (j *AccrualJob) WithClock(now func() time.Time) *AccrualJob {
	j.now = now
	return j
}

// Run executes one accrual. A lock held by another replica skips the run
// and reports Skipped without error.
func (j *AccrualJob) Run(ctx context.Context) (RunResult, error) {
	release, err := j.locker.Obtain(ctx, AccrualLockKey, j.lockTTL)
	if errors.Is(err, ErrLockHeld) {
		j.logger.Info("accrual skipped, lock held elsewhere")
		return RunResult{Skipped: true}, nil
	}
	if err != nil {
		return RunResult{}, err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			j.logger.Warn("release accrual lock", "error", err)
		}
	}()

	y, m, d := j.now().In(j.location).Date()
	asOf := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	resp, err := j.runner.Execute(ctx, dto.AccrueOverdueFinesRequest{AsOf: asOf})
	if err != nil {
		return RunResult{}, fmt.Errorf("accrue overdue fines as of %s: %w", asOf.Format(time.DateOnly), err)
	}
	j.logger.Info("accrual finished",
		"as_of", asOf.Format(time.DateOnly),
		"updated", resp.UpdatedCount,
		"changed", resp.ChangedCount,
		"skipped", resp.SkippedCount,
	)
	return RunResult{Accrual: resp}, nil
}

// RunResult reports one job execution.
type RunResult struct {
	Accrual dto.AccrualResponse
	// Skipped is true when another replica held the lock.
	Skipped bool
}

// ---------------------------------------------------------------------------
// Cron scheduler
// ---------------------------------------------------------------------------

// Scheduler triggers an AccrualJob on a five-field cron spec.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// New registers job under spec, evaluated in location.
func New(spec string, location *time.Location, job *AccrualJob, logger *slog.Logger) (*Scheduler, error) {
	if location == nil {
		location = time.UTC
	}
	c := cron.New(
		cron.WithLocation(location),
		cron.WithLogger(cronLogger{logger: logger}),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger: logger})),
	)
	if _, err := c.AddFunc(spec, func() {
		if _, err := job.Run(context.Background()); err != nil {
			logger.Error("accrual run failed", "error", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("parse accrual schedule %q: %w", spec, err)
	}
	return &Scheduler{cron: c, logger: logger}, nil
}

// Run starts the scheduler and blocks until ctx is canceled, then waits for
// a running job to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	s.logger.Info("accrual scheduler started")
	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("accrual scheduler stopped")
	return nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
