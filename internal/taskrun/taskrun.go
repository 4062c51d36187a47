// Package taskrun is the execution boundary between blob tasks and whatever
// scheduler invokes them. It injects a run-scoped logger into the context and
// applies the caller-configured retry policy; task bodies themselves stay
// retry-free.
package taskrun

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Status represents the state of a single task run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Config holds the retry policy applied around task bodies.
type Config struct {
	RetryAttempts int           // Number of retries after the first failure
	RetryBackoff  time.Duration // Wait between attempts
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		RetryAttempts: 3,
		RetryBackoff:  10 * time.Second,
	}
}

// Run tracks a single execution of a task.
type Run struct {
	ID          string
	Task        string
	Status      Status
	Attempts    int
	StartedAt   time.Time
	CompletedAt *time.Time
	Err         error
}

// Runner executes task functions with logging context and retry policy.
type Runner struct {
	cfg Config
}

// NewRunner creates a Runner with the given config.
func NewRunner(cfg Config) *Runner {
	return &Runner{cfg: cfg}
}

// Logger returns the run-scoped logger carried by ctx, falling back to the
// process logger when ctx carries none.
func Logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}

// Run executes fn under a fresh run: a run-scoped logger (task name, run id)
// is placed on the context, and failures are retried per the runner's config.
// The error from the final attempt is returned unmodified.
func (r *Runner) Run(ctx context.Context, task string, fn func(context.Context) error) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		Task:      task,
		Status:    StatusPending,
		StartedAt: time.Now(),
	}

	runLog := Logger(ctx).With().
		Str("task", task).
		Str("run_id", run.ID).
		Logger()
	runCtx := runLog.WithContext(ctx)

	attempts := r.cfg.RetryAttempts + 1
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		run.Status = StatusRunning
		run.Attempts = attempt

		err = fn(runCtx)
		if err == nil {
			run.Status = StatusCompleted
			now := time.Now()
			run.CompletedAt = &now
			return run, nil
		}

		if attempt < attempts {
			runLog.Warn().Err(err).
				Int("attempt", attempt).
				Int("max_attempts", attempts).
				Msg("task attempt failed, retrying")

			select {
			case <-ctx.Done():
				run.Status = StatusFailed
				run.Err = ctx.Err()
				return run, ctx.Err()
			case <-time.After(r.cfg.RetryBackoff):
			}
		}
	}

	run.Status = StatusFailed
	run.Err = err
	now := time.Now()
	run.CompletedAt = &now
	runLog.Error().Err(err).Int("attempts", run.Attempts).Msg("task failed")

	return run, err
}
