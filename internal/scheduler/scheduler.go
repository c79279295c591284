// Package scheduler runs periodic jobs, each in its own loop, with a bounded
// timeout per invocation.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/millkeeper/internal/logging"
)

// Job is one periodic task.
type Job struct {
	Name string

	// Interval between the starts of two invocations. A run that outlasts
	// it delays the next one; runs of the same job never overlap.
	Interval time.Duration

	// Timeout bounds a single invocation. Zero means no limit beyond the
	// parent context.
	Timeout time.Duration

	// RunOnStart invokes the job once before the first tick.
	RunOnStart bool

	Run func(ctx context.Context) error

	// SkipIf marks errors that only mean "nothing done this time". They are
	// logged at debug level.
	SkipIf func(error) bool
}

func (j Job) validate() error {
	if j.Name == "" {
		return errors.New("job name is required")
	}
	if j.Interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", j.Name)
	}
	if j.Run == nil {
		return fmt.Errorf("job %s: run func is required", j.Name)
	}
	return nil
}

// Run starts every job and blocks until ctx is cancelled and all loops have
// returned. Job errors are logged and never stop the loop.
func Run(ctx context.Context, logger logging.Logger, jobs ...Job) error {
	for _, j := range jobs {
		if err := j.validate(); err != nil {
			return err
		}
	}

	logger = logger.With("component", "scheduler")
	g, gctx := errgroup.WithContext(ctx)
	for _, j := range jobs {
		g.Go(func() error {
			loop(gctx, logger.With("job", j.Name), j)
			return nil
		})
	}
	return g.Wait()
}

func loop(ctx context.Context, logger logging.Logger, j Job) {
	logger.Info(ctx, "job started", "interval", j.Interval.String(), "timeout", j.Timeout.String())
	defer logger.Info(ctx, "job stopped")

	if j.RunOnStart {
		invoke(ctx, logger, j)
	}

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			invoke(ctx, logger, j)
		}
	}
}

func invoke(ctx context.Context, logger logging.Logger, j Job) {
	if ctx.Err() != nil {
		return
	}
	runCtx := ctx
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	start := time.Now()
	err := j.Run(runCtx)
	switch {
	case err == nil:
		logger.Debug(ctx, "job run finished", "duration", time.Since(start).String())
	case j.SkipIf != nil && j.SkipIf(err):
		logger.Debug(ctx, "job run skipped", "reason", err.Error())
	case ctx.Err() != nil:
		// shutting down
	default:
		logger.Warn(ctx, "job run failed", "error", err, "duration", time.Since(start).String())
	}
}
