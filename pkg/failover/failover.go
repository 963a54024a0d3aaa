// Package failover attempts an operation against an ordered list of
// equivalent targets and stops at the first one that succeeds.
package failover

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/asucbc/cbc-api/pkg/logger"
	"go.uber.org/zap"
)

// ErrNoTargets is returned when the target list is empty or all blank
var ErrNoTargets = errors.New("no failover targets")

// AttemptFunc performs one attempt against target. The context carries the
// per-attempt deadline.
type AttemptFunc func(ctx context.Context, target string) error

// Config holds failover configuration
type Config struct {
	// AttemptTimeout bounds each attempt; zero means no per-attempt bound
	AttemptTimeout time.Duration
	// Operation names the work in logs
	Operation string
	// Describe renders a target for logs. Targets may embed credentials, so
	// the default logs only the position in the list.
	Describe func(index int, target string) string
}

// AttemptError records why a single target failed
type AttemptError struct {
	Index int
	Err   error
}

func (e *AttemptError) Error() string {
	return fmt.Sprintf("target %d: %v", e.Index, e.Err)
}

func (e *AttemptError) Unwrap() error {
	return e.Err
}

// ExhaustedError is returned when every target was attempted and none succeeded
type ExhaustedError struct {
	Attempts []*AttemptError
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all %d failover targets failed", len(e.Attempts))
}

// Unwrap exposes the individual attempt errors to errors.Is / errors.As
func (e *ExhaustedError) Unwrap() []error {
	errs := make([]error, len(e.Attempts))
	for i, a := range e.Attempts {
		errs[i] = a
	}
	return errs
}

// First runs fn against targets in order, one at a time, and returns the index
// of the first target that succeeded. Blank targets are skipped. When the
// parent context is cancelled the loop stops with the context error.
func First(ctx context.Context, cfg Config, targets []string, fn AttemptFunc) (int, error) {
	describe := cfg.Describe
	if describe == nil {
		describe = func(index int, _ string) string { return fmt.Sprintf("#%d", index) }
	}

	var attempts []*AttemptError
	for i, target := range targets {
		if target == "" {
			continue
		}

		if err := ctx.Err(); err != nil {
			return -1, err
		}

		start := time.Now()
		err := attempt(ctx, cfg.AttemptTimeout, target, fn)
		if err == nil {
			logger.Info("Failover attempt succeeded",
				zap.String("operation", cfg.Operation),
				zap.String("target", describe(i, target)),
				zap.Int("attempt", len(attempts)+1),
				zap.Duration("duration", time.Since(start)))
			return i, nil
		}

		logger.Warn("Failover attempt failed, trying next target",
			zap.String("operation", cfg.Operation),
			zap.String("target", describe(i, target)),
			zap.Int("attempt", len(attempts)+1),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		attempts = append(attempts, &AttemptError{Index: i, Err: err})
	}

	if len(attempts) == 0 {
		return -1, ErrNoTargets
	}

	logger.Error("All failover targets failed",
		zap.String("operation", cfg.Operation),
		zap.Int("attempts", len(attempts)))

	return -1, &ExhaustedError{Attempts: attempts}
}

func attempt(ctx context.Context, timeout time.Duration, target string, fn AttemptFunc) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return fn(ctx, target)
}
