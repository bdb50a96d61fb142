// Package retry wraps an operation in a bounded retry policy.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	goretry "github.com/sethvargo/go-retry"

	"github.com/DukeRupert/readyhire/internal/metrics"
)

// Policy is a fixed number of attempts with a constant delay between them.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
}

// Generation retries once after one second.
var Generation = Policy{MaxAttempts: 2, Delay: time.Second}

// Once makes a single attempt.
var Once = Policy{MaxAttempts: 1}

func (p Policy) backoff() goretry.Backoff {
	delay := p.Delay
	if delay <= 0 {
		delay = time.Nanosecond
	}
	retries := p.MaxAttempts - 1
	if retries < 0 {
		retries = 0
	}
	return goretry.WithMaxRetries(uint64(retries), goretry.NewConstant(delay))
}

// Do runs fn until it succeeds or the policy is exhausted, and returns the
// last error. Every error is retried except context cancellation.
// op labels logs and the retry metric.
func Do(ctx context.Context, logger *slog.Logger, op string, policy Policy, fn func(ctx context.Context) error) error {
	attempt := 0
	return goretry.Do(ctx, policy.backoff(), func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			metrics.RetryAttemptsTotal.WithLabelValues(op).Inc()
			logger.Info("retrying", "op", op, "attempt", attempt, "max_attempts", policy.MaxAttempts)
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return err
		}
		return goretry.RetryableError(err)
	})
}

// Value is Do for operations that return a result.
func Value[T any](ctx context.Context, logger *slog.Logger, op string, policy Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := Do(ctx, logger, op, policy, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
