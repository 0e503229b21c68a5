package agent

import (
	"context"
	"math"
	"time"

	"github.com/fitforge-ai/fitforge/pkg/utils/logging"
)

// SleepFunc waits for d or until ctx is done. Injected in tests so
// backoff delays never actually sleep.
type SleepFunc func(ctx context.Context, d time.Duration) error

// RetryPolicy bounds retryWithBackoff behavior for an agent
type RetryPolicy struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	BackoffFactor float64

	sleep SleepFunc
}

// DefaultRetryPolicy returns the policy agents use unless configured
// otherwise: 3 attempts, 1s initial delay, 1.5x backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:   3,
		InitialDelay:  time.Second,
		BackoffFactor: 1.5,
	}
}

// WithSleep returns a copy of the policy with a custom sleep function
func (p RetryPolicy) WithSleep(fn SleepFunc) RetryPolicy {
	p.sleep = fn
	return p
}

// Delay returns the wait before retrying after the given 1-based
// attempt: InitialDelay * BackoffFactor^(attempt-1).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(float64(p.InitialDelay) * math.Pow(p.BackoffFactor, float64(attempt-1)))
}

func (p RetryPolicy) wait(ctx context.Context, d time.Duration) error {
	if p.sleep != nil {
		return p.sleep(ctx, d)
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Retry invokes op up to p.MaxAttempts times, sleeping between
// attempts only. On exhaustion the last failure is returned unchanged;
// classification happens at the agent boundary.
func Retry[T any](ctx context.Context, p RetryPolicy, op func(ctx context.Context) (T, error)) (T, error) {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	var zero T
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == p.MaxAttempts {
			break
		}

		delay := p.Delay(attempt)
		logging.From(ctx).Warn("operation failed, retrying",
			"attempt", attempt, "max_attempts", p.MaxAttempts,
			"delay", delay, "error", err)

		if werr := p.wait(ctx, delay); werr != nil {
			return zero, lastErr
		}
	}

	return zero, lastErr
}
