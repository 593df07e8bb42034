package guard

import (
	"context"
	"time"
)

// Result is the outcome of a retried operation. Value is meaningful only
// when Available is true. Err holds the last failure for diagnostics.
type Result[T any] struct {
	Value     T
	Available bool
	Attempts  int
	Err       error
}

// Retry runs op until it succeeds or policy.Attempts is exhausted. Each
// attempt receives a context bounded by policy.Timeout, and policy.Backoff
// separates consecutive attempts. There is no sleep after the final attempt.
// Cancellation of ctx stops further attempts.
func Retry[T any](ctx context.Context, policy RetryPolicy, op func(ctx context.Context) (T, error)) Result[T] {
	var res Result[T]

	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		res.Attempts = attempt

		value, err := runAttempt(ctx, policy.Timeout, op)
		if err == nil {
			res.Value = value
			res.Available = true
			res.Err = nil
			return res
		}
		res.Err = err

		if attempt == policy.Attempts {
			break
		}
		if !sleep(ctx, policy.Backoff) {
			res.Err = ctx.Err()
			break
		}
	}

	return res
}

func runAttempt[T any](ctx context.Context, timeout time.Duration, op func(ctx context.Context) (T, error)) (T, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return op(attemptCtx)
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
