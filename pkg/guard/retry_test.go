package guard_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JaimeStill/verdant/pkg/guard"
)

func TestRetryExhaustsAttempts(t *testing.T) {
	for _, attempts := range []int{1, 2, 3, 5} {
		policy := guard.RetryPolicy{Attempts: attempts, Backoff: time.Millisecond, Timeout: time.Second}

		calls := 0
		res := guard.Retry(context.Background(), policy, func(context.Context) (string, error) {
			calls++
			return "", errors.New("transient")
		})

		if calls != attempts {
			t.Errorf("N=%d: calls = %d", attempts, calls)
		}
		if res.Available {
			t.Errorf("N=%d: result should be unavailable", attempts)
		}
		if res.Attempts != attempts {
			t.Errorf("N=%d: attempts = %d", attempts, res.Attempts)
		}
		if res.Err == nil {
			t.Errorf("N=%d: last error should be recorded", attempts)
		}
	}
}

func TestRetrySucceedsOnAttemptK(t *testing.T) {
	tests := []struct {
		attempts int
		k        int
	}{
		{1, 1},
		{3, 1},
		{3, 2},
		{3, 3},
		{5, 4},
	}

	for _, tt := range tests {
		policy := guard.RetryPolicy{Attempts: tt.attempts, Timeout: time.Second}

		calls := 0
		res := guard.Retry(context.Background(), policy, func(context.Context) (int, error) {
			calls++
			if calls < tt.k {
				return 0, errors.New("transient")
			}
			return 42, nil
		})

		if calls != tt.k {
			t.Errorf("N=%d k=%d: calls = %d", tt.attempts, tt.k, calls)
		}
		if !res.Available || res.Value != 42 {
			t.Errorf("N=%d k=%d: result = %+v", tt.attempts, tt.k, res)
		}
		if res.Err != nil {
			t.Errorf("N=%d k=%d: err = %v, want nil", tt.attempts, tt.k, res.Err)
		}
	}
}

func TestRetryBackoffBetweenAttemptsOnly(t *testing.T) {
	policy := guard.RetryPolicy{Attempts: 2, Backoff: 200 * time.Millisecond, Timeout: time.Second}

	start := time.Now()
	guard.Retry(context.Background(), policy, func(context.Context) (struct{}, error) {
		return struct{}{}, errors.New("transient")
	})
	elapsed := time.Since(start)

	if elapsed < 200*time.Millisecond {
		t.Errorf("elapsed = %v, want one backoff between attempts", elapsed)
	}
	if elapsed >= 350*time.Millisecond {
		t.Errorf("elapsed = %v, slept after the final attempt", elapsed)
	}
}

func TestRetryAttemptTimeout(t *testing.T) {
	policy := guard.RetryPolicy{Attempts: 2, Timeout: 30 * time.Millisecond}

	start := time.Now()
	res := guard.Retry(context.Background(), policy, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})

	if res.Available {
		t.Fatal("result should be unavailable")
	}
	if !errors.Is(res.Err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", res.Err)
	}
	if elapsed := time.Since(start); elapsed > policy.Ceiling()+200*time.Millisecond {
		t.Errorf("elapsed = %v, exceeds ceiling %v", elapsed, policy.Ceiling())
	}
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := guard.RetryPolicy{Attempts: 5, Backoff: time.Hour, Timeout: time.Second}

	calls := 0
	res := guard.Retry(ctx, policy, func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, errors.New("transient")
	})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if res.Available {
		t.Error("result should be unavailable")
	}
	if !errors.Is(res.Err, context.Canceled) {
		t.Errorf("err = %v, want canceled", res.Err)
	}
}

func TestPolicyValidate(t *testing.T) {
	retry := []struct {
		name   string
		policy guard.RetryPolicy
		valid  bool
	}{
		{"valid", guard.RetryPolicy{Attempts: 1, Timeout: time.Second}, true},
		{"zero attempts", guard.RetryPolicy{Attempts: 0, Timeout: time.Second}, false},
		{"negative backoff", guard.RetryPolicy{Attempts: 1, Backoff: -1, Timeout: time.Second}, false},
		{"zero timeout", guard.RetryPolicy{Attempts: 1}, false},
	}
	for _, tt := range retry {
		t.Run("retry "+tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if (err == nil) != tt.valid {
				t.Errorf("err = %v, valid = %v", err, tt.valid)
			}
			if err != nil && !errors.Is(err, guard.ErrInvalidPolicy) {
				t.Errorf("err = %v, want ErrInvalidPolicy", err)
			}
		})
	}

	timeout := []struct {
		name   string
		policy guard.TimeoutPolicy
		valid  bool
	}{
		{"valid", guard.TimeoutPolicy{Ceiling: time.Second, MaxConcurrent: 1}, true},
		{"zero ceiling", guard.TimeoutPolicy{MaxConcurrent: 1}, false},
		{"zero slots", guard.TimeoutPolicy{Ceiling: time.Second}, false},
	}
	for _, tt := range timeout {
		t.Run("timeout "+tt.name, func(t *testing.T) {
			if err := tt.policy.Validate(); (err == nil) != tt.valid {
				t.Errorf("err = %v, valid = %v", err, tt.valid)
			}
		})
	}
}

func TestRetryPolicyCeiling(t *testing.T) {
	p := guard.RetryPolicy{Attempts: 3, Backoff: time.Second, Timeout: 15 * time.Second}
	if got, want := p.Ceiling(), 48*time.Second; got != want {
		t.Errorf("ceiling = %v, want %v", got, want)
	}
}
