package guard

import (
	"fmt"
	"time"
)

// RetryPolicy bounds a network call: at most Attempts tries, each limited to
// Timeout, with a fixed Backoff between tries.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
	Timeout  time.Duration
}

// Validate reports whether the policy is usable.
func (p RetryPolicy) Validate() error {
	if p.Attempts < 1 {
		return fmt.Errorf("%w: attempts must be at least 1", ErrInvalidPolicy)
	}
	if p.Backoff < 0 {
		return fmt.Errorf("%w: backoff must not be negative", ErrInvalidPolicy)
	}
	if p.Timeout <= 0 {
		return fmt.Errorf("%w: attempt timeout must be positive", ErrInvalidPolicy)
	}
	return nil
}

// Ceiling is the longest a call under this policy can take.
func (p RetryPolicy) Ceiling() time.Duration {
	return time.Duration(p.Attempts) * (p.Timeout + p.Backoff)
}

// TimeoutPolicy bounds a local computation to Ceiling wall-clock time and
// limits how many run at once.
type TimeoutPolicy struct {
	Ceiling       time.Duration
	MaxConcurrent int64
}

// Validate reports whether the policy is usable.
func (p TimeoutPolicy) Validate() error {
	if p.Ceiling <= 0 {
		return fmt.Errorf("%w: ceiling must be positive", ErrInvalidPolicy)
	}
	if p.MaxConcurrent < 1 {
		return fmt.Errorf("%w: max concurrent must be at least 1", ErrInvalidPolicy)
	}
	return nil
}
