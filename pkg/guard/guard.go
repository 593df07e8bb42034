// Package guard makes unreliable operations behave predictably. Network reads
// are retried a bounded number of times; local computations run in a child
// process that is killed when it overruns its ceiling. Neither mode returns
// transient failures as errors: callers receive an explicit unavailable or
// fallback result and decide whether that is fatal.
package guard

import (
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/semaphore"
)

const (
	defaultMaxBodyBytes = 20 * 1024 * 1024
	defaultWaitDelay    = time.Second
)

// Executor applies a fixed RetryPolicy and TimeoutPolicy to every call.
// It holds no per-call state and is safe for concurrent use.
type Executor struct {
	retry     RetryPolicy
	timeout   TimeoutPolicy
	client    *http.Client
	slots     *semaphore.Weighted
	maxBody   int64
	waitDelay time.Duration
	logger    *slog.Logger
}

// Option customizes an Executor.
type Option func(*Executor)

// WithHTTPClient replaces the default instrumented client.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Executor) {
		if c != nil {
			e.client = c
		}
	}
}

// WithMaxBodyBytes limits how much of a response body Get will read.
func WithMaxBodyBytes(n int64) Option {
	return func(e *Executor) {
		if n > 0 {
			e.maxBody = n
		}
	}
}

// WithWaitDelay bounds how long RunLocal waits for output pipes to close
// after the child process has been killed.
func WithWaitDelay(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.waitDelay = d
		}
	}
}

// New validates both policies and creates an Executor.
func New(retry RetryPolicy, timeout TimeoutPolicy, logger *slog.Logger, opts ...Option) (*Executor, error) {
	if err := retry.Validate(); err != nil {
		return nil, err
	}
	if err := timeout.Validate(); err != nil {
		return nil, err
	}

	e := &Executor{
		retry:   retry,
		timeout: timeout,
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		slots:     semaphore.NewWeighted(timeout.MaxConcurrent),
		maxBody:   defaultMaxBodyBytes,
		waitDelay: defaultWaitDelay,
		logger:    logger.With("system", "guard"),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// RetryPolicy returns the executor's retry policy.
func (e *Executor) RetryPolicy() RetryPolicy {
	return e.retry
}

// TimeoutPolicy returns the executor's timeout policy.
func (e *Executor) TimeoutPolicy() TimeoutPolicy {
	return e.timeout
}
