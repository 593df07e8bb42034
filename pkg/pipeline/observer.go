package pipeline

import (
	"context"
	"time"
)

// Observer receives run and step notifications. The context returned by
// StepStarted is the one passed to the step's Run function.
type Observer interface {
	StepStarted(ctx context.Context, step string) context.Context
	StepFinished(ctx context.Context, step string, elapsed time.Duration, err error)
	RunFinished(ctx context.Context, outcome Outcome, err error)
}

// Option configures a Pipeline.
type Option func(*options)

type options struct {
	observers []Observer
}

// WithObserver attaches an observer. Observers are notified in the order added.
func WithObserver(o Observer) Option {
	return func(opts *options) {
		if o != nil {
			opts.observers = append(opts.observers, o)
		}
	}
}
