// Package pipeline runs a fixed, ordered list of named steps over a single
// state value. One step at a time executes; a step may carry a successor
// selector that jumps forward or ends the run early.
package pipeline

import (
	"context"
	"fmt"
	"time"
)

// Step is one named transformation of the state.
// Next is optional; when nil the run continues with the next registered step.
type Step[S any] struct {
	Name string
	Run  func(ctx context.Context, s S) (S, error)
	Next func(s S) Transition
}

// Cloner is implemented by states that hold reference types. The engine hands
// each step a clone so that a failing step cannot leak partial writes.
type Cloner[S any] interface {
	Clone() S
}

// Pipeline is an immutable step list. It is safe for concurrent runs.
type Pipeline[S any] struct {
	steps     []Step[S]
	observers []Observer
}

// New validates the step list and builds a Pipeline.
func New[S any](steps []Step[S], opts ...Option) (*Pipeline[S], error) {
	if len(steps) == 0 {
		return nil, ErrNoSteps
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	seen := make(map[string]struct{}, len(steps))
	for i, step := range steps {
		if step.Name == "" {
			return nil, fmt.Errorf("step %d: %w", i, ErrEmptyStepName)
		}
		if step.Run == nil {
			return nil, fmt.Errorf("step %q: %w", step.Name, ErrNilRun)
		}
		if _, ok := seen[step.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateStep, step.Name)
		}
		seen[step.Name] = struct{}{}
	}

	return &Pipeline[S]{
		steps:     append([]Step[S](nil), steps...),
		observers: o.observers,
	}, nil
}

// Steps returns the registered step names in order.
func (p *Pipeline[S]) Steps() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Name
	}
	return names
}

// Run executes the pipeline against initial. The returned state always
// reflects the last step that completed successfully. On Failed the error is
// a *StepError naming the step.
func (p *Pipeline[S]) Run(ctx context.Context, initial S) (S, Outcome, error) {
	current := initial

	for _, step := range p.steps {
		next, err := p.execute(ctx, step, current)
		if err != nil {
			return p.finish(ctx, current, Failed, &StepError{Step: step.Name, Err: err})
		}
		current = next

		if step.Next != nil && step.Next(current).kind == transitionTerminate {
			return p.finish(ctx, current, TerminatedEarly, nil)
		}
	}

	return p.finish(ctx, current, Completed, nil)
}

func (p *Pipeline[S]) execute(ctx context.Context, step Step[S], current S) (next S, err error) {
	for _, o := range p.observers {
		ctx = o.StepStarted(ctx, step.Name)
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrStepPanic, r)
		}
		for _, o := range p.observers {
			o.StepFinished(ctx, step.Name, time.Since(start), err)
		}
	}()

	return step.Run(ctx, clone(current))
}

func (p *Pipeline[S]) finish(ctx context.Context, s S, outcome Outcome, err error) (S, Outcome, error) {
	for _, o := range p.observers {
		o.RunFinished(ctx, outcome, err)
	}
	return s, outcome, err
}

func clone[S any](s S) S {
	if c, ok := any(s).(Cloner[S]); ok {
		return c.Clone()
	}
	return s
}
