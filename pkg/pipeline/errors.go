package pipeline

import (
	"errors"
	"fmt"
)

// Construction and run errors.
var (
	ErrNoSteps       = errors.New("pipeline has no steps")
	ErrEmptyStepName = errors.New("step name must not be empty")
	ErrDuplicateStep = errors.New("duplicate step name")
	ErrNilRun        = errors.New("step has no run function")
	ErrStepPanic     = errors.New("step panicked")
	ErrFieldSet      = errors.New("field already set")
)

// StepError identifies the step that failed a run and the underlying cause.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// FailedStep returns the name of the step that produced err, if any.
func FailedStep(err error) (string, bool) {
	var se *StepError
	if errors.As(err, &se) {
		return se.Step, true
	}
	return "", false
}
