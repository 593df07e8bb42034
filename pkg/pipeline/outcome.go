package pipeline

// Outcome is the terminal classification of a run.
type Outcome int

const (
	// Completed means every step on the traversed path ran.
	Completed Outcome = iota
	// TerminatedEarly means a successor selector ended the run.
	// It is not an error.
	TerminatedEarly
	// Failed means a step returned an error. The run's state is the
	// state after the last successful step.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case TerminatedEarly:
		return "terminated_early"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

type transitionKind int

const (
	transitionContinue transitionKind = iota
	transitionTerminate
)

// Transition is the value a successor selector returns.
type Transition struct {
	kind transitionKind
}

// Continue proceeds to the next registered step.
func Continue() Transition {
	return Transition{kind: transitionContinue}
}

// Terminate ends the run with TerminatedEarly.
func Terminate() Transition {
	return Transition{kind: transitionTerminate}
}
