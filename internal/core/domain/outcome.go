package domain

import "time"

// OutcomeKind tags the variant held by an Outcome.
type OutcomeKind uint8

const (
	// OutcomeSucceeded carries the task payload.
	OutcomeSucceeded OutcomeKind = iota
	// OutcomeFailed carries the failure cause.
	OutcomeFailed
	// OutcomeCanceled carries nothing.
	OutcomeCanceled
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	default:
		return "canceled"
	}
}

// Outcome is the terminal result of a task.
type Outcome struct {
	Kind    OutcomeKind
	Payload any
	Cause   error
}

// Succeeded returns a success outcome holding payload.
func Succeeded(payload any) Outcome {
	return Outcome{Kind: OutcomeSucceeded, Payload: payload}
}

// Failed returns a failure outcome holding cause.
func Failed(cause error) Outcome {
	return Outcome{Kind: OutcomeFailed, Cause: cause}
}

// Canceled returns a cancellation outcome.
func Canceled() Outcome {
	return Outcome{Kind: OutcomeCanceled}
}

// State maps the outcome onto the terminal task state.
func (o Outcome) State() State {
	switch o.Kind {
	case OutcomeSucceeded:
		return StateSucceeded
	case OutcomeFailed:
		return StateFailed
	default:
		return StateCanceled
	}
}

// Event announces that a task reached a terminal state.
type Event struct {
	TaskID      TaskID
	Description string
	Outcome     Outcome
	At          time.Time
}
