package domain

// State is the lifecycle position of a task within one execution.
type State uint8

const (
	// StatePending means at least one dependency is not yet satisfied.
	StatePending State = iota
	// StateReady means the task may be admitted as soon as the budget allows.
	StateReady
	// StateRunning means the task's work is executing.
	StateRunning
	// StateSucceeded means the work returned without error.
	StateSucceeded
	// StateFailed means the work failed or an upstream dependency did.
	StateFailed
	// StateCanceled means the task was canceled before it could finish.
	StateCanceled
)

var stateNames = [...]string{
	StatePending:   "Pending",
	StateReady:     "Ready",
	StateRunning:   "Running",
	StateSucceeded: "Succeeded",
	StateFailed:    "Failed",
	StateCanceled:  "Canceled",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Unknown"
}

// IsTerminal reports whether no further transition can leave s.
func (s State) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateCanceled
}

// CanTransition reports whether moving from s to next is a legal step.
func (s State) CanTransition(next State) bool {
	switch s {
	case StatePending:
		// Failed here is the cascading skip.
		return next == StateReady || next == StateFailed || next == StateCanceled
	case StateReady:
		return next == StateRunning || next == StateFailed || next == StateCanceled
	case StateRunning:
		return next == StateSucceeded || next == StateFailed || next == StateCanceled
	default:
		return false
	}
}
