package domain

import (
	"errors"
	"fmt"
	"time"

	"go.trai.ch/zerr"
)

// TaskReport is the final record of one task in an execution.
type TaskReport struct {
	ID          TaskID
	Description string
	State       State
	Cause       error
	Progress    int
	Ran         bool
	Started     time.Time
	Finished    time.Time
}

// Duration is the wall time the task spent running. Tasks that never ran report zero.
func (r TaskReport) Duration() time.Duration {
	if !r.Ran || r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

// Report summarizes an execution once every task is terminal.
type Report struct {
	ExecutionID string
	Started     time.Time
	Finished    time.Time
	Tasks       []TaskReport
}

// Succeeded reports whether every task succeeded.
func (r *Report) Succeeded() bool {
	for _, t := range r.Tasks {
		if t.State != StateSucceeded {
			return false
		}
	}
	return true
}

// Task returns the record for id.
func (r *Report) Task(id TaskID) (TaskReport, bool) {
	for _, t := range r.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return TaskReport{}, false
}

// Failed returns the tasks that ended Failed, in graph order.
func (r *Report) Failed() []TaskReport {
	return r.filter(StateFailed)
}

// Canceled returns the tasks that ended Canceled, in graph order.
func (r *Report) Canceled() []TaskReport {
	return r.filter(StateCanceled)
}

func (r *Report) filter(state State) []TaskReport {
	var out []TaskReport
	for _, t := range r.Tasks {
		if t.State == state {
			out = append(out, t)
		}
	}
	return out
}

// Outcome is a one-word summary used by displays and the run history.
func (r *Report) Outcome() string {
	switch {
	case r.Succeeded():
		return "succeeded"
	case len(r.Failed()) > 0:
		return "failed"
	default:
		return "canceled"
	}
}

// Err returns nil when the execution succeeded, otherwise an error joining
// ErrPipelineFailed with the cause of every non-succeeded task.
func (r *Report) Err() error {
	if r.Succeeded() {
		return nil
	}

	errs := []error{ErrPipelineFailed}
	for _, t := range r.Tasks {
		switch t.State {
		case StateFailed:
			errs = append(errs, zerr.With(t.Cause, "task", t.ID.String()))
		case StateCanceled:
			errs = append(errs, fmt.Errorf("%w: %s", ErrTaskCanceled, t.ID))
		default:
		}
	}
	return errors.Join(errs...)
}

// RunSummary is the stored digest of a past execution.
type RunSummary struct {
	ExecutionID string
	Pipeline    string
	Started     time.Time
	Finished    time.Time
	Outcome     string
	Tasks       int
	Failed      []string
	Canceled    []string
}
