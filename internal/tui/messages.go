package tui

import (
	"github.com/vito/progrock"
	"go.trai.ch/drainage/internal/core/domain"
)

// MsgPlan announces the tasks of an execution in execution order.
type MsgPlan struct {
	Tasks        []string
	Dependencies map[string][]string
}

// MsgProgress carries a task's latest progress percentage.
type MsgProgress struct {
	Name    string
	Percent int
}

// MsgLog carries output emitted by a task.
type MsgLog struct {
	Name string
	Data []byte
}

// MsgOutcome carries the terminal state of a task, including tasks that
// never ran.
type MsgOutcome struct {
	Name  string
	State domain.State
	Err   error
	// Ran distinguishes a failure from a skip caused by an upstream failure.
	Ran bool
}

// MsgTapeUpdate wraps the raw update from progrock.
type MsgTapeUpdate struct {
	Update *progrock.StatusUpdate
}

// MsgTapeEnded is sent when the tape stream has ended.
type MsgTapeEnded struct{}
