package ports

import (
	"context"
	"time"

	"go.trai.ch/drainage/internal/core/domain"
)

// Observer receives execution events from the scheduler. Tasks are keyed by
// a name unique within the execution: the description when one is set, the
// id otherwise, with the id appended when descriptions collide.
// Implementations must not block.
//
//go:generate mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Observer interface {
	// OnPlanEmit is called once before any task starts.
	// tasks: labels in execution order
	// deps: label -> labels it depends on
	OnPlanEmit(tasks []string, deps map[string][]string)

	// OnTaskStart is called when a task begins running.
	OnTaskStart(name string, startTime time.Time)

	// OnTaskProgress is called with clamped percentages in [0, 100].
	OnTaskProgress(name string, percent int)

	// OnTaskComplete is called once per task when it reaches a terminal
	// state, including tasks that never ran.
	OnTaskComplete(name string, endTime time.Time, state domain.State, err error)
}

// Renderer is an Observer with a display lifecycle.
type Renderer interface {
	Observer

	// Start initializes the renderer. Asynchronous renderers may launch
	// background goroutines here.
	Start(ctx context.Context) error

	// Stop signals the renderer to stop accepting events and flush.
	Stop() error

	// Wait blocks until the renderer has fully terminated.
	Wait() error

	// OnTaskLog is called when a task emits output.
	OnTaskLog(name string, data []byte)
}
