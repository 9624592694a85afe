package domain

import "context"

// DependencyKind distinguishes the two ordering relations between tasks.
type DependencyKind uint8

const (
	// CompletionDependency requires the predecessor to have succeeded.
	CompletionDependency DependencyKind = iota
	// StartDependency only requires the predecessor to have started.
	StartDependency
)

func (k DependencyKind) String() string {
	if k == StartDependency {
		return "start"
	}
	return "completion"
}

// Dependency is one declared edge from a task to a predecessor.
type Dependency struct {
	ID   TaskID
	Kind DependencyKind
}

// OnCompletion declares that a task needs id to succeed first.
func OnCompletion(id string) Dependency {
	return Dependency{ID: NewTaskID(id), Kind: CompletionDependency}
}

// OnStart declares that a task needs id to have started first.
func OnStart(id string) Dependency {
	return Dependency{ID: NewTaskID(id), Kind: StartDependency}
}

// Progress receives percentage updates for the task being run.
type Progress interface {
	Report(percent int)
}

// RunContext is handed to a task's work for the duration of one execution.
type RunContext interface {
	// TaskID returns the id of the task being run.
	TaskID() TaskID
	// Output returns the payload produced by a succeeded task of the same execution.
	Output(id TaskID) (any, bool)
	// Progress returns the handle for reporting completion percentages.
	Progress() Progress
}

// Work is the body of a task.
type Work interface {
	Run(ctx context.Context, rc RunContext) (any, error)
}

// WorkFunc adapts a function to Work.
type WorkFunc func(ctx context.Context, rc RunContext) (any, error)

// Run calls f.
func (f WorkFunc) Run(ctx context.Context, rc RunContext) (any, error) {
	return f(ctx, rc)
}

// Task is the unit of schedulable work.
type Task struct {
	ID           TaskID
	Description  string
	Dependencies []Dependency
	Work         Work
}

// NewTask builds a task. An empty id is replaced by a generated one.
func NewTask(id, description string, work Work, deps ...Dependency) *Task {
	taskID := NewTaskID(id)
	if id == "" {
		taskID = GenerateTaskID()
	}
	return &Task{
		ID:           taskID,
		Description:  description,
		Dependencies: deps,
		Work:         work,
	}
}

// Label is the human-readable name used in logs and progress displays.
func (t *Task) Label() string {
	if t.Description != "" {
		return t.Description
	}
	return t.ID.String()
}
