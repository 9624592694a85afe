// Package scheduler drives a task graph to completion.
package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.trai.ch/drainage/internal/core/domain"
	"go.trai.ch/drainage/internal/core/ports"
	"go.trai.ch/drainage/internal/engine/bus"
	"go.trai.ch/zerr"
)

// Options configures one execution.
type Options struct {
	// Concurrency bounds the number of running tasks. Zero means unbounded.
	Concurrency int
	// Bus receives one terminal event per task. A private bus is used when nil.
	Bus *bus.Bus
	// Observer receives plan, start, progress and completion notifications.
	Observer ports.Observer
	// ExecutionID names the execution in reports. Generated when empty.
	ExecutionID string
}

// Scheduler manages the execution of tasks in the dependency graph.
type Scheduler struct {
	tracer ports.Tracer
	logger ports.Logger
	now    func() time.Time
}

// NewScheduler creates a new Scheduler with the given dependencies.
func NewScheduler(tracer ports.Tracer, logger ports.Logger) *Scheduler {
	return &Scheduler{
		tracer: tracer,
		logger: logger,
		now:    time.Now,
	}
}

// Run executes the graph and blocks until every task is terminal. The error
// is nil only when every task succeeded; the report is returned either way
// once execution started.
func (s *Scheduler) Run(ctx context.Context, graph *domain.Graph, opts Options) (*domain.Report, error) {
	exec, err := s.Start(ctx, graph, opts)
	if err != nil {
		return nil, err
	}
	// Canceling ctx cancels every task, so the barrier still resolves.
	return exec.Wait(context.WithoutCancel(ctx))
}

// Start validates and seals the graph, then begins executing it in the
// background. Graph assembly errors are returned before any task starts.
func (s *Scheduler) Start(ctx context.Context, graph *domain.Graph, opts Options) (*Execution, error) {
	if opts.Concurrency < 0 {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidConfiguration, "concurrency must not be negative"),
			"concurrency", opts.Concurrency)
	}
	if graph.Sealed() {
		return nil, zerr.Wrap(domain.ErrGraphSealed, "graph was already executed")
	}
	if err := graph.Validate(); err != nil {
		return nil, err
	}
	graph.Seal()

	if opts.Bus == nil {
		opts.Bus = bus.New()
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.ExecutionID == "" {
		opts.ExecutionID = uuid.NewString()
	}

	exec := newExecution(ctx, s, graph, opts)
	exec.emitPlan()

	if graph.TaskCount() == 0 {
		exec.barrier.resolve(exec.buildReport())
		return exec, nil
	}

	go exec.loop()
	return exec, nil
}

type nopObserver struct{}

func (nopObserver) OnPlanEmit([]string, map[string][]string)              {}
func (nopObserver) OnTaskStart(string, time.Time)                         {}
func (nopObserver) OnTaskProgress(string, int)                            {}
func (nopObserver) OnTaskComplete(string, time.Time, domain.State, error) {}
