package scheduler

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.trai.ch/drainage/internal/core/domain"
	"go.trai.ch/drainage/internal/core/ports"
	"go.trai.ch/drainage/internal/engine/bus"
	"go.trai.ch/drainage/internal/engine/progress"
	"go.trai.ch/zerr"
)

type taskRun struct {
	task       domain.Task
	index      int
	downstream int
	// name identifies the task to the observer; unique within the execution.
	name string

	state    domain.State
	ran      bool
	payload  any
	cause    error
	started  time.Time
	finished time.Time

	// unsatisfied predecessors per relation kind
	waitCompletion int
	waitStart      int

	cancel context.CancelFunc
}

type result struct {
	id      domain.TaskID
	payload any
	err     error
}

type launch struct {
	ctx context.Context
	run *taskRun
}

// Execution is the run state of one graph execution. It is created by
// Scheduler.Start and discarded once its barrier resolves.
type Execution struct {
	id        string
	s         *Scheduler
	graph     *domain.Graph
	ctx       context.Context
	budget    int
	bus       *bus.Bus
	observer  ports.Observer
	progress  *progress.Reporter
	barrier   *Barrier
	startedAt time.Time

	mu     sync.Mutex
	runs   map[domain.TaskID]*taskRun
	order  []*taskRun
	ready  []*taskRun
	active int
	queue  []domain.Event

	deliverMu sync.Mutex
	resultsCh chan result
	wakeCh    chan struct{}
}

func newExecution(ctx context.Context, s *Scheduler, graph *domain.Graph, opts Options) *Execution {
	n := graph.TaskCount()
	e := &Execution{
		id:        opts.ExecutionID,
		s:         s,
		graph:     graph,
		ctx:       ctx,
		budget:    opts.Concurrency,
		bus:       opts.Bus,
		observer:  opts.Observer,
		progress:  progress.NewReporter(opts.Observer),
		barrier:   newBarrier(n),
		startedAt: s.now(),
		runs:      make(map[domain.TaskID]*taskRun, n),
		order:     make([]*taskRun, 0, n),
		// Every task sends at most one result, so senders never block even
		// after the loop has exited.
		resultsCh: make(chan result, n),
		wakeCh:    make(chan struct{}, 1),
	}

	for task := range graph.Tasks() {
		idx, _ := graph.Index(task.ID)
		r := &taskRun{
			task:       task,
			index:      idx,
			downstream: graph.DownstreamCount(task.ID),
		}
		for _, dep := range task.Dependencies {
			if dep.Kind == domain.StartDependency {
				r.waitStart++
			} else {
				r.waitCompletion++
			}
		}
		e.runs[task.ID] = r
		e.order = append(e.order, r)
		e.promote(r)
	}
	e.assignNames()
	for _, r := range e.order {
		e.progress.Register(r.task.ID, r.name)
	}
	return e
}

// assignNames names every task by its label, appending the id when another
// task shares that label.
func (e *Execution) assignNames() {
	count := make(map[string]int, len(e.order))
	for _, r := range e.order {
		count[r.task.Label()]++
	}
	for _, r := range e.order {
		r.name = r.task.Label()
		if count[r.name] > 1 && r.name != r.task.ID.String() {
			r.name = fmt.Sprintf("%s (%s)", r.name, r.task.ID)
		}
	}
}

func (e *Execution) emitPlan() {
	var tasks []string
	deps := make(map[string][]string, e.graph.TaskCount())
	for task := range e.graph.Walk() {
		name := e.runs[task.ID].name
		tasks = append(tasks, name)
		names := make([]string, len(task.Dependencies))
		for i, dep := range task.Dependencies {
			names[i] = e.runs[dep.ID].name
		}
		deps[name] = names
	}
	e.observer.OnPlanEmit(tasks, deps)
}

// ID returns the execution identifier.
func (e *Execution) ID() string {
	return e.id
}

// Bus returns the bus terminal events are published on.
func (e *Execution) Bus() *bus.Bus {
	return e.bus
}

// Barrier returns the completion barrier of this execution.
func (e *Execution) Barrier() *Barrier {
	return e.barrier
}

// Done is closed once every task is terminal.
func (e *Execution) Done() <-chan struct{} {
	return e.barrier.Done()
}

// Wait blocks until every task is terminal, or ctx is done.
func (e *Execution) Wait(ctx context.Context) (*domain.Report, error) {
	return e.barrier.Wait(ctx)
}

// State returns the current state of id.
func (e *Execution) State(id domain.TaskID) (domain.State, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.runs[id]
	if !ok {
		return domain.StatePending, false
	}
	return r.state, true
}

// Cancel cancels id and every task that transitively depends on it. Tasks
// that have not started never will; running tasks have their context canceled
// and their eventual result is discarded. Dependents are canceled as each
// canceled task's event is delivered, so listeners see them still pending.
func (e *Execution) Cancel(id domain.TaskID) error {
	e.mu.Lock()
	r, ok := e.runs[id]
	if !ok {
		e.mu.Unlock()
		return zerr.With(zerr.Wrap(domain.ErrTaskNotFound, "cannot cancel"), "task", id.String())
	}
	e.finishLocked(r, domain.Canceled())
	e.mu.Unlock()

	e.s.logger.Info(fmt.Sprintf("canceled %s and its dependents", id))
	e.drain()
	e.wake()
	return nil
}

// CancelAll cancels every task that is not yet terminal.
func (e *Execution) CancelAll() {
	e.mu.Lock()
	for _, r := range e.order {
		e.finishLocked(r, domain.Canceled())
	}
	e.mu.Unlock()

	e.drain()
	e.wake()
}

func (e *Execution) loop() {
	ctxDone := e.ctx.Done()
	for {
		e.schedule()

		select {
		case res := <-e.resultsCh:
			e.handleResult(res)
		case <-e.wakeCh:
		case <-ctxDone:
			ctxDone = nil
			e.s.logger.Warn("execution interrupted, canceling remaining tasks")
			e.CancelAll()
		case <-e.barrier.Done():
			return
		}
	}
}

func (e *Execution) wake() {
	select {
	case e.wakeCh <- struct{}{}:
	default:
	}
}

// schedule admits ready tasks while the budget allows.
func (e *Execution) schedule() {
	e.mu.Lock()
	var launched []launch
	for e.ctx.Err() == nil && (e.budget == 0 || e.active < e.budget) {
		r := e.popReady()
		if r == nil {
			break
		}
		launched = append(launched, launch{ctx: e.admitLocked(r), run: r})
	}
	e.mu.Unlock()

	for _, l := range launched {
		e.observer.OnTaskStart(l.run.name, l.run.started)
		go e.runTask(l.ctx, l.run)
	}
}

// popReady removes and returns the ready task with the most downstream
// dependents, falling back to insertion order.
func (e *Execution) popReady() *taskRun {
	e.ready = slices.DeleteFunc(e.ready, func(r *taskRun) bool {
		return r.state != domain.StateReady
	})
	if len(e.ready) == 0 {
		return nil
	}

	best := 0
	for i, r := range e.ready {
		b := e.ready[best]
		if r.downstream > b.downstream || (r.downstream == b.downstream && r.index < b.index) {
			best = i
		}
	}
	r := e.ready[best]
	e.ready = slices.Delete(e.ready, best, best+1)
	return r
}

func (e *Execution) admitLocked(r *taskRun) context.Context {
	r.state = domain.StateRunning
	r.ran = true
	r.started = e.s.now()
	e.active++

	ctx, cancel := context.WithCancel(e.ctx)
	r.cancel = cancel

	for _, dep := range e.graph.Dependents(r.task.ID) {
		if dep.Kind != domain.StartDependency {
			continue
		}
		d := e.runs[dep.ID]
		if d.state != domain.StatePending {
			continue
		}
		d.waitStart--
		e.promote(d)
	}
	return ctx
}

func (e *Execution) promote(r *taskRun) {
	if r.state == domain.StatePending && r.waitCompletion == 0 && r.waitStart == 0 {
		r.state = domain.StateReady
		e.ready = append(e.ready, r)
	}
}

func (e *Execution) runTask(ctx context.Context, r *taskRun) {
	// The span must end before the result is sent, otherwise the loop can
	// observe completion before the span is recorded.
	res := func() (res result) {
		res.id = r.task.ID

		ctx, span := e.s.tracer.Start(ctx, r.task.Label())
		defer span.End()
		span.SetAttribute("drainage.task.id", r.task.ID.String())
		ctx = ports.ContextWithSpan(ctx, span)

		defer func() {
			if p := recover(); p != nil {
				res.err = fmt.Errorf("%w: %v", domain.ErrTaskPanicked, p)
				span.RecordError(res.err)
			}
		}()

		res.payload, res.err = r.task.Work.Run(ctx, &runContext{exec: e, id: r.task.ID})
		if res.err != nil {
			span.RecordError(res.err)
		}
		return res
	}()

	e.resultsCh <- res
}

func (e *Execution) handleResult(res result) {
	e.mu.Lock()
	e.active--
	r := e.runs[res.id]
	if r.state != domain.StateRunning {
		// Canceled while running; the outcome is already published.
		e.mu.Unlock()
		return
	}

	if res.err != nil {
		cause := zerr.With(fmt.Errorf("%w: %w", domain.ErrExecution, res.err), "task", res.id.String())
		e.finishLocked(r, domain.Failed(cause))
	} else {
		e.finishLocked(r, domain.Succeeded(res.payload))
	}
	e.mu.Unlock()

	e.drain()
}

// finishLocked moves r into the terminal state of outcome and queues its
// event. Terminal states are sticky, so it reports false for tasks that
// already finished.
func (e *Execution) finishLocked(r *taskRun, outcome domain.Outcome) bool {
	next := outcome.State()
	if !r.state.CanTransition(next) {
		return false
	}
	if r.cancel != nil {
		r.cancel()
	}

	r.state = next
	r.finished = e.s.now()
	r.payload = outcome.Payload
	r.cause = outcome.Cause

	e.queue = append(e.queue, domain.Event{
		TaskID:      r.task.ID,
		Description: r.task.Description,
		Outcome:     outcome,
		At:          r.finished,
	})
	return true
}

// drain delivers queued events one at a time. Only one goroutine delivers at
// a time; callers that find delivery in progress leave their events to it,
// which also makes it safe for listeners to cancel tasks.
func (e *Execution) drain() {
	for {
		if !e.deliverMu.TryLock() {
			return
		}
		for {
			evt, ok := e.dequeue()
			if !ok {
				break
			}
			e.deliver(evt)
		}
		e.deliverMu.Unlock()

		if !e.hasQueued() {
			return
		}
	}
}

func (e *Execution) dequeue() (domain.Event, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return domain.Event{}, false
	}
	evt := e.queue[0]
	e.queue = e.queue[1:]
	return evt, true
}

func (e *Execution) hasQueued() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue) > 0
}

func (e *Execution) deliver(evt domain.Event) {
	// runs is not modified after construction and names are fixed.
	e.observer.OnTaskComplete(e.runs[evt.TaskID].name, evt.At, evt.Outcome.State(), evt.Outcome.Cause)

	if err := e.bus.Publish(evt); err != nil {
		e.s.logger.Error(err)
	}

	e.afterDelivery(evt)
}

// afterDelivery releases or cascades the dependents of a task whose event
// has just been delivered, and counts the task down on the barrier.
func (e *Execution) afterDelivery(evt domain.Event) {
	var skipped []string

	e.mu.Lock()
	r := e.runs[evt.TaskID]
	for _, dep := range e.graph.Dependents(evt.TaskID) {
		d := e.runs[dep.ID]
		if evt.Outcome.Kind == domain.OutcomeCanceled {
			// Reaches running start dependents too; terminal ones are left alone.
			e.finishLocked(d, domain.Canceled())
			continue
		}
		if d.state != domain.StatePending {
			continue
		}

		switch {
		case dep.Kind == domain.StartDependency && r.ran:
			// Satisfied when r was admitted.
		case evt.Outcome.Kind == domain.OutcomeSucceeded:
			d.waitCompletion--
			e.promote(d)
		default:
			cause := zerr.With(fmt.Errorf("%w: %s", domain.ErrUpstreamFailure, evt.TaskID), "dependency", evt.TaskID.String())
			if e.finishLocked(d, domain.Failed(cause)) {
				skipped = append(skipped, dep.ID.String())
			}
		}
	}

	last := e.barrier.arrive()
	var report *domain.Report
	if last {
		report = e.buildReportLocked()
	}
	e.mu.Unlock()

	for _, id := range skipped {
		e.s.logger.Warn(fmt.Sprintf("skipping %s: upstream dependency %s failed", id, evt.TaskID))
	}
	if last {
		e.barrier.resolve(report)
	}
	e.wake()
}

func (e *Execution) buildReport() *domain.Report {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buildReportLocked()
}

func (e *Execution) buildReportLocked() *domain.Report {
	report := &domain.Report{
		ExecutionID: e.id,
		Started:     e.startedAt,
		Finished:    e.s.now(),
		Tasks:       make([]domain.TaskReport, 0, len(e.order)),
	}
	for _, r := range e.order {
		pct, _ := e.progress.Last(r.task.ID)
		report.Tasks = append(report.Tasks, domain.TaskReport{
			ID:          r.task.ID,
			Description: r.task.Description,
			State:       r.state,
			Cause:       r.cause,
			Progress:    pct,
			Ran:         r.ran,
			Started:     r.started,
			Finished:    r.finished,
		})
	}
	return report
}

// runContext is what a task sees of its execution.
type runContext struct {
	exec *Execution
	id   domain.TaskID
}

func (rc *runContext) TaskID() domain.TaskID {
	return rc.id
}

// Output only exposes the payloads of the task's completion dependencies.
func (rc *runContext) Output(id domain.TaskID) (any, bool) {
	rc.exec.mu.Lock()
	defer rc.exec.mu.Unlock()
	self := rc.exec.runs[rc.id]
	declared := slices.ContainsFunc(self.task.Dependencies, func(d domain.Dependency) bool {
		return d.ID == id && d.Kind == domain.CompletionDependency
	})
	if !declared {
		return nil, false
	}
	r, ok := rc.exec.runs[id]
	if !ok || r.state != domain.StateSucceeded {
		return nil, false
	}
	return r.payload, true
}

func (rc *runContext) Progress() domain.Progress {
	return rc.exec.progress.For(rc.id)
}
