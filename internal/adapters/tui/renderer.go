// Package tui adapts the interactive terminal view to the renderer port.
package tui

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
	"go.trai.ch/drainage/internal/core/domain"
	"go.trai.ch/drainage/internal/tui"
)

// Renderer records task lifecycles on a progrock tape and drives the
// Bubble Tea program that displays it.
type Renderer struct {
	program *tea.Program
	feed    *tui.Feed
	rec     *progrock.Recorder
	errCh   chan error

	mu       sync.Mutex
	vertices map[string]*progrock.VertexRecorder
	stopped  bool
}

// NewRenderer creates a new TUI renderer.
func NewRenderer(opts ...tea.ProgramOption) *Renderer {
	feed := tui.NewFeed()
	return &Renderer{
		program:  tea.NewProgram(tui.NewModel(feed), opts...),
		feed:     feed,
		rec:      progrock.NewRecorder(feed),
		errCh:    make(chan error, 1),
		vertices: make(map[string]*progrock.VertexRecorder),
	}
}

// Start launches the TUI in a background goroutine.
func (r *Renderer) Start(_ context.Context) error {
	go func() {
		_, err := r.program.Run()
		r.errCh <- err
	}()
	return nil
}

// Stop closes the tape. The program renders its final frame and exits once
// every queued update has been read.
func (r *Renderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return nil
	}
	r.stopped = true
	return r.feed.Close()
}

// Wait blocks until the TUI has terminated.
func (r *Renderer) Wait() error {
	return <-r.errCh
}

// OnPlanEmit forwards the plan to the TUI.
func (r *Renderer) OnPlanEmit(tasks []string, deps map[string][]string) {
	r.program.Send(tui.MsgPlan{Tasks: tasks, Dependencies: deps})
}

// OnTaskStart opens a vertex for the task on the tape.
func (r *Renderer) OnTaskStart(name string, _ time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	r.vertices[name] = r.rec.Vertex(digest.FromString(name), name)
}

// OnTaskProgress forwards progress to the TUI.
func (r *Renderer) OnTaskProgress(name string, percent int) {
	r.program.Send(tui.MsgProgress{Name: name, Percent: percent})
}

// OnTaskLog forwards task output to the TUI.
func (r *Renderer) OnTaskLog(name string, data []byte) {
	r.program.Send(tui.MsgLog{Name: name, Data: append([]byte(nil), data...)})
}

// OnTaskComplete closes the task's vertex and forwards the terminal state.
func (r *Renderer) OnTaskComplete(name string, _ time.Time, state domain.State, err error) {
	r.mu.Lock()
	v, ran := r.vertices[name]
	delete(r.vertices, name)
	if ran && !r.stopped {
		v.Done(err)
	}
	r.mu.Unlock()

	r.program.Send(tui.MsgOutcome{Name: name, State: state, Err: err, Ran: ran})
}

// Program returns the underlying tea.Program for testing.
func (r *Renderer) Program() *tea.Program {
	return r.program
}
