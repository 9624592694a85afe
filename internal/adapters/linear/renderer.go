// Package linear renders task events as prefixed lines for CI logs and pipes.
package linear

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/drainage/internal/core/domain"
	"go.trai.ch/drainage/internal/ui/output"
	"go.trai.ch/drainage/internal/ui/style"
)

// progressStep is the granularity of progress lines.
const progressStep = 25

// Renderer implements ports.Renderer with synchronous, chronological output.
// Task output goes to stdout; lifecycle lines go to stderr.
type Renderer struct {
	stdout io.Writer
	stderr io.Writer
	output *termenv.Output

	mu    sync.Mutex
	tasks map[string]*taskState
}

type taskState struct {
	started  time.Time
	buffer   bytes.Buffer
	reported int
}

// NewRenderer creates a Renderer. Nil writers mean stdout and stderr.
func NewRenderer(stdout, stderr io.Writer) *Renderer {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return &Renderer{
		stdout: stdout,
		stderr: stderr,
		output: output.NewWithProfile(stderr, output.ColorProfileANSI),
		tasks:  make(map[string]*taskState),
	}
}

// Start does nothing; the renderer is synchronous.
func (r *Renderer) Start(_ context.Context) error {
	return nil
}

// Stop flushes partial output lines.
func (r *Renderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, t := range r.tasks {
		r.flushLocked(name, t)
	}
	return nil
}

// Wait does nothing; the renderer is synchronous.
func (r *Renderer) Wait() error {
	return nil
}

// OnPlanEmit prints the number of planned stages.
func (r *Renderer) OnPlanEmit(tasks []string, _ map[string][]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprintf(r.stderr, "Planning %d stage(s)\n", len(tasks))
}

// OnTaskStart prints a start line.
func (r *Renderer) OnTaskStart(name string, startTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tasks[name] = &taskState{started: startTime}
	_, _ = fmt.Fprintf(r.stderr, "%s Starting...\n", r.prefix(name))
}

// OnTaskProgress prints a line each time progress crosses a step.
func (r *Renderer) OnTaskProgress(name string, percent int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[name]
	if !ok {
		return
	}
	step := percent / progressStep * progressStep
	if step <= t.reported || step >= 100 {
		return
	}
	t.reported = step
	_, _ = fmt.Fprintf(r.stderr, "%s %d%%\n", r.prefix(name), step)
}

// OnTaskLog prints complete lines of task output with the task prefix.
func (r *Renderer) OnTaskLog(name string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[name]
	if !ok {
		return
	}
	t.buffer.Write(data)
	for {
		i := bytes.IndexByte(t.buffer.Bytes(), '\n')
		if i < 0 {
			return
		}
		line := t.buffer.Next(i + 1)
		r.printLineLocked(name, line)
	}
}

// OnTaskComplete prints the outcome. Tasks that never started are reported
// as skipped.
func (r *Renderer) OnTaskComplete(name string, endTime time.Time, state domain.State, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var elapsed time.Duration
	t, ran := r.tasks[name]
	if ran {
		r.flushLocked(name, t)
		delete(r.tasks, name)
		elapsed = endTime.Sub(t.started).Round(time.Millisecond)
	}

	prefix := r.prefix(name)
	switch {
	case state == domain.StateSucceeded:
		symbol := r.output.String(style.Check).Foreground(termenv.ANSIGreen).String()
		_, _ = fmt.Fprintf(r.stderr, "%s %s Completed in %v\n", prefix, symbol, elapsed)
	case state == domain.StateFailed && ran:
		symbol := r.output.String(style.Cross).Foreground(termenv.ANSIRed).String()
		_, _ = fmt.Fprintf(r.stderr, "%s %s Failed after %v: %v\n", prefix, symbol, elapsed, err)
	case state == domain.StateFailed:
		symbol := r.output.String(style.Skip).Foreground(termenv.ANSIRed).String()
		_, _ = fmt.Fprintf(r.stderr, "%s %s Skipped: %v\n", prefix, symbol, err)
	default:
		symbol := r.output.String(style.Skip).Foreground(termenv.ANSIYellow).String()
		_, _ = fmt.Fprintf(r.stderr, "%s %s Canceled\n", prefix, symbol)
	}
}

func (r *Renderer) prefix(name string) string {
	return r.output.String("[" + name + "]").Faint().String()
}

// flushLocked prints a trailing partial line. Must be called with r.mu held.
func (r *Renderer) flushLocked(name string, t *taskState) {
	if t.buffer.Len() > 0 {
		r.printLineLocked(name, t.buffer.Bytes())
		t.buffer.Reset()
	}
}

// printLineLocked must be called with r.mu held.
func (r *Renderer) printLineLocked(name string, line []byte) {
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	if len(line) == 0 {
		return
	}
	_, _ = fmt.Fprintf(r.stdout, "[%s] %s\n", name, line)
}
