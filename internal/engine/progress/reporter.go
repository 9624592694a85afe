// Package progress forwards per-task completion percentages to a display sink.
package progress

import (
	"sync"

	"go.trai.ch/drainage/internal/core/domain"
)

// Sink receives clamped percentages keyed by task label.
type Sink interface {
	OnTaskProgress(name string, percent int)
}

// Clamp bounds percent to [0, 100].
func Clamp(percent int) int {
	return min(max(percent, 0), 100)
}

// Reporter keeps the last reported value per task and forwards updates to
// its sink. A nil sink only records.
type Reporter struct {
	sink Sink

	mu     sync.Mutex
	labels map[domain.TaskID]string
	last   map[domain.TaskID]int
}

// NewReporter creates a Reporter forwarding to sink.
func NewReporter(sink Sink) *Reporter {
	return &Reporter{
		sink:   sink,
		labels: make(map[domain.TaskID]string),
		last:   make(map[domain.TaskID]int),
	}
}

// Register associates id with the label used as the sink key.
func (r *Reporter) Register(id domain.TaskID, label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.labels[id] = label
}

// Report records percent for id. Out-of-range values are clamped.
func (r *Reporter) Report(id domain.TaskID, percent int) {
	percent = Clamp(percent)

	r.mu.Lock()
	r.last[id] = percent
	label, ok := r.labels[id]
	r.mu.Unlock()

	if !ok {
		label = id.String()
	}
	if r.sink != nil {
		r.sink.OnTaskProgress(label, percent)
	}
}

// Last returns the most recent value reported for id.
func (r *Reporter) Last(id domain.TaskID) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.last[id]
	return v, ok
}

// For returns the handle a task uses to report its own progress.
func (r *Reporter) For(id domain.TaskID) domain.Progress {
	return taskProgress{r: r, id: id}
}

type taskProgress struct {
	r  *Reporter
	id domain.TaskID
}

func (p taskProgress) Report(percent int) {
	p.r.Report(p.id, percent)
}
