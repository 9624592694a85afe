// Package bus announces terminal task outcomes to interested listeners.
package bus

import (
	"sync"

	"go.trai.ch/drainage/internal/core/domain"
	"go.trai.ch/zerr"
)

// ErrAlreadyPublished is returned when a second event is published for the same task.
var ErrAlreadyPublished = zerr.New("terminal event already published")

// Listener handles one terminal event. Listeners run on the publishing
// goroutine, one at a time, and must not call Publish.
type Listener func(domain.Event)

type entry struct {
	id       int
	listener Listener
}

// Bus is an in-process publish/subscribe channel for terminal events. Each
// task gets at most one event; events are delivered in publish order.
type Bus struct {
	mu        sync.Mutex
	byTask    map[domain.TaskID][]entry
	all       []entry
	nextID    int
	published map[domain.TaskID]struct{}

	deliverMu sync.Mutex
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{
		byTask:    make(map[domain.TaskID][]entry),
		published: make(map[domain.TaskID]struct{}),
	}
}

// Subscribe registers listener for the terminal event of id.
// The returned function unsubscribes it.
func (b *Bus) Subscribe(id domain.TaskID, listener Listener) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	eid := b.nextID
	b.byTask[id] = append(b.byTask[id], entry{id: eid, listener: listener})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		filtered := remove(b.byTask[id], eid)
		if len(filtered) == 0 {
			delete(b.byTask, id)
		} else {
			b.byTask[id] = filtered
		}
	}
}

// SubscribeAll registers listener for every task's terminal event.
func (b *Bus) SubscribeAll(listener Listener) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	eid := b.nextID
	b.all = append(b.all, entry{id: eid, listener: listener})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.all = remove(b.all, eid)
	}
}

func remove(entries []entry, id int) []entry {
	out := make([]entry, 0, len(entries))
	for _, e := range entries {
		if e.id != id {
			out = append(out, e)
		}
	}
	return out
}

// Publish delivers evt to the listeners of its task, then to the catch-all
// listeners, in subscription order. It returns ErrAlreadyPublished when the
// task already has an event.
func (b *Bus) Publish(evt domain.Event) error {
	b.deliverMu.Lock()
	defer b.deliverMu.Unlock()

	b.mu.Lock()
	if _, dup := b.published[evt.TaskID]; dup {
		b.mu.Unlock()
		return zerr.With(zerr.Wrap(ErrAlreadyPublished, "publish"), "task", evt.TaskID.String())
	}
	b.published[evt.TaskID] = struct{}{}

	// Collect listeners to invoke outside the lock so they may subscribe or
	// unsubscribe.
	targets := make([]Listener, 0, len(b.byTask[evt.TaskID])+len(b.all))
	for _, e := range b.byTask[evt.TaskID] {
		targets = append(targets, e.listener)
	}
	for _, e := range b.all {
		targets = append(targets, e.listener)
	}
	b.mu.Unlock()

	for _, l := range targets {
		l(evt)
	}
	return nil
}

// Published reports whether a terminal event for id has been published.
func (b *Bus) Published(id domain.TaskID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.published[id]
	return ok
}
