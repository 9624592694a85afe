// Package tui provides the interactive terminal view of a running pipeline.
package tui

import (
	"errors"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/vito/progrock"
)

// TapeSource is an interface for reading progrock updates.
// *progrock.Tape does not implement Read(), so Feed provides one.
type TapeSource interface {
	Read() (*progrock.StatusUpdate, error)
}

// WaitForTape returns a Bubble Tea command that reads the next update from the tape.
// It returns MsgTapeUpdate on success or MsgTapeEnded on EOF or error.
func WaitForTape(tape TapeSource) tea.Cmd {
	return func() tea.Msg {
		update, err := tape.Read()
		if err != nil {
			return MsgTapeEnded{}
		}
		return MsgTapeUpdate{Update: update}
	}
}

const feedBuffer = 256

// Feed is a progrock.Writer whose updates can be read back in order.
// Writes never block the recorder: when the reader falls behind, pending
// updates are merged into the newest queued one.
type Feed struct {
	mu      sync.Mutex
	pending []*progrock.StatusUpdate
	notify  chan struct{}
	closed  bool
}

// NewFeed creates an empty Feed.
func NewFeed() *Feed {
	return &Feed{notify: make(chan struct{}, 1)}
}

// WriteStatus queues an update.
func (f *Feed) WriteStatus(update *progrock.StatusUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errFeedClosed
	}
	if n := len(f.pending); n >= feedBuffer {
		last := f.pending[n-1]
		last.Vertexes = append(last.Vertexes, update.Vertexes...)
	} else {
		f.pending = append(f.pending, update)
	}
	f.signal()
	return nil
}

// Close ends the feed. Read drains queued updates before returning io.EOF.
func (f *Feed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		f.signal()
	}
	return nil
}

// Read blocks until an update is queued or the feed is closed.
func (f *Feed) Read() (*progrock.StatusUpdate, error) {
	for {
		f.mu.Lock()
		if len(f.pending) > 0 {
			update := f.pending[0]
			f.pending[0] = nil
			f.pending = f.pending[1:]
			if len(f.pending) > 0 || f.closed {
				f.signal()
			}
			f.mu.Unlock()
			return update, nil
		}
		if f.closed {
			f.signal()
			f.mu.Unlock()
			return nil, io.EOF
		}
		f.mu.Unlock()
		<-f.notify
	}
}

func (f *Feed) signal() {
	select {
	case f.notify <- struct{}{}:
	default:
	}
}

var errFeedClosed = errors.New("tape feed closed")
