package scheduler

import (
	"context"
	"sync"

	"go.trai.ch/drainage/internal/core/domain"
)

// Barrier is a count-down latch over the tasks of one execution. It resolves
// once every task has reached a terminal state and its event was delivered.
type Barrier struct {
	mu        sync.Mutex
	remaining int
	done      chan struct{}
	report    *domain.Report
	err       error
}

func newBarrier(n int) *Barrier {
	return &Barrier{remaining: n, done: make(chan struct{})}
}

// arrive counts one task down and reports whether it was the last.
func (b *Barrier) arrive() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.remaining == 0 {
		return false
	}
	b.remaining--
	return b.remaining == 0
}

func (b *Barrier) resolve(report *domain.Report) {
	b.mu.Lock()
	defer b.mu.Unlock()
	select {
	case <-b.done:
		return
	default:
	}
	b.report = report
	b.err = report.Err()
	close(b.done)
}

// Remaining is the number of tasks that have not yet been accounted for.
func (b *Barrier) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.remaining
}

// Done is closed when the barrier resolves.
func (b *Barrier) Done() <-chan struct{} {
	return b.done
}

// Wait blocks until the barrier resolves or ctx is done. Once resolved it
// returns the same report and error on every call.
func (b *Barrier) Wait(ctx context.Context) (*domain.Report, error) {
	select {
	case <-b.done:
	default:
		select {
		case <-b.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.report, b.err
}
