package engine

import (
	"sync"

	"go.trai.ch/drainage/internal/core/ports"
)

// progressWriter parses the "0...10...20..." progress dialect that
// qgis_process prints while an algorithm runs.
type progressWriter struct {
	mu     sync.Mutex
	report ports.ProgressFunc
	value  int
	digits int
	dots   int
}

func newProgressWriter(report ports.ProgressFunc) *progressWriter {
	return &progressWriter{report: report}
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, b := range p {
		switch {
		case b >= '0' && b <= '9':
			if w.dots > 0 {
				w.reset()
			}
			w.value = w.value*10 + int(b-'0')
			w.digits++
		case b == '.' && w.digits > 0:
			w.dots++
			if w.dots == 3 {
				w.emit(w.value)
				w.reset()
			}
		default:
			w.reset()
		}
	}
	return len(p), nil
}

func (w *progressWriter) emit(percent int) {
	if w.report == nil || percent > 100 {
		return
	}
	w.report(float64(percent))
}

func (w *progressWriter) reset() {
	w.value = 0
	w.digits = 0
	w.dots = 0
}
