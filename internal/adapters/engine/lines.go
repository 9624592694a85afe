package engine

import (
	"bytes"
	"io"
	"strings"
	"sync"
)

// tailWriter forwards writes to an optional sink and keeps the last lines
// so failures can carry the engine's own message.
type tailWriter struct {
	mu    sync.Mutex
	sink  io.Writer
	lines []string
	max   int
	part  bytes.Buffer
}

func newTailWriter(sink io.Writer, maxLines int) *tailWriter {
	return &tailWriter{sink: sink, max: maxLines}
}

func (w *tailWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.sink != nil {
		_, _ = w.sink.Write(p)
	}
	w.part.Write(p)
	for {
		line, err := w.part.ReadString('\n')
		if err != nil {
			// Incomplete line: keep it for the next write.
			w.part.Reset()
			w.part.WriteString(line)
			break
		}
		w.push(strings.TrimRight(line, "\r\n"))
	}
	return len(p), nil
}

func (w *tailWriter) push(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	w.lines = append(w.lines, line)
	if len(w.lines) > w.max {
		w.lines = w.lines[len(w.lines)-w.max:]
	}
}

// Tail returns the retained lines, including a trailing partial line.
func (w *tailWriter) Tail() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	lines := w.lines
	if rest := strings.TrimSpace(w.part.String()); rest != "" {
		lines = append(append([]string{}, lines...), rest)
	}
	return strings.Join(lines, "\n")
}
