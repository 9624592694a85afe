package tui_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/drainage/internal/adapters/tui"
	"go.trai.ch/drainage/internal/core/domain"
	"go.trai.ch/drainage/internal/core/ports"
)

var _ ports.Renderer = (*tui.Renderer)(nil)

func newHeadless() *tui.Renderer {
	return tui.NewRenderer(
		tea.WithInput(strings.NewReader("")),
		tea.WithOutput(io.Discard),
		tea.WithoutSignalHandler(),
		tea.WithoutRenderer(),
	)
}

func TestRenderer_Lifecycle(t *testing.T) {
	renderer := newHeadless()

	require.NoError(t, renderer.Start(context.Background()))
	require.NoError(t, renderer.Stop())
	require.NoError(t, renderer.Stop())
	assert.NoError(t, renderer.Wait())
}

func TestRenderer_FullExecution(t *testing.T) {
	renderer := newHeadless()
	require.NoError(t, renderer.Start(context.Background()))

	now := time.Now()
	renderer.OnPlanEmit([]string{"load", "merge", "clip"}, map[string][]string{"merge": {"load"}, "clip": {"merge"}})
	renderer.OnTaskStart("load", now)
	renderer.OnTaskProgress("load", 50)
	renderer.OnTaskLog("load", []byte("opening layer\n"))
	renderer.OnTaskComplete("load", now, domain.StateSucceeded, nil)
	renderer.OnTaskStart("merge", now)
	renderer.OnTaskComplete("merge", now, domain.StateFailed, errors.New("exit status 1"))
	renderer.OnTaskComplete("clip", now, domain.StateFailed, errors.New("upstream failed"))

	require.NoError(t, renderer.Stop())

	done := make(chan error, 1)
	go func() { done <- renderer.Wait() }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("renderer did not exit after the tape closed")
	}
}

func TestRenderer_EventsAfterStopAreIgnored(t *testing.T) {
	renderer := newHeadless()
	require.NoError(t, renderer.Start(context.Background()))
	require.NoError(t, renderer.Stop())
	require.NoError(t, renderer.Wait())

	// The program has exited; sends return immediately.
	renderer.OnTaskStart("late", time.Now())
	renderer.OnTaskComplete("late", time.Now(), domain.StateCanceled, nil)
	renderer.OnTaskProgress("late", 10)
}
