//nolint:testpackage // Test needs access to unexported fields
package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vito/progrock"
	"go.trai.ch/drainage/internal/core/domain"
	"google.golang.org/protobuf/types/known/timestamppb"
)

type stubTape struct{}

func (stubTape) Read() (*progrock.StatusUpdate, error) {
	return nil, errors.New("no updates")
}

func planned(names ...string) *Model {
	m := NewModel(stubTape{})
	m.Update(MsgPlan{Tasks: names})
	return m
}

func TestModel_PlanCreatesPendingRows(t *testing.T) {
	m := planned("load", "merge", "clip")

	require.Len(t, m.rows, 3)
	for _, r := range m.rows {
		assert.Equal(t, statusPending, r.Status)
	}
	assert.Equal(t, "merge", m.rows[1].Name)
}

func TestModel_TapeUpdateStartsAndCompletes(t *testing.T) {
	m := planned("load")
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	_, cmd := m.Update(MsgTapeUpdate{Update: &progrock.StatusUpdate{
		Vertexes: []*progrock.Vertex{{Id: "v1", Name: "load", Started: timestamppb.New(start)}},
	}})
	assert.NotNil(t, cmd)
	assert.Equal(t, statusRunning, m.rows[0].Status)
	assert.Equal(t, "load", m.active)

	m.Update(MsgTapeUpdate{Update: &progrock.StatusUpdate{
		Vertexes: []*progrock.Vertex{{
			Id:        "v1",
			Name:      "load",
			Started:   timestamppb.New(start),
			Completed: timestamppb.New(start.Add(1500 * time.Millisecond)),
		}},
	}})
	assert.Equal(t, statusDone, m.rows[0].Status)
	assert.Equal(t, 1500*time.Millisecond, m.rows[0].Duration)
	assert.Equal(t, 100, m.rows[0].Percent)
}

func TestModel_UnplannedVertexIsAppended(t *testing.T) {
	m := planned("load")

	m.Update(MsgTapeUpdate{Update: &progrock.StatusUpdate{
		Vertexes: []*progrock.Vertex{{Id: "v2", Name: "extra", Started: timestamppb.Now()}},
	}})

	require.Len(t, m.rows, 2)
	assert.Equal(t, "extra", m.rows[1].Name)
}

func TestModel_Outcomes(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name string
		msg  MsgOutcome
		want status
	}{
		{"succeeded", MsgOutcome{Name: "t", State: domain.StateSucceeded}, statusDone},
		{"failed", MsgOutcome{Name: "t", State: domain.StateFailed, Err: boom, Ran: true}, statusFailed},
		{"skipped", MsgOutcome{Name: "t", State: domain.StateFailed, Err: boom}, statusSkipped},
		{"canceled", MsgOutcome{Name: "t", State: domain.StateCanceled}, statusCanceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := planned("t")
			m.Update(tt.msg)
			assert.Equal(t, tt.want, m.rows[0].Status)
		})
	}
}

func TestModel_LateTapeCompletionKeepsOutcome(t *testing.T) {
	m := planned("t")
	m.Update(MsgOutcome{Name: "t", State: domain.StateCanceled})

	m.Update(MsgTapeUpdate{Update: &progrock.StatusUpdate{
		Vertexes: []*progrock.Vertex{{Name: "t", Started: timestamppb.Now(), Completed: timestamppb.Now()}},
	}})

	assert.Equal(t, statusCanceled, m.rows[0].Status)
}

func TestModel_ProgressAndLogs(t *testing.T) {
	m := planned("fill")
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 20})

	m.Update(MsgProgress{Name: "fill", Percent: 40})
	m.Update(MsgLog{Name: "fill", Data: []byte("0...10...20...\n")})

	assert.Equal(t, 40, m.rows[0].Percent)
	assert.Equal(t, "fill", m.active)
	assert.Contains(t, m.rows[0].Logs.String(), "0...10")
	assert.Contains(t, m.logs.View(), "0...10")
}

func TestModel_QuitKeys(t *testing.T) {
	m := planned()

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_TapeEndedQuits(t *testing.T) {
	m := planned("t")

	_, cmd := m.Update(MsgTapeEnded{})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.ended)
}

func TestModel_View(t *testing.T) {
	m := planned("load", "merge", "clip", "fill")
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 20})
	m.Update(MsgTapeUpdate{Update: &progrock.StatusUpdate{
		Vertexes: []*progrock.Vertex{{Name: "merge", Started: timestamppb.Now()}},
	}})
	m.Update(MsgOutcome{Name: "load", State: domain.StateSucceeded})
	m.Update(MsgOutcome{Name: "clip", State: domain.StateFailed, Err: errors.New("upstream failed")})
	m.Update(MsgOutcome{Name: "fill", State: domain.StateFailed, Err: errors.New("exit status 1"), Ran: true})

	out := m.View()

	for _, want := range []string{"STAGES", "OUTPUT: merge", "✓ load", "merge", "⊘ clip", "✗ fill"} {
		assert.Contains(t, out, want)
	}
}

func TestModel_SummaryAfterTapeEnded(t *testing.T) {
	m := planned("load", "merge")
	m.Update(MsgOutcome{Name: "load", State: domain.StateFailed, Err: errors.New("layer not found"), Ran: true})
	m.Update(MsgOutcome{Name: "merge", State: domain.StateFailed, Err: errors.New("upstream failed")})
	m.Update(MsgTapeEnded{})

	lines := strings.Split(strings.TrimSpace(m.View()), "\n")

	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "✗ load: layer not found")
	assert.Contains(t, lines[1], "⊘ merge: upstream failed")
}
