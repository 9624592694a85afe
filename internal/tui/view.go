package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/drainage/internal/ui/style"
)

// View renders the task list next to the output of the active task.
func (m *Model) View() string {
	if m.ended {
		return m.summary()
	}
	if m.logs.Height == 0 {
		return m.taskList()
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.taskList(), m.logPane())
}

func (m *Model) taskList() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("STAGES") + "\n\n")

	rows := m.rows
	// Keep the newest rows visible on short terminals.
	if limit := m.height - 2; limit > 0 && len(rows) > limit {
		rows = rows[len(rows)-limit:]
	}
	for _, r := range rows {
		s.WriteString(m.line(r) + "\n")
	}
	return listStyle.Render(s.String())
}

func (m *Model) line(r *row) string {
	switch r.Status {
	case statusRunning:
		return fmt.Sprintf("%s %s %s %3d%%", m.spinner.View(), runningStyle.Render(r.Name),
			m.bar.ViewAs(float64(r.Percent)/100), r.Percent)
	case statusDone:
		return doneStyle.Render(fmt.Sprintf("%s %s", style.Check, r.Name)) + " " +
			pendingStyle.Render(formatDuration(r.Duration))
	case statusFailed:
		return failedStyle.Render(fmt.Sprintf("%s %s", style.Cross, r.Name))
	case statusSkipped:
		return skippedStyle.Render(fmt.Sprintf("%s %s", style.Skip, r.Name))
	case statusCanceled:
		return canceledStyle.Render(fmt.Sprintf("%s %s", style.Skip, r.Name))
	default:
		return pendingStyle.Render(fmt.Sprintf("%s %s", style.Circle, r.Name))
	}
}

func (m *Model) logPane() string {
	header := titleStyle.Render("OUTPUT")
	if m.active != "" {
		header = titleStyle.Render("OUTPUT: " + m.active)
	}
	return logStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, m.logs.View()))
}

// summary is the final frame left on screen once the tape has ended.
func (m *Model) summary() string {
	var s strings.Builder
	for _, r := range m.rows {
		s.WriteString(m.line(r))
		if r.Err != "" && r.Status != statusDone {
			s.WriteString(pendingStyle.Render(": " + r.Err))
		}
		s.WriteString("\n")
	}
	return s.String()
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	return d.Round(time.Millisecond).String()
}
