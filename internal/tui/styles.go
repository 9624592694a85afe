package tui

import (
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/drainage/internal/ui/style"
)

var (
	listStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(style.Slate).
			MarginRight(1).
			PaddingRight(1)

	logStyle = lipgloss.NewStyle().
			PaddingLeft(1)

	pendingStyle = lipgloss.NewStyle().
			Foreground(style.Slate)

	runningStyle = lipgloss.NewStyle().
			Foreground(style.Water).
			Bold(true)

	doneStyle = lipgloss.NewStyle().
			Foreground(style.Green)

	failedStyle = lipgloss.NewStyle().
			Foreground(style.Red)

	skippedStyle = lipgloss.NewStyle().
			Foreground(style.Amber)

	canceledStyle = lipgloss.NewStyle().
			Foreground(style.Slate).
			Faint(true)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Background(style.Water).
			Foreground(style.Mist)
)
