// Package style holds the colours and glyphs shared by the terminal sinks and
// the log handler.
package style

import "github.com/charmbracelet/lipgloss"

// Palette.
var (
	Water  = lipgloss.Color("#2F80ED")
	Slate  = lipgloss.Color("#667085")
	Mist   = lipgloss.Color("#F6F7FB")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Amber  = lipgloss.Color("#F59E0B")
	Violet = lipgloss.Color("#8B5CF6")
)

// Glyphs.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Skip    = "⊘"
	Arrow   = "→"
	Dot     = "●"
	Circle  = "○"
)
