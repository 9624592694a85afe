// Package detector chooses the output mode from the environment.
package detector

import (
	"os"

	"golang.org/x/term"
)

// OutputMode is the display used for a run.
type OutputMode int

const (
	// ModeAuto picks a mode from the environment.
	ModeAuto OutputMode = iota
	// ModeTUI is the interactive task list.
	ModeTUI
	// ModeLinear is prefixed, line-oriented output for logs and CI.
	ModeLinear
)

func (m OutputMode) String() string {
	switch m {
	case ModeTUI:
		return "tui"
	case ModeLinear:
		return "linear"
	default:
		return "auto"
	}
}

// DetectEnvironment returns ModeTUI when stdout is a terminal outside CI and
// ModeLinear otherwise.
func DetectEnvironment() OutputMode {
	return detect(term.IsTerminal(int(os.Stdout.Fd())), os.Getenv("CI"))
}

func detect(isTTY bool, ci string) OutputMode {
	if !isTTY || ci == "true" || ci == "1" {
		return ModeLinear
	}
	return ModeTUI
}

// ResolveMode applies the --output-mode flag to the detected mode. Unknown
// values fall back to detection.
func ResolveMode(detected OutputMode, flag string) OutputMode {
	switch flag {
	case "tui":
		return ModeTUI
	case "linear", "ci":
		return ModeLinear
	default:
		return detected
	}
}
