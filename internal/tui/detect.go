package tui

import (
	"os"

	"golang.org/x/term"
)

// OutputMode selects how records are drawn.
type OutputMode int

const (
	// OutputModePlain is text without ANSI sequences, for pipes and files.
	OutputModePlain OutputMode = iota
	// OutputModeStyled is lipgloss-rendered output on a terminal.
	OutputModeStyled
	// OutputModeInteractive allows the full-screen browse program.
	OutputModeInteractive
)

// String returns the lowercase name of the mode.
func (m OutputMode) String() string {
	switch m {
	case OutputModeStyled:
		return "styled"
	case OutputModeInteractive:
		return "interactive"
	default:
		return "plain"
	}
}

const defaultTerminalWidth = 80

// isTerminal is swapped in tests.
var isTerminal = func(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// IsTTY reports whether stdout is a terminal.
func IsTTY() bool {
	return isTerminal(os.Stdout)
}

// DetectOutputMode picks a mode from the environment. plain and noColor
// force plain text; forceColor yields styled output even on a pipe.
// Interactive requires both stdin and stdout to be terminals and CI unset.
func DetectOutputMode(forceColor, noColor, plain bool) OutputMode {
	if plain || noColor || os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return OutputModePlain
	}
	if !IsTTY() {
		if forceColor {
			return OutputModeStyled
		}
		return OutputModePlain
	}
	if os.Getenv("CI") != "" || !isTerminal(os.Stdin) {
		return OutputModeStyled
	}
	return OutputModeInteractive
}

// TerminalWidth returns the width of stdout, or 80 when unknown.
func TerminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return defaultTerminalWidth
	}
	return w
}
