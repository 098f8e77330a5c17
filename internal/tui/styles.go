// Package tui renders pokedex records for terminals and hosts the
// interactive browse screen.
package tui

import "github.com/charmbracelet/lipgloss"

// Palette shared by every view.
const (
	ColorHeader    = lipgloss.Color("39")  // blue
	ColorLabel     = lipgloss.Color("245") // grey
	ColorValue     = lipgloss.Color("255") // white
	ColorMuted     = lipgloss.Color("241")
	ColorHighlight = lipgloss.Color("220") // yellow
	ColorOK        = lipgloss.Color("42")  // green
	ColorWarning   = lipgloss.Color("214") // orange
	ColorCritical  = lipgloss.Color("196") // red
	ColorBorder    = lipgloss.Color("62")
	ColorSpinner   = lipgloss.Color("205")
)

var (
	// HeaderStyle is used for section titles.
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorHeader)
	// TitleStyle is the record's name line.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorHighlight)
	// LabelStyle is the left column of key/value lines.
	LabelStyle = lipgloss.NewStyle().Foreground(ColorLabel)
	// ValueStyle is the right column of key/value lines.
	ValueStyle = lipgloss.NewStyle().Foreground(ColorValue)
	// SubtleStyle is for placeholders and hints.
	SubtleStyle = lipgloss.NewStyle().Foreground(ColorMuted).Italic(true)
	// InfoStyle is for neutral notices such as "no results".
	InfoStyle = lipgloss.NewStyle().Foreground(ColorHeader)
	// WarningStyle is for validation messages.
	WarningStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorWarning)
	// CriticalStyle is for communication failures.
	CriticalStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorCritical)
	// OKStyle tags hidden abilities and enabled controls.
	OKStyle = lipgloss.NewStyle().Foreground(ColorOK)
	// BoxStyle frames the record card.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	// TableHeaderStyle and TableSelectedStyle dress the moves table.
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorHeader).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(ColorBorder)
	TableSelectedStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorValue).
				Background(ColorBorder)
)
