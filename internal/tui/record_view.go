package tui

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rshade/pokedex/internal/engine"
)

// Placeholders for empty attribute sets.
const (
	NoMovesText     = "No moves available"
	NoStatsText     = "No stats available"
	NoAbilitiesText = "No abilities available"

	// CommunicationErrorText replaces raw detail for server and transport failures.
	CommunicationErrorText = "There was a problem communicating with the server."

	borderPadding = 2
	statBarWidth  = 20
	maxBaseStat   = 255
)

var (
	titleCaser = cases.Title(language.English)
	printer    = message.NewPrinter(language.English)
)

// RenderOptions controls RenderRecord.
type RenderOptions struct {
	// Styled enables lipgloss colours and the card border.
	Styled bool
	// ShowMoves expands the moves section; otherwise only a count is shown.
	ShowMoves bool
	// MovesBody replaces the expanded moves listing, e.g. with a table view.
	MovesBody string
	// Width is the card width for styled output. Zero means 80.
	Width int
}

// DisplayName turns an API name such as "lightning-rod" into "Lightning Rod".
func DisplayName(name string) string {
	return titleCaser.String(strings.ReplaceAll(strings.TrimSpace(name), "-", " "))
}

// FormatHeight renders decimetres as metres.
func FormatHeight(dm int) string {
	return printer.Sprintf("%.1f m", float64(dm)/10)
}

// FormatWeight renders decigrams as kilograms, with thousands separators.
func FormatWeight(dg int) string {
	return printer.Sprintf("%.1f kg", float64(dg)/10)
}

func optionalInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

// RenderRecord draws one AggregatedRecord. Empty attribute sets are shown
// with an explicit placeholder rather than omitted.
func RenderRecord(rec engine.AggregatedRecord, opts RenderOptions) string {
	style := func(s lipgloss.Style, text string) string {
		if opts.Styled {
			return s.Render(text)
		}
		return text
	}

	var content strings.Builder

	content.WriteString(style(TitleStyle, fmt.Sprintf("%s (#%d)", DisplayName(rec.Name), rec.ID)))
	content.WriteString("\n\n")

	writeField := func(label, value string) {
		content.WriteString(style(LabelStyle, fmt.Sprintf("%-8s", label+":")))
		content.WriteString(" ")
		content.WriteString(style(ValueStyle, value))
		content.WriteString("\n")
	}
	writeField("Type", strings.ToUpper(rec.PrimaryType))
	writeField("Height", FormatHeight(rec.HeightDecimetres))
	writeField("Weight", FormatWeight(rec.WeightDecigrams))
	if rec.SpriteURL != "" {
		writeField("Sprite", rec.SpriteURL)
	}

	content.WriteString("\n")
	content.WriteString(style(HeaderStyle, "STATS"))
	content.WriteString("\n")
	if len(rec.Stats) == 0 {
		content.WriteString("  " + style(SubtleStyle, NoStatsText) + "\n")
	}
	for _, s := range rec.Stats {
		name := strings.ToUpper(strings.ReplaceAll(s.Name, "-", " "))
		line := fmt.Sprintf("  %-16s %3d", name, s.BaseValue)
		if opts.Styled {
			line += " " + style(OKStyle, statBar(s.BaseValue))
		}
		content.WriteString(line + "\n")
	}

	content.WriteString("\n")
	content.WriteString(style(HeaderStyle, "ABILITIES"))
	content.WriteString("\n")
	if len(rec.Abilities) == 0 {
		content.WriteString("  " + style(SubtleStyle, NoAbilitiesText) + "\n")
	}
	for _, a := range rec.Abilities {
		content.WriteString("  " + DisplayName(a.Name))
		if a.IsHidden {
			content.WriteString(" " + style(SubtleStyle, "(hidden)"))
		}
		content.WriteString("\n")
	}

	content.WriteString("\n")
	content.WriteString(style(HeaderStyle, fmt.Sprintf("MOVES (%d)", len(rec.Moves))))
	content.WriteString("\n")
	switch {
	case len(rec.Moves) == 0:
		content.WriteString("  " + style(SubtleStyle, NoMovesText) + "\n")
	case opts.ShowMoves && opts.MovesBody != "":
		content.WriteString(opts.MovesBody + "\n")
	case opts.ShowMoves:
		content.WriteString(renderMovesText(rec.Moves))
	default:
		content.WriteString("  " + style(SubtleStyle, fmt.Sprintf("Show moves (%d)", len(rec.Moves))) + "\n")
	}

	out := strings.TrimRight(content.String(), "\n")
	if !opts.Styled {
		return out + "\n"
	}
	width := opts.Width
	if width <= 0 {
		width = defaultTerminalWidth
	}
	return BoxStyle.Width(width-borderPadding).Render(out) + "\n"
}

func renderMovesText(moves []engine.MoveEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  %-4s %-20s %-10s %4s %6s %5s\n", "Lv", "Move", "Type", "PP", "Power", "Acc")
	for _, m := range moves {
		fmt.Fprintf(&b, "  %-4d %-20s %-10s %4d %6s %5s\n",
			m.Level, DisplayName(m.Name), m.MoveType, m.PowerPoints, optionalInt(m.Power), optionalInt(m.Accuracy))
	}
	return b.String()
}

func statBar(value int) string {
	n := value * statBarWidth / maxBaseStat
	n = max(0, min(n, statBarWidth))
	if value > 0 && n == 0 {
		n = 1
	}
	return strings.Repeat("█", n)
}

// FailureTier is the user-facing class of a lookup failure.
type FailureTier int

const (
	// TierNone means err carried nothing to show.
	TierNone FailureTier = iota
	// TierAttention shows the backend's validation message.
	TierAttention
	// TierNoResults shows the backend's not-found message.
	TierNoResults
	// TierCommunication hides the raw detail behind a generic message.
	TierCommunication
)

// FailureMessage maps err to the text shown to the user. Only validation and
// not-found failures show the backend's message; everything else is
// reported generically.
func FailureMessage(err error) (string, FailureTier) {
	if err == nil || engine.IsRejected(err) {
		return "", TierNone
	}
	f, ok := engine.AsFailure(err)
	if !ok {
		return CommunicationErrorText, TierCommunication
	}
	switch f.Kind {
	case engine.FailureValidation:
		return "Attention: " + f.Message, TierAttention
	case engine.FailureNotFound:
		return "No results: " + f.Message, TierNoResults
	case engine.FailureServer, engine.FailureTransport:
		return CommunicationErrorText, TierCommunication
	default:
		return CommunicationErrorText, TierCommunication
	}
}

// RenderFailure draws the failure line, coloured by tier when styled.
func RenderFailure(err error, styled bool) string {
	msg, tier := FailureMessage(err)
	if msg == "" {
		return ""
	}
	if !styled {
		return msg + "\n"
	}
	switch tier {
	case TierAttention:
		return WarningStyle.Render(msg) + "\n"
	case TierNoResults:
		return InfoStyle.Render(msg) + "\n"
	case TierNone, TierCommunication:
		return CriticalStyle.Render(msg) + "\n"
	}
	return msg + "\n"
}

// failureJSON is the machine-readable shape of a primary failure.
type failureJSON struct {
	Error struct {
		Kind    string `json:"kind"`
		Status  int    `json:"status,omitempty"`
		Message string `json:"message"`
	} `json:"error"`
}

// WriteRecordJSON encodes rec with snake_case keys.
func WriteRecordJSON(w io.Writer, rec engine.AggregatedRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	return nil
}

// WriteFailureJSON encodes a primary failure. The message follows the same
// suppression rules as FailureMessage.
func WriteFailureJSON(w io.Writer, err error) error {
	var out failureJSON
	msg, _ := FailureMessage(err)
	out.Error.Message = msg
	out.Error.Kind = engine.FailureTransport.String()
	if f, ok := engine.AsFailure(err); ok {
		out.Error.Kind = f.Kind.String()
		out.Error.Status = f.Status
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(out); encErr != nil {
		return fmt.Errorf("encoding failure: %w", encErr)
	}
	return nil
}
