package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rshade/pokedex/internal/engine"
)

const (
	browseDefaultWidth  = 80
	browseDefaultHeight = 30
	movesTableHeight    = 10
	inputCharLimit      = 64
)

// lookupDoneMsg carries the outcome of one Fetch.Run back to Update.
type lookupDoneMsg struct {
	record engine.AggregatedRecord
	err    error
}

// BrowseKeyMap lists the browse screen bindings.
type BrowseKeyMap struct {
	Submit     key.Binding
	Prev       key.Binding
	Next       key.Binding
	PrevAlways key.Binding
	NextAlways key.Binding
	Focus      key.Binding
	Moves      key.Binding
	Quit       key.Binding
	ForceQuit  key.Binding
}

// DefaultBrowseKeyMap returns the default bindings.
func DefaultBrowseKeyMap() BrowseKeyMap {
	return BrowseKeyMap{
		Submit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search")),
		Prev:       key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "prev")),
		Next:       key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "next")),
		PrevAlways: key.NewBinding(key.WithKeys("ctrl+left")),
		NextAlways: key.NewBinding(key.WithKeys("ctrl+right")),
		Focus:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "focus input")),
		Moves:      key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "toggle moves")),
		Quit:       key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		ForceQuit:  key.NewBinding(key.WithKeys("ctrl+c")),
	}
}

// BrowseModel is the interactive lookup screen. Update is the only place
// lookups are admitted; the network work runs in a tea.Cmd.
type BrowseModel struct {
	ctx context.Context
	agg *engine.Aggregator
	nav *engine.Navigator

	input   textinput.Model
	moves   table.Model
	loading *LoadingState
	keys    BrowseKeyMap

	record    *engine.AggregatedRecord
	err       error
	showMoves bool
	initial   string

	width    int
	height   int
	quitting bool
}

// NewBrowseModel creates the browse screen. A non-empty initialQuery is
// looked up as soon as the program starts.
func NewBrowseModel(
	ctx context.Context,
	agg *engine.Aggregator,
	nav *engine.Navigator,
	initialQuery string,
) *BrowseModel {
	ti := textinput.New()
	ti.Placeholder = "Name or number"
	ti.Prompt = "Search: "
	ti.CharLimit = inputCharLimit
	ti.Focus()

	return &BrowseModel{
		ctx:     ctx,
		agg:     agg,
		nav:     nav,
		input:   ti,
		moves:   NewMovesTable(nil, movesTableHeight),
		loading: NewLoadingState("Searching..."),
		keys:    DefaultBrowseKeyMap(),
		initial: strings.TrimSpace(initialQuery),
		width:   browseDefaultWidth,
		height:  browseDefaultHeight,
	}
}

// NewMovesTable builds the moves table used when the moves section is expanded.
func NewMovesTable(moves []engine.MoveEntry, height int) table.Model {
	columns := []table.Column{
		{Title: "Lv", Width: 4},    //nolint:mnd // Column width.
		{Title: "Move", Width: 20}, //nolint:mnd // Column width.
		{Title: "Type", Width: 10}, //nolint:mnd // Column width.
		{Title: "PP", Width: 4},    //nolint:mnd // Column width.
		{Title: "Power", Width: 6}, //nolint:mnd // Column width.
		{Title: "Acc", Width: 5},   //nolint:mnd // Column width.
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(movesRows(moves)),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = TableHeaderStyle
	s.Selected = TableSelectedStyle
	t.SetStyles(s)

	return t
}

func movesRows(moves []engine.MoveEntry) []table.Row {
	rows := make([]table.Row, len(moves))
	for i, m := range moves {
		rows[i] = table.Row{
			strconv.Itoa(m.Level),
			DisplayName(m.Name),
			m.MoveType,
			strconv.Itoa(m.PowerPoints),
			optionalInt(m.Power),
			optionalInt(m.Accuracy),
		}
	}
	return rows
}

// Init starts the cursor blink and the initial lookup, if any.
func (m *BrowseModel) Init() tea.Cmd {
	if m.initial == "" {
		return textinput.Blink
	}
	m.input.SetValue(m.initial)
	return tea.Batch(textinput.Blink, m.startLookup(m.initial))
}

// Update handles messages and updates the model state.
func (m *BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if !m.nav.Snapshot().IsLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.loading.spinner, cmd = m.loading.spinner.Update(msg)
		return m, cmd

	case lookupDoneMsg:
		return m.handleLookupDone(msg)

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *BrowseModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		m.quitting = true
		return m, tea.Quit
	}

	// Input and controls are disabled while a lookup is in flight.
	if m.nav.Snapshot().IsLoading {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.PrevAlways):
		return m, m.navigate(m.nav.PrevQuery)
	case key.Matches(msg, m.keys.NextAlways):
		return m, m.navigate(m.nav.NextQuery)
	case key.Matches(msg, m.keys.Focus):
		if m.input.Focused() {
			m.input.Blur()
			return m, nil
		}
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Submit) && m.input.Focused():
		return m, m.startLookup(m.input.Value())
	}

	if m.input.Focused() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Prev):
		return m, m.navigate(m.nav.PrevQuery)
	case key.Matches(msg, m.keys.Next):
		return m, m.navigate(m.nav.NextQuery)
	case key.Matches(msg, m.keys.Moves):
		if m.record != nil && len(m.record.Moves) > 0 {
			m.showMoves = !m.showMoves
		}
		return m, nil
	}

	if m.showMoves {
		var cmd tea.Cmd
		m.moves, cmd = m.moves.Update(msg)
		return m, cmd
	}
	return m, nil
}

// navigate issues a lookup for the neighbouring id when the control is enabled.
func (m *BrowseModel) navigate(query func() (string, bool)) tea.Cmd {
	q, ok := query()
	if !ok {
		return nil
	}
	m.input.SetValue(q)
	return m.startLookup(q)
}

// startLookup admits a lookup through the Aggregator guard. Loading is set
// before this returns, so the next View already shows it.
func (m *BrowseModel) startLookup(query string) tea.Cmd {
	fetch, err := m.agg.Begin(query, m.nav)
	if err != nil {
		return nil
	}
	m.err = nil
	m.loading.SetMessage(fmt.Sprintf("Searching %q...", fetch.Query()))

	ctx := m.ctx
	run := func() tea.Msg {
		rec, err := fetch.Run(ctx)
		return lookupDoneMsg{record: rec, err: err}
	}
	return tea.Batch(m.loading.spinner.Tick, run)
}

func (m *BrowseModel) handleLookupDone(msg lookupDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.record = nil
		m.err = msg.err
		m.showMoves = false
		return m, nil
	}

	rec := msg.record
	m.record = &rec
	m.err = nil
	m.moves.SetRows(movesRows(rec.Moves))
	m.moves.GotoTop()
	if len(rec.Moves) == 0 {
		m.showMoves = false
	}
	return m, nil
}

// Record returns the record currently on screen, or nil.
func (m *BrowseModel) Record() *engine.AggregatedRecord {
	return m.record
}

// Err returns the failure currently on screen, or nil.
func (m *BrowseModel) Err() error {
	return m.err
}

// View renders the current view.
func (m *BrowseModel) View() string {
	if m.quitting {
		return ""
	}

	state := m.nav.Snapshot()
	var b strings.Builder

	b.WriteString(HeaderStyle.Render("POKÉDEX"))
	b.WriteString("\n\n")
	if state.InputEnabled() {
		b.WriteString(m.input.View())
	} else {
		b.WriteString(SubtleStyle.Render(m.input.Prompt + m.input.Value()))
	}
	b.WriteString("\n\n")

	switch {
	case state.IsLoading:
		b.WriteString(RenderLoading(m.loading))
		b.WriteString("\n")
	case m.err != nil:
		b.WriteString(RenderFailure(m.err, true))
	case m.record != nil:
		opts := RenderOptions{Styled: true, ShowMoves: m.showMoves, Width: m.width}
		if m.showMoves {
			opts.MovesBody = m.moves.View()
		}
		b.WriteString(RenderRecord(*m.record, opts))
	}

	b.WriteString("\n")
	b.WriteString(m.renderNav(state))
	b.WriteString("\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m *BrowseModel) renderNav(state engine.NavigationState) string {
	control := func(label string, enabled bool) string {
		if enabled {
			return OKStyle.Render(label)
		}
		return SubtleStyle.Render(label)
	}
	prev := control("← prev", state.PrevEnabled())
	next := control("next →", state.NextEnabled())
	current := "#-"
	if state.HasCurrent() {
		current = fmt.Sprintf("#%d", state.CurrentID)
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, prev, "   ", ValueStyle.Render(current), "   ", next)
}

func (m *BrowseModel) renderHelp() string {
	helpStyle := lipgloss.NewStyle().Foreground(ColorMuted)
	shortcuts := []string{
		"Enter: Search",
		"Tab: Focus input",
		"←/→: Prev/Next",
		"m: Moves",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(shortcuts, " | "))
}
