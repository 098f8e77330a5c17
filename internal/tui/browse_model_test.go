package tui

import (
	"context"
	"net/http"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/pokedex/internal/engine"
	"github.com/rshade/pokedex/internal/pokeapi"
	"github.com/rshade/pokedex/internal/pokeapi/pokeapitest"
)

type browseFixture struct {
	srv   *pokeapitest.Server
	nav   *engine.Navigator
	model *BrowseModel
}

func newBrowseFixture(t *testing.T, initial string) *browseFixture {
	t.Helper()
	srv := pokeapitest.NewServer(pokeapitest.Bulbasaur(), pokeapitest.Pikachu())
	t.Cleanup(srv.Close)

	nav := engine.NewNavigator()
	agg := engine.NewAggregator(pokeapi.New(srv.URL))
	return &browseFixture{
		srv:   srv,
		nav:   nav,
		model: NewBrowseModel(context.Background(), agg, nav, initial),
	}
}

// drain runs cmd and feeds the lookup result back into the model. Other
// messages (cursor blink, spinner ticks) are dropped. It reports whether a
// lookup completed.
func (f *browseFixture) drain(t *testing.T, cmd tea.Cmd) bool {
	t.Helper()
	if cmd == nil {
		return false
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		done := false
		for _, c := range msg {
			if f.drain(t, c) {
				done = true
			}
		}
		return done
	case lookupDoneMsg:
		f.model.Update(msg)
		return true
	default:
		return false
	}
}

func (f *browseFixture) press(t *testing.T, k tea.KeyMsg) bool {
	t.Helper()
	_, cmd := f.model.Update(k)
	return f.drain(t, cmd)
}

func (f *browseFixture) search(t *testing.T, query string) {
	t.Helper()
	f.model.input.SetValue(query)
	require.True(t, f.press(t, tea.KeyMsg{Type: tea.KeyEnter}), "lookup for %q did not run", query)
}

func TestBrowse_InitialQuery(t *testing.T) {
	f := newBrowseFixture(t, "25")

	require.True(t, f.drain(t, f.model.Init()))

	require.NotNil(t, f.model.Record())
	assert.Equal(t, 25, f.model.Record().ID)
	assert.Equal(t, 25, f.nav.Snapshot().CurrentID)
	assert.Contains(t, f.model.View(), "Pikachu (#25)")
}

func TestBrowse_SubmitSetsLoadingBeforeNetwork(t *testing.T) {
	f := newBrowseFixture(t, "")
	f.model.input.SetValue("pikachu")

	_, cmd := f.model.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	assert.True(t, f.nav.Snapshot().IsLoading)
	assert.Zero(t, f.srv.Calls(pokeapitest.EndpointSearch), "nothing is sent until the command runs")
	assert.Contains(t, f.model.View(), `Searching "pikachu"...`)

	// Input is ignored while loading.
	_, again := f.model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, again)

	require.True(t, f.drain(t, cmd))
	assert.False(t, f.nav.Snapshot().IsLoading)
	assert.Equal(t, 1, f.srv.Calls(pokeapitest.EndpointSearch))
}

func TestBrowse_ArrowNavigation(t *testing.T) {
	f := newBrowseFixture(t, "")
	f.search(t, "bulbasaur")

	// Arrows are typed into the input while it is focused.
	assert.False(t, f.press(t, tea.KeyMsg{Type: tea.KeyRight}))

	f.press(t, tea.KeyMsg{Type: tea.KeyTab})
	require.False(t, f.model.input.Focused())

	// Prev at id 1 issues nothing.
	assert.False(t, f.press(t, tea.KeyMsg{Type: tea.KeyLeft}))
	assert.Equal(t, 1, f.srv.Calls(pokeapitest.EndpointSearch))

	// Next runs off the populated dex: id 2 is unknown to the fake.
	require.True(t, f.press(t, tea.KeyMsg{Type: tea.KeyRight}))
	assert.Nil(t, f.model.Record())
	msg, tier := FailureMessage(f.model.Err())
	assert.Equal(t, TierNoResults, tier)
	assert.Contains(t, f.model.View(), msg)
	assert.Equal(t, 1, f.nav.Snapshot().CurrentID, "cursor stays on the last good id")
	assert.True(t, f.nav.Snapshot().NextEnabled())
}

func TestBrowse_CtrlArrowsWorkWhileTyping(t *testing.T) {
	f := newBrowseFixture(t, "")
	f.search(t, "pikachu")
	require.True(t, f.model.input.Focused())

	f.srv.Add(engine.AggregatedRecord{PrimaryRecord: engine.PrimaryRecord{ID: 24, Name: "Arbok", PrimaryType: "poison"}})
	require.True(t, f.press(t, tea.KeyMsg{Type: tea.KeyCtrlLeft}))

	require.NotNil(t, f.model.Record())
	assert.Equal(t, 24, f.model.Record().ID)
	assert.Equal(t, "24", f.model.input.Value())
	view := f.model.View()
	assert.Contains(t, view, NoMovesText)
	assert.Contains(t, view, NoStatsText)
}

func TestBrowse_SecondaryFailureStillRenders(t *testing.T) {
	f := newBrowseFixture(t, "")
	f.srv.Fail(pokeapitest.EndpointMoves, http.StatusInternalServerError)

	f.search(t, "25")

	require.NotNil(t, f.model.Record())
	assert.Empty(t, f.model.Record().Moves)
	assert.NotEmpty(t, f.model.Record().Stats)
	assert.Nil(t, f.model.Err())
	assert.Contains(t, f.model.View(), NoMovesText)
}

func TestBrowse_ServerFailureHidesDetail(t *testing.T) {
	f := newBrowseFixture(t, "")
	f.srv.Fail(pokeapitest.EndpointSearch, http.StatusBadGateway)

	f.search(t, "25")

	assert.Contains(t, f.model.View(), CommunicationErrorText)
	assert.Zero(t, f.nav.Snapshot().CurrentID)
}

func TestBrowse_MovesToggle(t *testing.T) {
	f := newBrowseFixture(t, "")
	f.search(t, "25")
	f.press(t, tea.KeyMsg{Type: tea.KeyTab})

	assert.Contains(t, f.model.View(), "Show moves (2)")

	f.press(t, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("m")})
	view := f.model.View()
	assert.NotContains(t, view, "Show moves (2)")
	assert.Contains(t, view, "Thunder Shock")

	f.press(t, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("m")})
	assert.Contains(t, f.model.View(), "Show moves (2)")
}

func TestBrowse_EmptySubmitIsIgnored(t *testing.T) {
	f := newBrowseFixture(t, "")
	f.model.input.SetValue("   ")

	_, cmd := f.model.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.False(t, f.nav.Snapshot().IsLoading)
	assert.Nil(t, f.model.Err())
}

func TestBrowse_Quit(t *testing.T) {
	f := newBrowseFixture(t, "")

	// q is text while the input is focused.
	f.model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.Equal(t, "q", f.model.input.Value())
	assert.NotEmpty(t, f.model.View())

	f.model.Update(tea.KeyMsg{Type: tea.KeyTab})
	_, cmd := f.model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, f.model.View())
}

func TestBrowse_CtrlCQuitsWhileLoading(t *testing.T) {
	f := newBrowseFixture(t, "")
	f.model.input.SetValue("25")
	_, lookup := f.model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, f.nav.Snapshot().IsLoading)

	_, cmd := f.model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	// Let the in-flight request finish so the fake server can shut down.
	f.drain(t, lookup)
}

func TestBrowse_WindowSize(t *testing.T) {
	f := newBrowseFixture(t, "")
	f.model.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	assert.Equal(t, 120, f.model.width)
	assert.Equal(t, 40, f.model.height)
}
