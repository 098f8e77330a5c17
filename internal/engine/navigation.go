package engine

import (
	"strconv"
	"sync"
)

// Phase is the state of the navigation machine.
type Phase int

const (
	// PhaseIdle means no lookup is in flight.
	PhaseIdle Phase = iota
	// PhaseLoading means a lookup is in flight and new requests are refused.
	PhaseLoading
)

// String returns the lowercase name of the phase.
func (p Phase) String() string {
	if p == PhaseLoading {
		return "loading"
	}
	return "idle"
}

// NavigationState is a point-in-time copy of the navigator.
// CurrentID is 0 until the first successful lookup; ids are always positive.
type NavigationState struct {
	CurrentID int
	IsLoading bool
}

// Phase returns PhaseLoading while a lookup is in flight.
func (s NavigationState) Phase() Phase {
	if s.IsLoading {
		return PhaseLoading
	}
	return PhaseIdle
}

// HasCurrent reports whether a lookup has ever succeeded.
func (s NavigationState) HasCurrent() bool {
	return s.CurrentID > 0
}

// PrevEnabled reports whether the previous-id control is usable.
func (s NavigationState) PrevEnabled() bool {
	return !s.IsLoading && s.CurrentID > 1
}

// NextEnabled reports whether the next-id control is usable.
// No upper bound is enforced; running off the end yields a not-found failure.
func (s NavigationState) NextEnabled() bool {
	return !s.IsLoading && s.HasCurrent()
}

// InputEnabled reports whether the query input and submit control are usable.
func (s NavigationState) InputEnabled() bool {
	return !s.IsLoading
}

// Navigator owns the NavigationState for one controller. Only the Aggregator
// mutates it; everything else reads through Snapshot.
type Navigator struct {
	mu    sync.Mutex
	state NavigationState
}

// NewNavigator returns an idle navigator with no current id.
func NewNavigator() *Navigator {
	return &Navigator{}
}

// Snapshot returns a copy of the current state.
func (n *Navigator) Snapshot() NavigationState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// PrevQuery returns the query for the previous id, or false when the
// previous control is disabled.
func (n *Navigator) PrevQuery() (string, bool) {
	s := n.Snapshot()
	if !s.PrevEnabled() {
		return "", false
	}
	return strconv.Itoa(s.CurrentID - 1), true
}

// NextQuery returns the query for the next id, or false when the next
// control is disabled.
func (n *Navigator) NextQuery() (string, bool) {
	s := n.Snapshot()
	if !s.NextEnabled() {
		return "", false
	}
	return strconv.Itoa(s.CurrentID + 1), true
}

// tryBegin flips the navigator into loading. It returns false without
// changing anything if a lookup is already in flight.
func (n *Navigator) tryBegin() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state.IsLoading {
		return false
	}
	n.state.IsLoading = true
	return true
}

// finish releases the loading flag. A positive id moves the cursor; zero
// leaves it where it was.
func (n *Navigator) finish(id int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.state.IsLoading = false
	if id > 0 {
		n.state.CurrentID = id
	}
}
