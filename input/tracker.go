package input

import (
	"roomwalk/core"
)

// State is the held/released snapshot of the four movement keys, handed to
// the per-frame update by value.
type State struct {
	Forward  bool
	Backward bool
	Left     bool
	Right    bool
}

// Any reports whether at least one movement key is held.
func (s State) Any() bool {
	return s.Forward || s.Backward || s.Left || s.Right
}

// Tracker turns key events into a State.
type Tracker struct {
	state State
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// HandleKey records a key transition. Press and Repeat mark the key held,
// Release clears it; untracked keys are ignored. Returns whether the key
// was a movement key.
func (t *Tracker) HandleKey(key core.Key, action core.Action) bool {
	flag := t.flagFor(key)
	if flag == nil {
		return false
	}
	*flag = action != core.Release
	return true
}

func (t *Tracker) flagFor(key core.Key) *bool {
	switch key {
	case core.KeyW:
		return &t.state.Forward
	case core.KeyS:
		return &t.state.Backward
	case core.KeyA:
		return &t.state.Left
	case core.KeyD:
		return &t.state.Right
	}
	return nil
}

// State returns a copy of the current flags.
func (t *Tracker) State() State {
	return t.state
}

// Reset releases every key. Used when focus is lost and release events
// would never arrive.
func (t *Tracker) Reset() {
	t.state = State{}
}
