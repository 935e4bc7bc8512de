package machine

import (
	"fmt"
	"slices"
)

// State is a machine lifecycle state.
type State string

const (
	StateDestroyed  State = "destroyed"
	StateDestroying State = "destroying"
	StateStarted    State = "started"
	StateStopped    State = "stopped"
	StateCreated    State = "created"
)

var knownStates = []State{StateDestroyed, StateDestroying, StateStarted, StateStopped, StateCreated}

// States returns every known state.
func States() []State {
	return slices.Clone(knownStates)
}

// ParseState maps a wire name to a State.
func ParseState(name string) (State, error) {
	s := State(name)
	if !s.Known() {
		return "", fmt.Errorf("unknown machine state %q", name)
	}
	return s, nil
}

// Known reports whether s is one of the defined states. Machines decoded from
// the API may carry states this client does not know about yet.
func (s State) Known() bool {
	return slices.Contains(knownStates, s)
}

func (s State) String() string { return string(s) }
