// Package playback provides the playback state machine.
package playback

import "github.com/cockroachdb/errors"

// State represents the playback state. The numeric codes are stable.
type State int

const (
	StateNone       State = 0 // No session set up
	StateReady      State = 1 // Set up, track loaded, not started
	StateBuffering  State = 2 // Waiting for data
	StatePlaying    State = 3 // Track is playing
	StatePaused     State = 4 // Track is paused
	StateStopped    State = 5 // Stopped, terminal until reset or a new track
	StateQueueEnded State = 6 // Last track finished, terminal until reset or a new track
)

var stateNames = [...]string{
	StateNone:       "none",
	StateReady:      "ready",
	StateBuffering:  "buffering",
	StatePlaying:    "playing",
	StatePaused:     "paused",
	StateStopped:    "stopped",
	StateQueueEnded: "queue-ended",
}

// String returns the string representation of the state.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	return s >= StateNone && s <= StateQueueEnded
}

// IsActive reports whether the state accepts a stop command.
func (s State) IsActive() bool {
	switch s {
	case StateReady, StateBuffering, StatePlaying, StatePaused:
		return true
	}
	return false
}

// IsTerminal reports whether the state only leaves on reset or a new track.
func (s State) IsTerminal() bool {
	return s == StateStopped || s == StateQueueEnded
}

// ParseState returns the state with the given name.
func ParseState(name string) (State, error) {
	for i, n := range stateNames {
		if n == name {
			return State(i), nil
		}
	}
	return StateNone, errors.Newf("unknown playback state %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, errors.Newf("invalid playback state %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	v, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
