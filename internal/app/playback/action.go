package playback

// Action is an input to the state machine.
type Action int

const (
	ActionSetup     Action = iota // Player set up
	ActionLoad                    // A new current track was set
	ActionPlay                    // Play requested
	ActionPause                   // Pause requested
	ActionStop                    // Stop requested
	ActionUnderrun                // Buffer fell below the minimum while playing
	ActionRecover                 // Buffer reached the play threshold
	ActionTrackEnd                // Current track finished with no successor
	ActionReset                   // Session reset
)

// String returns the string representation of the action.
func (a Action) String() string {
	switch a {
	case ActionSetup:
		return "setup"
	case ActionLoad:
		return "load"
	case ActionPlay:
		return "play"
	case ActionPause:
		return "pause"
	case ActionStop:
		return "stop"
	case ActionUnderrun:
		return "underrun"
	case ActionRecover:
		return "recover"
	case ActionTrackEnd:
		return "track-end"
	case ActionReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Input is a state machine input with the facts the transition depends on.
type Input struct {
	Action      Action
	BufferReady bool // Enough is buffered to start playing
	PlayIntent  bool // A play request is pending
}

// Outcome is the result of a transition. Rejected is empty when the input
// was accepted.
type Outcome struct {
	Prev     State
	Next     State
	Changed  bool
	Rejected string
}

// Accepted reports whether the input was part of the transition table.
func (o Outcome) Accepted() bool {
	return o.Rejected == ""
}
