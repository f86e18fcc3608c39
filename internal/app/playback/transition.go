package playback

import (
	"fmt"

	zlog "github.com/rs/zerolog/log"
)

// Transition applies in to s. It is total: every input yields an outcome, and
// an input outside the transition table leaves the state unchanged with
// Rejected set.
func Transition(s State, in Input) Outcome {
	next, ok := step(s, in)
	if !ok {
		o := Outcome{Prev: s, Next: s, Rejected: fmt.Sprintf("%s is not allowed in state %s", in.Action, s)}
		zlog.Debug().Msgf("playback: rejected: %s", o.Rejected)
		return o
	}
	o := Outcome{Prev: s, Next: next, Changed: next != s}
	if o.Changed {
		zlog.Debug().Msgf("playback: %s -> %s (%s)", s, next, in.Action)
	}
	return o
}

func step(s State, in Input) (State, bool) {
	switch in.Action {
	case ActionReset:
		return StateNone, true

	case ActionSetup:
		if s == StateNone {
			return StateReady, true
		}

	case ActionLoad:
		switch s {
		case StateNone, StateReady:
			return s, true
		case StatePaused, StateStopped, StateQueueEnded:
			return StateReady, true
		case StatePlaying, StateBuffering:
			if in.BufferReady {
				return StatePlaying, true
			}
			return StateBuffering, true
		}

	case ActionPlay:
		switch s {
		case StateReady, StatePaused:
			if in.BufferReady {
				return StatePlaying, true
			}
			return StateBuffering, true
		}

	case ActionPause:
		switch s {
		case StatePlaying, StateBuffering:
			return StatePaused, true
		}

	case ActionStop:
		if s.IsActive() {
			return StateStopped, true
		}

	case ActionUnderrun:
		if s == StatePlaying {
			return StateBuffering, true
		}

	case ActionRecover:
		if s == StateBuffering && in.PlayIntent {
			return StatePlaying, true
		}

	case ActionTrackEnd:
		switch s {
		case StatePlaying, StateBuffering:
			return StateQueueEnded, true
		}
	}
	return s, false
}
