package playback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_StableCodes(t *testing.T) {
	tests := []struct {
		state State
		code  int
		name  string
	}{
		{StateNone, 0, "none"},
		{StateReady, 1, "ready"},
		{StateBuffering, 2, "buffering"},
		{StatePlaying, 3, "playing"},
		{StatePaused, 4, "paused"},
		{StateStopped, 5, "stopped"},
		{StateQueueEnded, 6, "queue-ended"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, int(tt.state))
			assert.Equal(t, tt.name, tt.state.String())

			parsed, err := ParseState(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.state, parsed)
		})
	}

	_, err := ParseState("rewinding")
	assert.Error(t, err)
	assert.Equal(t, "unknown", State(42).String())
}

func TestTransition_Table(t *testing.T) {
	tests := []struct {
		name string
		from State
		in   Input
		want State
	}{
		{"setup", StateNone, Input{Action: ActionSetup}, StateReady},
		{"play from ready with buffer", StateReady, Input{Action: ActionPlay, BufferReady: true}, StatePlaying},
		{"play from ready without buffer", StateReady, Input{Action: ActionPlay}, StateBuffering},
		{"play from paused", StatePaused, Input{Action: ActionPlay, BufferReady: true}, StatePlaying},
		{"play from paused without buffer", StatePaused, Input{Action: ActionPlay}, StateBuffering},
		{"pause", StatePlaying, Input{Action: ActionPause}, StatePaused},
		{"pause while buffering", StateBuffering, Input{Action: ActionPause}, StatePaused},
		{"stop from ready", StateReady, Input{Action: ActionStop}, StateStopped},
		{"stop from buffering", StateBuffering, Input{Action: ActionStop}, StateStopped},
		{"stop from playing", StatePlaying, Input{Action: ActionStop}, StateStopped},
		{"stop from paused", StatePaused, Input{Action: ActionStop}, StateStopped},
		{"underrun", StatePlaying, Input{Action: ActionUnderrun}, StateBuffering},
		{"recover", StateBuffering, Input{Action: ActionRecover, PlayIntent: true}, StatePlaying},
		{"track end", StatePlaying, Input{Action: ActionTrackEnd}, StateQueueEnded},
		{"track end while buffering", StateBuffering, Input{Action: ActionTrackEnd}, StateQueueEnded},
		{"load after queue end", StateQueueEnded, Input{Action: ActionLoad}, StateReady},
		{"load after stop", StateStopped, Input{Action: ActionLoad}, StateReady},
		{"load while playing", StatePlaying, Input{Action: ActionLoad}, StateBuffering},
		{"load while playing with buffer", StatePlaying, Input{Action: ActionLoad, BufferReady: true}, StatePlaying},
		{"reset from playing", StatePlaying, Input{Action: ActionReset}, StateNone},
		{"reset from queue-ended", StateQueueEnded, Input{Action: ActionReset}, StateNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Transition(tt.from, tt.in)
			assert.True(t, o.Accepted(), o.Rejected)
			assert.Equal(t, tt.from, o.Prev)
			assert.Equal(t, tt.want, o.Next)
			assert.Equal(t, tt.from != tt.want, o.Changed)
		})
	}
}

func TestTransition_Rejected(t *testing.T) {
	tests := []struct {
		name string
		from State
		in   Input
	}{
		{"play before setup", StateNone, Input{Action: ActionPlay, BufferReady: true}},
		{"play after stop", StateStopped, Input{Action: ActionPlay, BufferReady: true}},
		{"play after queue end", StateQueueEnded, Input{Action: ActionPlay}},
		{"play while playing", StatePlaying, Input{Action: ActionPlay}},
		{"pause while paused", StatePaused, Input{Action: ActionPause}},
		{"pause while ready", StateReady, Input{Action: ActionPause}},
		{"stop while none", StateNone, Input{Action: ActionStop}},
		{"stop while stopped", StateStopped, Input{Action: ActionStop}},
		{"setup twice", StateReady, Input{Action: ActionSetup}},
		{"underrun while paused", StatePaused, Input{Action: ActionUnderrun}},
		{"recover without intent", StateBuffering, Input{Action: ActionRecover}},
		{"track end while paused", StatePaused, Input{Action: ActionTrackEnd}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Transition(tt.from, tt.in)
			assert.False(t, o.Accepted())
			assert.NotEmpty(t, o.Rejected)
			assert.False(t, o.Changed)
			assert.Equal(t, tt.from, o.Next)
		})
	}
}

func TestTransition_Total(t *testing.T) {
	for s := StateNone; s <= StateQueueEnded; s++ {
		for a := ActionSetup; a <= ActionReset; a++ {
			for _, ready := range []bool{false, true} {
				o := Transition(s, Input{Action: a, BufferReady: ready, PlayIntent: ready})
				assert.True(t, o.Next.Valid(), "%s/%s", s, a)
				if !o.Accepted() {
					assert.Equal(t, s, o.Next)
				}
			}
		}
	}
}

func TestTransition_PausePlayOrder(t *testing.T) {
	s := StatePlaying
	var seen []State
	for _, in := range []Input{{Action: ActionPause}, {Action: ActionPlay, BufferReady: true}} {
		o := Transition(s, in)
		require.True(t, o.Accepted())
		seen = append(seen, o.Next)
		s = o.Next
	}
	assert.Equal(t, []State{StatePaused, StatePlaying}, seen)
}
