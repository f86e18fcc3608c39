package session

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/trackcore/internal/app/buffer"
	"github.com/osa030/trackcore/internal/app/notification"
	"github.com/osa030/trackcore/internal/app/playback"
	"github.com/osa030/trackcore/internal/app/queue"
	"github.com/osa030/trackcore/internal/domain/failure"
	"github.com/osa030/trackcore/internal/domain/track"
	"github.com/osa030/trackcore/internal/infra/backend"
)

// Volume applied while another app holds audio focus.
const duckVolume = 0.25

// apply runs the state machine. Rejected inputs become InvalidTransition
// events; executed transitions emit exactly one playback-state event.
func (m *Manager) apply(in playback.Input) playback.Outcome {
	in.PlayIntent = m.playIntent
	o := playback.Transition(m.state, in)
	if !o.Accepted() {
		m.emitError(failure.InvalidTransitionf("%s", o.Rejected))
		return o
	}
	if o.Changed {
		m.state = o.Next
		zlog.Info().Msgf("session: state changed: %s -> %s (%s)", o.Prev, o.Next, in.Action)
		m.emitState()
		m.syncBackend(o.Next)
	}
	return o
}

// syncBackend makes the backend follow a state change.
func (m *Manager) syncBackend(s playback.State) {
	switch s {
	case playback.StatePlaying:
		m.toBackend("play", func(ctx context.Context, b backend.Backend) error { return b.Play(ctx) })
	case playback.StatePaused, playback.StateBuffering:
		m.toBackend("pause", func(ctx context.Context, b backend.Backend) error { return b.Pause(ctx) })
	case playback.StateStopped:
		m.toBackend("stop", func(ctx context.Context, b backend.Backend) error { return b.Stop(ctx) })
	}
}

// bufferReady reports whether playback may start now. WaitForBuffer only
// governs underruns; starting always needs playBuffer.
func (m *Manager) bufferReady() bool {
	return m.buffer.Sufficient()
}

// load makes the current track of ch active.
func (m *Manager) load(ch queue.Change) {
	cur := *ch.Current
	prevPosition := m.position
	m.position = 0
	m.pendingAdvance = false
	m.buffer.Load(cur.ID, cur.Duration)

	var prevID string
	if ch.Previous != nil {
		prevID = ch.Previous.ID
	}
	m.bus.Emit(notification.TypePlaybackTrackChanged, notification.TrackChangedPayload{
		Track:     prevID,
		Position:  prevPosition,
		NextTrack: cur.ID,
	})
	zlog.Info().Msgf("session: track changed: %q -> %q (%s - %s)", prevID, cur.ID, cur.Artist, cur.Title)

	m.toBackend("load", func(ctx context.Context, b backend.Backend) error { return b.Load(ctx, cur) })
	m.preloadNext()

	if m.state == playback.StateNone && m.setUp {
		m.apply(playback.Input{Action: playback.ActionSetup})
	}
	o := m.apply(playback.Input{Action: playback.ActionLoad, BufferReady: m.bufferReady()})
	switch {
	case o.Next == playback.StateReady:
		m.playIntent = false
	case o.Next == playback.StatePlaying && !o.Changed:
		m.toBackend("play", func(ctx context.Context, b backend.Backend) error { return b.Play(ctx) })
	}
}

// preloadNext asks the backend to fetch the head of the upcoming track.
func (m *Manager) preloadNext() {
	if !m.queue.HasNext() {
		return
	}
	next := m.queue.Snapshot().Tracks[m.queue.Index()+1]
	ahead := m.player.PlayBufferDuration()
	m.toBackend("preload", func(ctx context.Context, b backend.Backend) error { return b.Preload(ctx, next, ahead) })
}

// advance moves to the next track. Unless forced, the next track must be
// confirmed by the buffer controller.
func (m *Manager) advance(force bool) error {
	ch, err := m.queue.Advance(m.buffer, force)
	if err != nil {
		return err
	}
	m.load(ch)
	return nil
}

func (m *Manager) previous() error {
	ch, err := m.queue.Previous()
	if err != nil {
		return err
	}
	m.load(ch)
	return nil
}

func (m *Manager) skipTo(id string) error {
	ch, err := m.queue.JumpTo(id)
	if err != nil {
		return err
	}
	m.load(ch)
	return nil
}

func (m *Manager) play(force bool) {
	if m.queue.IsEmpty() {
		return
	}
	m.playIntent = true
	m.pausedByDuck = false
	o := m.apply(playback.Input{Action: playback.ActionPlay, BufferReady: force || m.bufferReady()})
	if !o.Accepted() && o.Next != playback.StatePlaying && o.Next != playback.StateBuffering {
		m.playIntent = false
	}
}

func (m *Manager) pause() {
	if m.queue.IsEmpty() {
		return
	}
	m.playIntent = false
	m.apply(playback.Input{Action: playback.ActionPause})
}

func (m *Manager) stop() {
	if m.queue.IsEmpty() {
		return
	}
	m.playIntent = false
	m.pausedByDuck = false
	if o := m.apply(playback.Input{Action: playback.ActionStop}); o.Accepted() {
		m.position = 0
		m.buffer.Seek(0)
	}
}

func (m *Manager) togglePlayPause() {
	if m.state == playback.StatePlaying || m.state == playback.StateBuffering {
		m.pause()
		return
	}
	m.play(false)
}

// seek moves the position, clamped to the known duration.
func (m *Manager) seek(position time.Duration) {
	cur, ok := m.queue.Current()
	if !ok {
		return
	}
	position = max(position, 0)
	if cur.Duration > 0 {
		position = min(position, cur.Duration)
	}
	m.position = position
	m.buffer.Seek(position)
	m.toBackend("seek", func(ctx context.Context, b backend.Backend) error { return b.SeekTo(ctx, position) })
	m.evaluate()
}

// duck reacts to audio focus changes. A transient loss lowers the volume, or
// pauses when AlwaysPauseOnInterruption is set; a permanent loss pauses.
func (m *Manager) duck(paused, permanent bool) {
	switch {
	case paused && permanent:
		m.pausedByDuck = false
		m.pause()
	case paused:
		if m.state != playback.StatePlaying && m.state != playback.StateBuffering {
			return
		}
		if m.meta.Options().AlwaysPauseOnInterruption {
			m.pause()
			m.pausedByDuck = true
			return
		}
		m.volumeDucked = true
		m.toBackend("duck", func(ctx context.Context, b backend.Backend) error { return b.SetVolume(ctx, duckVolume) })
	default:
		if m.volumeDucked {
			m.volumeDucked = false
			m.toBackend("unduck", func(ctx context.Context, b backend.Backend) error { return b.SetVolume(ctx, 1) })
		}
		if m.pausedByDuck {
			m.play(false)
		}
	}
}

// setDuration records the duration of a queued track once known.
func (m *Manager) setDuration(id string, d time.Duration) {
	if _, err := m.queue.Patch(id, track.Patch{Duration: &d}); err != nil {
		return
	}
	if id == m.buffer.TrackID() {
		m.buffer.SetDuration(d)
	}
}

// evaluate checks the buffer against the window and drives underrun and
// recovery transitions.
func (m *Manager) evaluate() {
	if m.pendingAdvance {
		return
	}
	switch m.buffer.Evaluate(m.state == playback.StatePlaying, m.state == playback.StateBuffering, m.playIntent) {
	case buffer.SignalUnderrun:
		if m.player.WaitForBuffer {
			m.apply(playback.Input{Action: playback.ActionUnderrun})
			return
		}
		m.emitError(failure.Playbackf("buffer underrun: %v ahead, minimum %v", m.buffer.Ahead(), m.player.MinBufferDuration()))
	case buffer.SignalRecovered:
		m.apply(playback.Input{Action: playback.ActionRecover})
	}
}

// buffered records fetched media and retries a pending advance.
func (m *Manager) buffered(id string, seg buffer.Segment) {
	if evicted := m.buffer.Add(id, seg); evicted > 0 {
		zlog.Debug().Msgf("session: evicted %s, cached %s", humanize.Bytes(uint64(evicted)), humanize.Bytes(uint64(m.buffer.CachedBytes())))
	}
	if m.pendingAdvance {
		if err := m.advance(false); err != nil && !errors.Is(err, queue.ErrNotBuffered) {
			m.pendingAdvance = false
			m.emitError(err)
		}
		return
	}
	m.evaluate()
}

// trackEnded handles the natural end of the current track.
func (m *Manager) trackEnded(position time.Duration) {
	m.position = position
	if m.queue.HasNext() {
		err := m.advance(false)
		if errors.Is(err, queue.ErrNotBuffered) {
			m.pendingAdvance = true
			if m.state == playback.StatePlaying {
				m.apply(playback.Input{Action: playback.ActionUnderrun})
			}
			return
		}
		if err != nil {
			m.emitError(err)
		}
		return
	}

	cur, _ := m.queue.Current()
	if o := m.apply(playback.Input{Action: playback.ActionTrackEnd}); o.Accepted() {
		m.playIntent = false
		m.bus.Emit(notification.TypePlaybackQueueEnded, notification.QueueEndedPayload{
			Track:    cur.ID,
			Position: position,
		})
		zlog.Info().Msgf("session: queue ended: last=%q", cur.ID)
	}
}
