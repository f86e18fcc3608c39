package session

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/trackcore/internal/app/buffer"
	"github.com/osa030/trackcore/internal/app/playback"
	"github.com/osa030/trackcore/internal/domain/failure"
	"github.com/osa030/trackcore/internal/domain/options"
	"github.com/osa030/trackcore/internal/domain/track"
	"github.com/osa030/trackcore/internal/infra/backend"
)

// SetupPlayer applies player options. The first setup moves the session to
// ready and starts the registered playback service; later setups only replace
// the options.
func (m *Manager) SetupPlayer(ctx context.Context, p options.Player) error {
	prepared, err := p.Prepare()
	if err != nil {
		return err
	}
	return m.do(ctx, "setup-player", func() error {
		if err := m.buffer.Configure(buffer.WindowFrom(prepared)); err != nil {
			return failure.Config(err)
		}
		m.player = prepared
		if !m.setUp {
			m.setUp = true
			m.startService()
		}
		if m.state == playback.StateNone {
			m.apply(playback.Input{Action: playback.ActionSetup})
		}
		zlog.Info().Msgf("session: player set up: min=%v play=%v max=%v wait=%t",
			prepared.MinBufferDuration(), prepared.PlayBufferDuration(), prepared.MaxBufferDuration(), prepared.WaitForBuffer)
		return nil
	})
}

// SetNowPlaying replaces the queue with t. An invalid track fails with
// InvalidTrack and leaves the queue untouched.
func (m *Manager) SetNowPlaying(ctx context.Context, t track.Track) error {
	return m.do(ctx, "set-now-playing", func() error {
		ch, err := m.queue.SetNowPlaying(t)
		if err != nil {
			return err
		}
		m.load(ch)
		return nil
	})
}

// PlaybackUpdate is the decoded form of an UpdatePlayback payload.
type PlaybackUpdate struct {
	State    *playback.State `mapstructure:"state"`    // playing, paused or stopped, by name or code
	Position *float64        `mapstructure:"position"` // Seconds
	Duration *float64        `mapstructure:"duration"` // Seconds
	Force    bool            `mapstructure:"force"`    // Play without waiting for the buffer
}

// DecodePlaybackUpdate decodes an open-shaped update payload.
func DecodePlaybackUpdate(data map[string]any) (PlaybackUpdate, error) {
	var u PlaybackUpdate
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.TextUnmarshallerHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &u,
	})
	if err != nil {
		return PlaybackUpdate{}, errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(data); err != nil {
		return PlaybackUpdate{}, failure.Config(errors.Wrap(err, "invalid playback update"))
	}
	if u.State != nil && !u.State.Valid() {
		return PlaybackUpdate{}, failure.Configf("invalid playback state code %d", int(*u.State))
	}
	if u.Position != nil && *u.Position < 0 {
		return PlaybackUpdate{}, failure.Configf("position must not be negative")
	}
	if u.Duration != nil && *u.Duration < 0 {
		return PlaybackUpdate{}, failure.Configf("duration must not be negative")
	}
	return u, nil
}

// UpdatePlayback applies a playback update. It does nothing while the queue
// is empty. Requested states that are not commands are reported as
// InvalidTransition events.
func (m *Manager) UpdatePlayback(ctx context.Context, data map[string]any) error {
	u, err := DecodePlaybackUpdate(data)
	if err != nil {
		return err
	}
	return m.do(ctx, "update-playback", func() error {
		cur, ok := m.queue.Current()
		if !ok {
			return nil
		}
		if u.Duration != nil {
			m.setDuration(cur.ID, seconds(*u.Duration))
		}
		if u.Position != nil {
			m.seek(seconds(*u.Position))
		}
		if u.State == nil {
			return nil
		}
		switch *u.State {
		case playback.StatePlaying:
			m.play(u.Force)
		case playback.StatePaused:
			m.pause()
		case playback.StateStopped:
			m.stop()
		default:
			m.emitError(failure.InvalidTransitionf("state %s cannot be requested", *u.State))
		}
		return nil
	})
}

// Reset empties the queue and returns the session to none.
func (m *Manager) Reset(ctx context.Context) error {
	return m.do(ctx, "reset", func() error {
		m.queue.Reset()
		m.buffer.Clear()
		m.playIntent = false
		m.pausedByDuck = false
		m.pendingAdvance = false
		m.position = 0
		m.apply(playback.Input{Action: playback.ActionReset})
		m.toBackend("unload", func(ctx context.Context, b backend.Backend) error { return b.Unload(ctx) })
		return nil
	})
}

// UpdateOptions replaces the metadata options and the remote capability
// configuration. Invalid options fail with ConfigError and nothing changes.
func (m *Manager) UpdateOptions(ctx context.Context, o options.Metadata) error {
	prepared, err := o.Prepare()
	if err != nil {
		return err
	}
	return m.do(ctx, "update-options", func() error {
		if err := m.router.Configure(prepared); err != nil {
			return err
		}
		_, err := m.meta.UpdateOptions(prepared)
		return err
	})
}

// UpdateMetadataForTrack merges p into the queued track with the given id.
func (m *Manager) UpdateMetadataForTrack(ctx context.Context, id string, p track.Patch) error {
	return m.do(ctx, "update-metadata", func() error {
		t, err := m.meta.UpdateMetadataForTrack(id, p)
		if err != nil {
			return err
		}
		if p.Duration != nil && t.ID == m.buffer.TrackID() {
			m.buffer.SetDuration(t.Duration)
		}
		return nil
	})
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
