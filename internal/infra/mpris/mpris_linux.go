//go:build linux

package mpris

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/trackcore/internal/app/notification"
)

// Service returns a playback service that publishes p on the session bus as
// org.mpris.MediaPlayer2.<name> until its context is done.
func Service(name string, p Player) notification.ServiceFactory {
	return func() notification.Service {
		return func(ctx context.Context) error {
			srv := server.NewServer(name, &rootAdapter{identity: name}, &playerAdapter{c: controls{player: p}})

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Listen()
			}()
			zlog.Info().Msgf("mpris: published as %s", name)

			select {
			case err := <-errCh:
				return errors.Wrap(err, "mpris: listen failed")
			case <-ctx.Done():
			}
			if err := srv.Stop(); err != nil {
				return errors.Wrap(err, "mpris: stop failed")
			}
			zlog.Info().Msg("mpris: stopped")
			return nil
		}
	}
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct {
	identity string
}

func (r *rootAdapter) Raise() error                { return nil }
func (r *rootAdapter) Quit() error                 { return nil }
func (r *rootAdapter) CanQuit() (bool, error)      { return false, nil }
func (r *rootAdapter) CanRaise() (bool, error)     { return false, nil }
func (r *rootAdapter) HasTrackList() (bool, error) { return false, nil }

func (r *rootAdapter) Identity() (string, error) {
	return r.identity, nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"http", "https", "file"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/aac", "audio/flac", "audio/ogg", "application/vnd.apple.mpegurl", "application/dash+xml"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter.
type playerAdapter struct {
	c controls
}

func (p *playerAdapter) Next() error      { return p.c.next() }
func (p *playerAdapter) Previous() error  { return p.c.previous() }
func (p *playerAdapter) Pause() error     { return p.c.pause() }
func (p *playerAdapter) PlayPause() error { return p.c.playPause() }
func (p *playerAdapter) Stop() error      { return p.c.stop() }
func (p *playerAdapter) Play() error      { return p.c.play() }

func (p *playerAdapter) Seek(offset types.Microseconds) error {
	return p.c.seek(time.Duration(offset) * time.Microsecond)
}

func (p *playerAdapter) SetPosition(trackID string, position types.Microseconds) error {
	return p.c.setPosition(trackID, time.Duration(position)*time.Microsecond)
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error {
	return nil // Queue changes come from the host only
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	switch p.c.status() {
	case statusPlaying:
		return types.PlaybackStatusPlaying, nil
	case statusPaused:
		return types.PlaybackStatusPaused, nil
	default:
		return types.PlaybackStatusStopped, nil
	}
}

func (p *playerAdapter) Rate() (float64, error)  { return 1.0, nil }
func (p *playerAdapter) SetRate(_ float64) error { return nil }

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	t, ok := p.c.current()
	if !ok {
		return types.Metadata{}, nil
	}
	return types.Metadata{
		TrackId: dbus.ObjectPath(trackPath(t.ID)),
		Length:  types.Microseconds(t.Duration.Microseconds()),
		Title:   t.Title,
		Artist:  []string{t.Artist},
		Album:   t.Album,
		ArtUrl:  t.Artwork,
	}, nil
}

func (p *playerAdapter) Volume() (float64, error)  { return 1.0, nil }
func (p *playerAdapter) SetVolume(_ float64) error { return nil }

func (p *playerAdapter) Position() (int64, error) {
	return p.c.position().Microseconds(), nil
}

func (p *playerAdapter) MinimumRate() (float64, error) { return 1.0, nil }
func (p *playerAdapter) MaximumRate() (float64, error) { return 1.0, nil }

func (p *playerAdapter) CanGoNext() (bool, error)     { return p.c.canGoNext(), nil }
func (p *playerAdapter) CanGoPrevious() (bool, error) { return p.c.canGoPrevious(), nil }
func (p *playerAdapter) CanPlay() (bool, error)       { return p.c.canPlay(), nil }
func (p *playerAdapter) CanPause() (bool, error)      { return p.c.canPause(), nil }
func (p *playerAdapter) CanSeek() (bool, error)       { return p.c.canSeek(), nil }
func (p *playerAdapter) CanControl() (bool, error)    { return true, nil }
