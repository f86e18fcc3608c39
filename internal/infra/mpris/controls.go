// Package mpris exposes the playback session to desktop media controls over
// the MPRIS D-Bus interface.
package mpris

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/osa030/trackcore/internal/app/playback"
	"github.com/osa030/trackcore/internal/app/remote"
	"github.com/osa030/trackcore/internal/app/session"
	"github.com/osa030/trackcore/internal/domain/capability"
	"github.com/osa030/trackcore/internal/domain/failure"
	"github.com/osa030/trackcore/internal/domain/track"
)

// Upper bound for one D-Bus method call.
const callTimeout = 5 * time.Second

const trackPathPrefix = "/org/mpris/MediaPlayer2/Track/"

// Player is the session surface driven by the bridge.
type Player interface {
	Snapshot() session.Snapshot
	Remote() *remote.Router
}

// status is the MPRIS playback status, independent of the D-Bus types.
type status int

const (
	statusStopped status = iota
	statusPlaying
	statusPaused
)

// controls maps MPRIS calls onto remote signals. Every call goes through the
// router so capability checks and remote events apply as for any other host.
type controls struct {
	player Player
}

func (c controls) dispatch(cmd remote.Command) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	return c.player.Remote().Dispatch(ctx, cmd)
}

func (c controls) signal(s remote.Signal) error {
	return c.dispatch(remote.Command{Signal: s})
}

func (c controls) play() error      { return c.signal(remote.SignalPlay) }
func (c controls) pause() error     { return c.signal(remote.SignalPause) }
func (c controls) playPause() error { return c.signal(remote.SignalPlayPause) }
func (c controls) stop() error      { return c.signal(remote.SignalStop) }
func (c controls) next() error      { return c.signal(remote.SignalNext) }
func (c controls) previous() error  { return c.signal(remote.SignalPrevious) }

// seek moves relative to the current position.
func (c controls) seek(offset time.Duration) error {
	pos := c.player.Snapshot().Position + offset
	return c.dispatch(remote.Command{Signal: remote.SignalSeek, Position: max(pos, 0)})
}

// setPosition seeks only when path names the current track.
func (c controls) setPosition(path string, pos time.Duration) error {
	cur, ok := c.player.Snapshot().Current()
	if !ok || trackPath(cur.ID) != path {
		return failure.NotFoundf("track %s is not current", path)
	}
	return c.dispatch(remote.Command{Signal: remote.SignalSeek, Position: pos})
}

func (c controls) status() status {
	snap := c.player.Snapshot()
	switch snap.State {
	case playback.StatePlaying:
		return statusPlaying
	case playback.StateBuffering:
		if snap.PlayIntent {
			return statusPlaying
		}
		return statusPaused
	case playback.StatePaused:
		return statusPaused
	default:
		return statusStopped
	}
}

func (c controls) current() (track.Track, bool) {
	return c.player.Snapshot().Current()
}

func (c controls) position() time.Duration {
	return c.player.Snapshot().Position
}

func (c controls) enabled(want capability.Capability) bool {
	return c.player.Remote().Enabled(want)
}

func (c controls) canPlay() bool {
	_, ok := c.current()
	return ok && c.enabled(capability.Play)
}

func (c controls) canPause() bool {
	_, ok := c.current()
	return ok && c.enabled(capability.Pause)
}

func (c controls) canSeek() bool {
	_, ok := c.current()
	return ok && c.enabled(capability.SeekTo)
}

func (c controls) canGoNext() bool {
	snap := c.player.Snapshot()
	return snap.Index >= 0 && snap.Index < len(snap.Tracks)-1 && c.enabled(capability.SkipToNext)
}

func (c controls) canGoPrevious() bool {
	return c.player.Snapshot().Index > 0 && c.enabled(capability.SkipToPrevious)
}

// trackPath builds a D-Bus object path for a track id. Ids are hashed since
// object paths only allow [A-Za-z0-9_].
func trackPath(id string) string {
	h := fnv.New64a()
	h.Write([]byte(id))
	return fmt.Sprintf("%s%x", trackPathPrefix, h.Sum64())
}
