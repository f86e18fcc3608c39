// Package remote routes remote-control signals from the host integration
// layer and the control API to the session.
package remote

import (
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/osa030/trackcore/internal/app/notification"
	"github.com/osa030/trackcore/internal/domain/capability"
)

// Signal identifies a remote-originated command.
type Signal string

const (
	SignalPlay         Signal = "play"
	SignalPause        Signal = "pause"
	SignalStop         Signal = "stop"
	SignalSkip         Signal = "skip"
	SignalNext         Signal = "next"
	SignalPrevious     Signal = "previous"
	SignalJumpForward  Signal = "jump-forward"
	SignalJumpBackward Signal = "jump-backward"
	SignalSeek         Signal = "seek"
	SignalSetRating    Signal = "set-rating"
	SignalDuck         Signal = "duck"
	SignalLike         Signal = "like"
	SignalDislike      Signal = "dislike"
	SignalBookmark     Signal = "bookmark"
	SignalPlayPause    Signal = "play-pause"
	SignalPlayID       Signal = "play-id"
	SignalPlaySearch   Signal = "play-search"
)

type signalInfo struct {
	event notification.Type
	caps  []capability.Capability // Any of these enables the signal, none means always enabled
}

var signals = map[Signal]signalInfo{
	SignalPlay:         {notification.TypeRemotePlay, []capability.Capability{capability.Play}},
	SignalPause:        {notification.TypeRemotePause, []capability.Capability{capability.Pause}},
	SignalStop:         {notification.TypeRemoteStop, []capability.Capability{capability.Stop}},
	SignalSkip:         {notification.TypeRemoteSkip, []capability.Capability{capability.Skip}},
	SignalNext:         {notification.TypeRemoteNext, []capability.Capability{capability.SkipToNext}},
	SignalPrevious:     {notification.TypeRemotePrevious, []capability.Capability{capability.SkipToPrevious}},
	SignalJumpForward:  {notification.TypeRemoteJumpForward, []capability.Capability{capability.JumpForward}},
	SignalJumpBackward: {notification.TypeRemoteJumpBackward, []capability.Capability{capability.JumpBackward}},
	SignalSeek:         {notification.TypeRemoteSeek, []capability.Capability{capability.SeekTo}},
	SignalSetRating:    {notification.TypeRemoteSetRating, []capability.Capability{capability.SetRating}},
	SignalDuck:         {notification.TypeRemoteDuck, nil},
	SignalLike:         {notification.TypeRemoteLike, []capability.Capability{capability.Like}},
	SignalDislike:      {notification.TypeRemoteDislike, []capability.Capability{capability.Dislike}},
	SignalBookmark:     {notification.TypeRemoteBookmark, []capability.Capability{capability.Bookmark}},
	SignalPlayPause:    {notification.TypeRemotePlayPause, []capability.Capability{capability.Play, capability.Pause}},
	SignalPlayID:       {notification.TypeRemotePlayID, []capability.Capability{capability.PlayFromID}},
	SignalPlaySearch:   {notification.TypeRemotePlaySearch, []capability.Capability{capability.PlayFromSearch}},
}

// Signals returns every signal sorted by name.
func Signals() []Signal {
	out := make([]Signal, 0, len(signals))
	for s := range signals {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ErrUnknownSignal is returned for a signal outside the closed set.
var ErrUnknownSignal = errors.New("unknown remote signal")

// ParseSignal returns the signal with the given name.
func ParseSignal(name string) (Signal, error) {
	s := Signal(name)
	if _, ok := signals[s]; !ok {
		return "", errors.Wrapf(ErrUnknownSignal, "%q", name)
	}
	return s, nil
}

// Event returns the remote-* event type emitted for s.
func (s Signal) Event() notification.Type {
	return signals[s].event
}

// Capabilities returns the capabilities that enable s. Empty means always enabled.
func (s Signal) Capabilities() []capability.Capability {
	return signals[s].caps
}
