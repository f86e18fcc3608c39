// Package notification provides the event bus that fans playback and remote
// events out to subscribers, plus the process-wide handler registrations.
package notification

import (
	"time"

	"github.com/osa030/trackcore/internal/app/playback"
	"github.com/osa030/trackcore/internal/domain/failure"
	"github.com/osa030/trackcore/internal/domain/rating"
)

// Type is the event type tag.
type Type string

const (
	TypePlaybackState        Type = "playback-state"
	TypePlaybackError        Type = "playback-error"
	TypePlaybackQueueEnded   Type = "playback-queue-ended"
	TypePlaybackTrackChanged Type = "playback-track-changed"
	TypeRemotePlay           Type = "remote-play"
	TypeRemotePlayID         Type = "remote-play-id"
	TypeRemotePlaySearch     Type = "remote-play-search"
	TypeRemotePause          Type = "remote-pause"
	TypeRemoteStop           Type = "remote-stop"
	TypeRemoteSkip           Type = "remote-skip"
	TypeRemoteNext           Type = "remote-next"
	TypeRemotePrevious       Type = "remote-previous"
	TypeRemoteJumpForward    Type = "remote-jump-forward"
	TypeRemoteJumpBackward   Type = "remote-jump-backward"
	TypeRemoteSeek           Type = "remote-seek"
	TypeRemoteSetRating      Type = "remote-set-rating"
	TypeRemoteDuck           Type = "remote-duck"
	TypeRemoteLike           Type = "remote-like"
	TypeRemoteDislike        Type = "remote-dislike"
	TypeRemoteBookmark       Type = "remote-bookmark"
	TypeRemotePlayPause      Type = "remote-play-pause"
)

var types = []Type{
	TypePlaybackState, TypePlaybackError, TypePlaybackQueueEnded, TypePlaybackTrackChanged,
	TypeRemotePlay, TypeRemotePlayID, TypeRemotePlaySearch, TypeRemotePause, TypeRemoteStop,
	TypeRemoteSkip, TypeRemoteNext, TypeRemotePrevious, TypeRemoteJumpForward,
	TypeRemoteJumpBackward, TypeRemoteSeek, TypeRemoteSetRating, TypeRemoteDuck,
	TypeRemoteLike, TypeRemoteDislike, TypeRemoteBookmark, TypeRemotePlayPause,
}

// Types returns every event type.
func Types() []Type {
	out := make([]Type, len(types))
	copy(out, types)
	return out
}

// Valid reports whether t is a known event type.
func (t Type) Valid() bool {
	for _, v := range types {
		if v == t {
			return true
		}
	}
	return false
}

// IsRemote reports whether t is a remote-* event.
func (t Type) IsRemote() bool {
	return len(t) > 7 && t[:7] == "remote-"
}

// Event is a single emitted event. Seq increases by one per emission and
// Timestamp is the monotonic offset since the bus was created.
type Event struct {
	Type      Type          `json:"type"`
	Seq       uint64        `json:"seq"`
	Timestamp time.Duration `json:"timestamp"`
	Payload   Payload       `json:"payload,omitempty"`
}

// Payload is the type-specific part of an event.
type Payload interface {
	payload()
}

// StatePayload carries the new playback state.
type StatePayload struct {
	State playback.State `json:"state"`
}

// ErrorPayload describes a non-fatal runtime fault.
type ErrorPayload struct {
	Kind    failure.Kind `json:"-"`
	Code    string       `json:"code"`
	Message string       `json:"message"`
}

// TrackChangedPayload is sent when the current track changes.
type TrackChangedPayload struct {
	Track     string        `json:"track,omitempty"` // Previous track id
	Position  time.Duration `json:"position"`        // Position reached in the previous track
	NextTrack string        `json:"nextTrack,omitempty"`
}

// QueueEndedPayload is sent once the last track finished.
type QueueEndedPayload struct {
	Track    string        `json:"track"`
	Position time.Duration `json:"position"`
}

// RemotePayload carries no data.
type RemotePayload struct{}

// SeekPayload is sent with remote-seek.
type SeekPayload struct {
	Position time.Duration `json:"position"`
}

// JumpPayload is sent with remote-jump-forward and remote-jump-backward.
type JumpPayload struct {
	Interval time.Duration `json:"interval"`
}

// PlayIDPayload is sent with remote-play-id.
type PlayIDPayload struct {
	ID string `json:"id"`
}

// SearchPayload is sent with remote-play-search.
type SearchPayload struct {
	Query    string `json:"query"`
	Focus    string `json:"focus,omitempty"`
	Title    string `json:"title,omitempty"`
	Artist   string `json:"artist,omitempty"`
	Album    string `json:"album,omitempty"`
	Date     string `json:"date,omitempty"`
	Playlist string `json:"playlist,omitempty"`
}

// RatingPayload is sent with remote-set-rating.
type RatingPayload struct {
	Rating rating.Value `json:"rating"`
}

// DuckPayload is sent with remote-duck.
type DuckPayload struct {
	Paused    bool `json:"paused"`
	Permanent bool `json:"permanent"`
}

func (StatePayload) payload()        {}
func (ErrorPayload) payload()        {}
func (TrackChangedPayload) payload() {}
func (QueueEndedPayload) payload()   {}
func (RemotePayload) payload()       {}
func (SeekPayload) payload()         {}
func (JumpPayload) payload()         {}
func (PlayIDPayload) payload()       {}
func (SearchPayload) payload()       {}
func (RatingPayload) payload()       {}
func (DuckPayload) payload()         {}

// ErrorFrom builds an error payload from err.
func ErrorFrom(err error) ErrorPayload {
	k := failure.KindOf(err)
	return ErrorPayload{Kind: k, Code: k.String(), Message: err.Error()}
}
