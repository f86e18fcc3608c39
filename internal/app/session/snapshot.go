package session

import (
	"time"

	"github.com/osa030/trackcore/internal/app/playback"
	"github.com/osa030/trackcore/internal/domain/options"
	"github.com/osa030/trackcore/internal/domain/track"
)

// Snapshot is an immutable view of the session published after every command.
// Index is -1 or a valid position in Tracks.
type Snapshot struct {
	State       playback.State   `json:"state"`
	Tracks      []track.Track    `json:"tracks"`
	Index       int              `json:"index"`
	Position    time.Duration    `json:"position"`
	Duration    time.Duration    `json:"duration"`
	Buffered    time.Duration    `json:"buffered"` // Contiguous data ahead of the position
	Demand      time.Duration    `json:"-"`
	CachedBytes int64            `json:"cachedBytes"`
	PlayIntent  bool             `json:"playIntent"`
	Player      options.Player   `json:"player"`
	Metadata    options.Metadata `json:"metadata"`
}

// Current returns the current track.
func (s Snapshot) Current() (track.Track, bool) {
	if s.Index < 0 || s.Index >= len(s.Tracks) {
		return track.Track{}, false
	}
	return s.Tracks[s.Index], true
}

// CurrentID returns the id of the current track, or "".
func (s Snapshot) CurrentID() string {
	t, ok := s.Current()
	if !ok {
		return ""
	}
	return t.ID
}
