// Package queue provides the ordered track list and its current-index pointer.
package queue

import (
	"github.com/cockroachdb/errors"

	"github.com/osa030/trackcore/internal/domain/failure"
	"github.com/osa030/trackcore/internal/domain/track"
)

// Errors
var (
	ErrNoSuccessor  = errors.New("no next track")
	ErrNoPrevious   = errors.New("no previous track")
	ErrNotBuffered  = errors.New("next track is not sufficiently buffered")
	ErrDuplicateIDs = errors.New("duplicate track id")
)

// Gate confirms that a track is buffered enough to become current.
type Gate interface {
	Confirm(trackID string) bool
}

// Change describes a move of the current-track pointer.
type Change struct {
	Previous      *track.Track // Nil when the queue was empty
	Current       *track.Track // Nil when the queue became empty
	PreviousIndex int
	Index         int
}

// Snapshot is an immutable copy of the queue. Index is -1 or a valid position in Tracks.
type Snapshot struct {
	Tracks []track.Track
	Index  int
}

// Current returns the current track of the snapshot.
func (s Snapshot) Current() (track.Track, bool) {
	if s.Index < 0 || s.Index >= len(s.Tracks) {
		return track.Track{}, false
	}
	return s.Tracks[s.Index], true
}

// Queue is the ordered track list. Index is -1 when empty and valid otherwise.
// It is not safe for concurrent use; the session serializes access.
type Queue struct {
	tracks []track.Track
	index  int
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{index: -1}
}

// SetNowPlaying replaces the queue with t and makes it current.
// An invalid track leaves the queue untouched.
func (q *Queue) SetNowPlaying(t track.Track) (Change, error) {
	return q.Replace(t)
}

// Replace validates tracks and replaces the whole queue, pointing at the first.
// On error nothing changes.
func (q *Queue) Replace(tracks ...track.Track) (Change, error) {
	seen := make(map[string]bool, len(tracks))
	next := make([]track.Track, 0, len(tracks))
	for i := range tracks {
		t := tracks[i].Clone()
		if t.Type == "" {
			t.Type = track.TypeDefault
		}
		if err := t.Validate(); err != nil {
			return Change{}, err
		}
		if seen[t.ID] {
			return Change{}, errors.Mark(errors.Wrapf(ErrDuplicateIDs, "track %q", t.ID), failure.ErrInvalidTrack)
		}
		seen[t.ID] = true
		next = append(next, t)
	}

	ch := Change{Previous: q.currentPtr(), PreviousIndex: q.index, Index: -1}
	q.tracks = next
	q.index = -1
	if len(next) > 0 {
		q.index = 0
	}
	ch.Current = q.currentPtr()
	ch.Index = q.index
	return ch, nil
}

// Reset empties the queue.
func (q *Queue) Reset() Change {
	ch := Change{Previous: q.currentPtr(), PreviousIndex: q.index, Index: -1}
	q.tracks = nil
	q.index = -1
	return ch
}

// Current returns the current track.
func (q *Queue) Current() (track.Track, bool) {
	if q.index < 0 {
		return track.Track{}, false
	}
	return q.tracks[q.index].Clone(), true
}

func (q *Queue) currentPtr() *track.Track {
	t, ok := q.Current()
	if !ok {
		return nil
	}
	return &t
}

// Index returns the current position, -1 when empty.
func (q *Queue) Index() int {
	return q.index
}

// Len returns the number of tracks.
func (q *Queue) Len() int {
	return len(q.tracks)
}

// IsEmpty reports whether the queue has no tracks.
func (q *Queue) IsEmpty() bool {
	return len(q.tracks) == 0
}

// Find returns the position of the track with the given id.
func (q *Queue) Find(id string) (int, bool) {
	for i := range q.tracks {
		if q.tracks[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// HasNext reports whether a track follows the current one.
func (q *Queue) HasNext() bool {
	return q.index >= 0 && q.index < len(q.tracks)-1
}

// HasPrevious reports whether a track precedes the current one.
func (q *Queue) HasPrevious() bool {
	return q.index > 0
}

// JumpTo makes the track with the given id current.
func (q *Queue) JumpTo(id string) (Change, error) {
	i, ok := q.Find(id)
	if !ok {
		return Change{}, failure.NotFoundf("track %q is not in the queue", id)
	}
	return q.moveTo(i), nil
}

// Advance moves to the next track. Unless force is set, gate must confirm that
// the next track is buffered enough.
func (q *Queue) Advance(gate Gate, force bool) (Change, error) {
	if !q.HasNext() {
		return Change{}, errors.Mark(ErrNoSuccessor, failure.ErrInvalidTransition)
	}
	next := q.tracks[q.index+1]
	if !force && gate != nil && !gate.Confirm(next.ID) {
		return Change{}, errors.Mark(errors.Wrapf(ErrNotBuffered, "track %q", next.ID), failure.ErrPlayback)
	}
	return q.moveTo(q.index + 1), nil
}

// Previous moves to the preceding track.
func (q *Queue) Previous() (Change, error) {
	if !q.HasPrevious() {
		return Change{}, errors.Mark(ErrNoPrevious, failure.ErrInvalidTransition)
	}
	return q.moveTo(q.index - 1), nil
}

func (q *Queue) moveTo(i int) Change {
	ch := Change{Previous: q.currentPtr(), PreviousIndex: q.index}
	q.index = i
	ch.Current = q.currentPtr()
	ch.Index = q.index
	return ch
}

// Patch applies a metadata patch to the track with the given id without
// touching order or index.
func (q *Queue) Patch(id string, p track.Patch) (track.Track, error) {
	i, ok := q.Find(id)
	if !ok {
		return track.Track{}, failure.NotFoundf("track %q is not in the queue", id)
	}
	updated, err := q.tracks[i].Apply(p)
	if err != nil {
		return track.Track{}, err
	}
	q.tracks[i] = updated
	return updated.Clone(), nil
}

// Snapshot returns an immutable copy of the queue.
func (q *Queue) Snapshot() Snapshot {
	tracks := make([]track.Track, len(q.tracks))
	for i := range q.tracks {
		tracks[i] = q.tracks[i].Clone()
	}
	return Snapshot{Tracks: tracks, Index: q.index}
}
