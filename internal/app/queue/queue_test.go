package queue

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/trackcore/internal/domain/failure"
	"github.com/osa030/trackcore/internal/domain/rating"
	"github.com/osa030/trackcore/internal/domain/track"
)

func newTrack(id string) track.Track {
	return track.Track{
		ID:  id,
		URL: "file:///music/" + id + ".mp3",
		Metadata: track.Metadata{
			Title:  "Title " + id,
			Artist: "Artist",
		},
	}
}

type gateFunc func(string) bool

func (f gateFunc) Confirm(id string) bool { return f(id) }

func TestQueue_SetNowPlaying(t *testing.T) {
	q := New()
	assert.Equal(t, -1, q.Index())

	ch, err := q.SetNowPlaying(newTrack("a"))
	require.NoError(t, err)
	assert.Nil(t, ch.Previous)
	require.NotNil(t, ch.Current)
	assert.Equal(t, "a", ch.Current.ID)
	assert.Equal(t, 0, q.Index())
	assert.Equal(t, track.TypeDefault, ch.Current.Type)

	ch, err = q.SetNowPlaying(newTrack("b"))
	require.NoError(t, err)
	require.NotNil(t, ch.Previous)
	assert.Equal(t, "a", ch.Previous.ID)
	assert.Equal(t, 1, q.Len(), "set now playing replaces the queue")
}

func TestQueue_SetNowPlayingInvalidLeavesQueue(t *testing.T) {
	q := New()
	_, err := q.SetNowPlaying(newTrack("a"))
	require.NoError(t, err)

	bad := newTrack("b")
	bad.Artist = ""
	_, err = q.SetNowPlaying(bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, failure.ErrInvalidTrack))

	cur, ok := q.Current()
	require.True(t, ok)
	assert.Equal(t, "a", cur.ID)
	assert.Equal(t, 0, q.Index())
}

func TestQueue_ReplaceRejectsDuplicates(t *testing.T) {
	q := New()
	_, err := q.Replace(newTrack("a"), newTrack("a"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateIDs))
	assert.True(t, q.IsEmpty())
}

func TestQueue_Reset(t *testing.T) {
	q := New()
	_, err := q.Replace(newTrack("a"), newTrack("b"))
	require.NoError(t, err)

	ch := q.Reset()
	require.NotNil(t, ch.Previous)
	assert.Nil(t, ch.Current)
	assert.Equal(t, -1, q.Index())
	assert.True(t, q.IsEmpty())

	// Resetting an empty queue is a no-op.
	ch = q.Reset()
	assert.Nil(t, ch.Previous)
}

func TestQueue_IndexNeverDangles(t *testing.T) {
	q := New()
	rng := rand.New(rand.NewSource(7))

	for i := range 500 {
		switch rng.Intn(3) {
		case 0:
			_, _ = q.SetNowPlaying(newTrack(fmt.Sprintf("t%d", i)))
		case 1:
			bad := newTrack(fmt.Sprintf("bad%d", i))
			bad.Title = ""
			_, _ = q.SetNowPlaying(bad)
		case 2:
			q.Reset()
		}

		snap := q.Snapshot()
		if len(snap.Tracks) == 0 {
			assert.Equal(t, -1, snap.Index)
		} else {
			assert.GreaterOrEqual(t, snap.Index, 0)
			assert.Less(t, snap.Index, len(snap.Tracks))
		}
	}
}

func TestQueue_AdvanceGated(t *testing.T) {
	q := New()
	_, err := q.Replace(newTrack("a"), newTrack("b"))
	require.NoError(t, err)

	_, err = q.Advance(gateFunc(func(string) bool { return false }), false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotBuffered))
	assert.True(t, errors.Is(err, failure.ErrPlayback))
	assert.Equal(t, 0, q.Index())

	ch, err := q.Advance(gateFunc(func(string) bool { return false }), true)
	require.NoError(t, err)
	assert.Equal(t, 1, ch.Index)
	assert.Equal(t, "b", ch.Current.ID)

	_, err = q.Advance(nil, true)
	assert.True(t, errors.Is(err, ErrNoSuccessor))
	assert.True(t, errors.Is(err, failure.ErrInvalidTransition))
}

func TestQueue_PreviousAndJump(t *testing.T) {
	q := New()
	_, err := q.Replace(newTrack("a"), newTrack("b"), newTrack("c"))
	require.NoError(t, err)

	_, err = q.Previous()
	assert.True(t, errors.Is(err, ErrNoPrevious))

	ch, err := q.JumpTo("c")
	require.NoError(t, err)
	assert.Equal(t, 2, ch.Index)
	assert.False(t, q.HasNext())

	ch, err = q.Previous()
	require.NoError(t, err)
	assert.Equal(t, "b", ch.Current.ID)

	_, err = q.JumpTo("zzz")
	assert.True(t, errors.Is(err, failure.ErrNotFound))
}

func TestQueue_Patch(t *testing.T) {
	q := New()
	_, err := q.Replace(newTrack("a"), newTrack("b"))
	require.NoError(t, err)

	album := "Album"
	r := rating.Score(2)
	updated, err := q.Patch("b", track.Patch{Album: &album, Rating: &r})
	require.NoError(t, err)
	assert.Equal(t, "Album", updated.Album)
	assert.Equal(t, "Title b", updated.Title)
	assert.Equal(t, 0, q.Index(), "patch keeps the index")

	snap := q.Snapshot()
	assert.Equal(t, "a", snap.Tracks[0].ID)
	assert.Equal(t, "Album", snap.Tracks[1].Album)

	_, err = q.Patch("missing", track.Patch{Album: &album})
	assert.True(t, errors.Is(err, failure.ErrNotFound))
}

func TestQueue_SnapshotIsIndependent(t *testing.T) {
	q := New()
	_, err := q.SetNowPlaying(newTrack("a"))
	require.NoError(t, err)

	snap := q.Snapshot()
	snap.Tracks[0].Title = "changed"

	cur, ok := q.Current()
	require.True(t, ok)
	assert.Equal(t, "Title a", cur.Title)

	got, ok := snap.Current()
	require.True(t, ok)
	assert.Equal(t, "changed", got.Title)
}
