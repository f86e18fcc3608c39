package metadata

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/trackcore/internal/app/queue"
	"github.com/osa030/trackcore/internal/app/remote"
	"github.com/osa030/trackcore/internal/domain/capability"
	"github.com/osa030/trackcore/internal/domain/failure"
	"github.com/osa030/trackcore/internal/domain/options"
	"github.com/osa030/trackcore/internal/domain/rating"
	"github.com/osa030/trackcore/internal/domain/track"
)

func newCoordinator(t *testing.T, ids ...string) *Coordinator {
	t.Helper()
	q := queue.New()
	tracks := make([]track.Track, 0, len(ids))
	for _, id := range ids {
		tracks = append(tracks, track.Track{
			ID:       id,
			URL:      "https://cdn.example.com/" + id + ".m4a",
			Metadata: track.Metadata{Title: "Song " + id, Artist: "Band", Genre: "Rock"},
		})
	}
	_, err := q.Replace(tracks...)
	require.NoError(t, err)
	return NewCoordinator(q)
}

func threeStars() options.Metadata {
	m := options.DefaultMetadata()
	m.RatingType = rating.ThreeStars
	return m
}

func TestCoordinator_RatingClamped(t *testing.T) {
	c := newCoordinator(t, "a")
	_, err := c.UpdateOptions(threeStars())
	require.NoError(t, err)

	r := rating.Score(5)
	got, err := c.UpdateMetadataForTrack("a", track.Patch{Rating: &r})
	require.NoError(t, err)
	require.NotNil(t, got.Rating)
	assert.Equal(t, rating.Score(3), *got.Rating)
}

func TestCoordinator_RatingNormalization(t *testing.T) {
	tests := []struct {
		name  string
		typ   rating.Type
		input rating.Value
		want  rating.Value
	}{
		{"negative stars", rating.FiveStars, rating.Score(-1), rating.Score(0)},
		{"percentage above", rating.Percentage, rating.Score(140), rating.Score(100)},
		{"bool onto stars", rating.FourStars, rating.Bool(true), rating.Score(4)},
		{"number onto heart", rating.Heart, rating.Score(0.5), rating.Bool(true)},
		{"zero onto thumbs", rating.ThumbsUpDown, rating.Score(0), rating.Bool(false)},
		{"none passes through", rating.None, rating.Score(42), rating.Score(42)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCoordinator(t, "a")
			m := options.DefaultMetadata()
			m.RatingType = tt.typ
			_, err := c.UpdateOptions(m)
			require.NoError(t, err)

			got, err := c.SetRating(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got.Rating)
		})
	}
}

func TestCoordinator_PatchKeepsOtherFieldsAndOrder(t *testing.T) {
	c := newCoordinator(t, "a", "b", "c")
	title := "Renamed"
	d := 3 * time.Minute
	got, err := c.UpdateMetadataForTrack("b", track.Patch{Title: &title, Duration: &d})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, "Band", got.Artist)
	assert.Equal(t, "Rock", got.Genre)
	assert.Equal(t, 3*time.Minute, got.Duration)

	snap := c.queue.Snapshot()
	assert.Equal(t, 0, snap.Index)
	assert.Equal(t, []string{"a", "b", "c"}, []string{snap.Tracks[0].ID, snap.Tracks[1].ID, snap.Tracks[2].ID})
}

func TestCoordinator_NotFound(t *testing.T) {
	c := newCoordinator(t, "a")
	title := "x"
	_, err := c.UpdateMetadataForTrack("zzz", track.Patch{Title: &title})
	assert.True(t, errors.Is(err, failure.ErrNotFound))

	empty := NewCoordinator(queue.New())
	_, err = empty.SetRating(rating.Score(1))
	assert.True(t, errors.Is(err, failure.ErrNotFound))
}

func TestCoordinator_UpdateOptionsRejectsAndKeepsPrevious(t *testing.T) {
	c := newCoordinator(t)
	_, err := c.UpdateOptions(threeStars())
	require.NoError(t, err)
	before := c.Options()

	bad := threeStars()
	bad.RatingType = rating.FiveStars
	bad.Compact = capability.Set{capability.Bookmark}
	got, err := c.UpdateOptions(bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, failure.ErrConfig))
	assert.Equal(t, before, got)
	assert.Equal(t, before, c.Options())
	assert.Equal(t, rating.ThreeStars, c.RatingType())
}

func TestCoordinator_ToggleFeedback(t *testing.T) {
	c := newCoordinator(t)

	fb, err := c.ToggleFeedback(remote.FeedbackLike)
	require.NoError(t, err)
	assert.True(t, fb.Active)
	assert.Equal(t, "Like", fb.Title)
	assert.True(t, c.Options().Like.Active)

	fb, err = c.ToggleFeedback(remote.FeedbackLike)
	require.NoError(t, err)
	assert.False(t, fb.Active)

	_, err = c.ToggleFeedback(remote.FeedbackBookmark)
	require.NoError(t, err)
	assert.True(t, c.Options().Bookmark.Active)
	assert.False(t, c.Options().Dislike.Active)

	_, err = c.ToggleFeedback(remote.Feedback(9))
	assert.True(t, errors.Is(err, failure.ErrConfig))
}
