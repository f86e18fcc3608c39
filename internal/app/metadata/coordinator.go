// Package metadata applies metadata patches to queued tracks and keeps the
// active metadata options.
package metadata

import (
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/trackcore/internal/app/queue"
	"github.com/osa030/trackcore/internal/app/remote"
	"github.com/osa030/trackcore/internal/domain/failure"
	"github.com/osa030/trackcore/internal/domain/options"
	"github.com/osa030/trackcore/internal/domain/rating"
	"github.com/osa030/trackcore/internal/domain/track"
)

// Coordinator owns the metadata options and patches tracks in the queue.
// It is not safe for concurrent use; the session serializes access.
type Coordinator struct {
	opts  options.Metadata
	queue *queue.Queue
}

// NewCoordinator creates a coordinator over q with the default options.
func NewCoordinator(q *queue.Queue) *Coordinator {
	return &Coordinator{
		opts:  options.DefaultMetadata(),
		queue: q,
	}
}

// Options returns a copy of the active options.
func (c *Coordinator) Options() options.Metadata {
	return c.opts.Clone()
}

// UpdateOptions replaces the active options. Invalid options fail with a
// ConfigError and the previous options stay active.
func (c *Coordinator) UpdateOptions(m options.Metadata) (options.Metadata, error) {
	prepared, err := m.Prepare()
	if err != nil {
		return c.Options(), err
	}
	c.opts = prepared
	zlog.Debug().Msgf("metadata: options updated: rating=%s jump=%v", prepared.RatingType, prepared.JumpIntervalDuration())
	return c.Options(), nil
}

// RatingType returns the active rating type.
func (c *Coordinator) RatingType() rating.Type {
	return c.opts.RatingType
}

// Normalize maps v onto the active rating domain.
func (c *Coordinator) Normalize(v rating.Value) rating.Value {
	return c.opts.RatingType.Normalize(v)
}

// UpdateMetadataForTrack merges p into the track with the given id. Ratings
// are clamped to the active rating domain. Order and index are untouched.
func (c *Coordinator) UpdateMetadataForTrack(id string, p track.Patch) (track.Track, error) {
	if p.Rating != nil {
		r := c.Normalize(*p.Rating)
		p.Rating = &r
	}
	t, err := c.queue.Patch(id, p)
	if err != nil {
		return track.Track{}, err
	}
	zlog.Debug().Msgf("metadata: track updated: id=%s", id)
	return t, nil
}

// SetRating rates the current track.
func (c *Coordinator) SetRating(v rating.Value) (track.Track, error) {
	cur, ok := c.queue.Current()
	if !ok {
		return track.Track{}, failure.NotFoundf("no current track to rate")
	}
	return c.UpdateMetadataForTrack(cur.ID, track.Patch{Rating: &v})
}

// ToggleFeedback flips the active flag of a feedback control and returns it.
func (c *Coordinator) ToggleFeedback(f remote.Feedback) (options.Feedback, error) {
	var fb *options.Feedback
	switch f {
	case remote.FeedbackLike:
		fb = &c.opts.Like
	case remote.FeedbackDislike:
		fb = &c.opts.Dislike
	case remote.FeedbackBookmark:
		fb = &c.opts.Bookmark
	default:
		return options.Feedback{}, failure.Configf("unknown feedback control %d", int(f))
	}
	fb.Active = !fb.Active
	zlog.Debug().Msgf("metadata: %s active=%t", f, fb.Active)
	return *fb, nil
}
