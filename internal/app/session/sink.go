package session

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/trackcore/internal/app/buffer"
	"github.com/osa030/trackcore/internal/domain/failure"
	"github.com/osa030/trackcore/internal/infra/backend"
)

// sink feeds backend completions back into the session loop.
type sink struct {
	m *Manager
}

var _ backend.Sink = sink{}

func (k sink) Buffered(trackID string, start, end time.Duration, bytes int64) {
	k.m.post("buffered", func() error {
		k.m.buffered(trackID, buffer.Segment{Start: start, End: end, Bytes: bytes})
		return nil
	})
}

func (k sink) Progress(trackID string, position time.Duration) {
	k.m.post("progress", func() error {
		if trackID != k.m.buffer.TrackID() || k.m.pendingAdvance {
			return nil
		}
		k.m.position = position
		k.m.buffer.Advance(position)
		k.m.evaluate()
		return nil
	})
}

func (k sink) DurationKnown(trackID string, duration time.Duration) {
	k.m.post("duration", func() error {
		k.m.setDuration(trackID, duration)
		return nil
	})
}

func (k sink) Ended(trackID string, position time.Duration) {
	k.m.post("ended", func() error {
		if trackID != k.m.buffer.TrackID() {
			return nil
		}
		k.m.trackEnded(position)
		return nil
	})
}

func (k sink) Failed(trackID string, err error) {
	k.m.post("failed", func() error {
		return failure.Playback(errors.Wrapf(err, "track %q", trackID))
	})
}

// Demand reads the published snapshot; it may be called from any goroutine.
func (k sink) Demand(trackID string) time.Duration {
	snap := k.m.snapshot.Load()
	if snap == nil || snap.CurrentID() != trackID {
		return 0
	}
	return snap.Demand
}
