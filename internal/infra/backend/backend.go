// Package backend defines the boundary to the native audio backend and ships
// an in-process simulator.
package backend

import (
	"context"
	"time"

	"github.com/osa030/trackcore/internal/domain/track"
)

// Backend decodes and outputs audio. Calls may block on native I/O; callers
// must not make them from a latency sensitive path.
type Backend interface {
	// Bind sets the callbacks that report progress. It is called once, before any other method.
	Bind(sink Sink)
	Load(ctx context.Context, t track.Track) error
	// Preload fetches the head of an upcoming track, up to ahead.
	Preload(ctx context.Context, t track.Track, ahead time.Duration) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Stop(ctx context.Context) error
	SeekTo(ctx context.Context, position time.Duration) error
	SetVolume(ctx context.Context, volume float64) error
	Unload(ctx context.Context) error
}

// Sink receives backend completions. Implementations must not block.
type Sink interface {
	// Buffered reports cached media [start, end) of trackID.
	Buffered(trackID string, start, end time.Duration, bytes int64)
	Progress(trackID string, position time.Duration)
	DurationKnown(trackID string, duration time.Duration)
	Ended(trackID string, position time.Duration)
	Failed(trackID string, err error)
	// Demand returns how much more of the current track may be prefetched.
	Demand(trackID string) time.Duration
}
