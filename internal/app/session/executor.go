package session

import (
	"context"
	"time"

	"github.com/osa030/trackcore/internal/app/notification"
	"github.com/osa030/trackcore/internal/app/remote"
	"github.com/osa030/trackcore/internal/domain/rating"
)

// executor applies routed remote commands on the session loop.
type executor struct {
	m *Manager
}

var _ remote.Executor = executor{}

func (x executor) Play(ctx context.Context) error {
	return x.m.do(ctx, "remote-play", func() error {
		x.m.play(false)
		return nil
	})
}

func (x executor) Pause(ctx context.Context) error {
	return x.m.do(ctx, "remote-pause", func() error {
		x.m.pause()
		return nil
	})
}

func (x executor) Stop(ctx context.Context) error {
	return x.m.do(ctx, "remote-stop", func() error {
		x.m.stop()
		return nil
	})
}

func (x executor) TogglePlayPause(ctx context.Context) error {
	return x.m.do(ctx, "remote-play-pause", func() error {
		x.m.togglePlayPause()
		return nil
	})
}

func (x executor) SkipTo(ctx context.Context, trackID string) error {
	return x.m.do(ctx, "remote-skip", func() error {
		return x.m.skipTo(trackID)
	})
}

// Next is an explicit skip and bypasses the preload gate.
func (x executor) Next(ctx context.Context) error {
	return x.m.do(ctx, "remote-next", func() error {
		return x.m.advance(true)
	})
}

func (x executor) Previous(ctx context.Context) error {
	return x.m.do(ctx, "remote-previous", func() error {
		return x.m.previous()
	})
}

func (x executor) Jump(ctx context.Context, delta time.Duration) error {
	return x.m.do(ctx, "remote-jump", func() error {
		x.m.seek(x.m.position + delta)
		return nil
	})
}

func (x executor) Seek(ctx context.Context, position time.Duration) error {
	return x.m.do(ctx, "remote-seek", func() error {
		x.m.seek(position)
		return nil
	})
}

func (x executor) SetRating(ctx context.Context, v rating.Value) error {
	return x.m.do(ctx, "remote-set-rating", func() error {
		_, err := x.m.meta.SetRating(v)
		return err
	})
}

func (x executor) Duck(ctx context.Context, paused, permanent bool) error {
	return x.m.do(ctx, "remote-duck", func() error {
		x.m.duck(paused, permanent)
		return nil
	})
}

func (x executor) ToggleFeedback(ctx context.Context, f remote.Feedback) error {
	return x.m.do(ctx, "remote-"+f.String(), func() error {
		_, err := x.m.meta.ToggleFeedback(f)
		return err
	})
}

// PlaySearch has no catalog to search; the remote-play-search event is the
// whole effect.
func (x executor) PlaySearch(context.Context, notification.SearchPayload) error {
	return nil
}
