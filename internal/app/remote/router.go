package remote

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/trackcore/internal/app/notification"
	"github.com/osa030/trackcore/internal/domain/capability"
	"github.com/osa030/trackcore/internal/domain/failure"
	"github.com/osa030/trackcore/internal/domain/options"
	"github.com/osa030/trackcore/internal/domain/rating"
)

// Feedback selects a like/dislike/bookmark control.
type Feedback int

const (
	FeedbackLike Feedback = iota
	FeedbackDislike
	FeedbackBookmark
)

// String returns the string representation of the feedback control.
func (f Feedback) String() string {
	switch f {
	case FeedbackLike:
		return "like"
	case FeedbackDislike:
		return "dislike"
	case FeedbackBookmark:
		return "bookmark"
	default:
		return "unknown"
	}
}

// Executor carries out routed commands. Methods block until the command is
// applied. Rejected state transitions are reported by the executor itself and
// are not errors.
type Executor interface {
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Stop(ctx context.Context) error
	TogglePlayPause(ctx context.Context) error
	SkipTo(ctx context.Context, trackID string) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	Jump(ctx context.Context, delta time.Duration) error
	Seek(ctx context.Context, position time.Duration) error
	SetRating(ctx context.Context, v rating.Value) error
	Duck(ctx context.Context, paused, permanent bool) error
	ToggleFeedback(ctx context.Context, f Feedback) error
	PlaySearch(ctx context.Context, query notification.SearchPayload) error
}

// Emitter publishes events.
type Emitter interface {
	Emit(t notification.Type, p notification.Payload) notification.Event
}

// Command is a remote signal with its arguments.
type Command struct {
	Signal   Signal
	TrackID  string                     // skip, play-id
	Position time.Duration              // seek
	Interval time.Duration              // jump-forward, jump-backward; zero uses the configured interval
	Rating   rating.Value               // set-rating
	Duck     notification.DuckPayload   // duck
	Search   notification.SearchPayload // play-search
}

// Router gates remote signals on the configured capabilities.
type Router struct {
	mu           sync.RWMutex
	sets         capability.Sets
	jumpInterval time.Duration

	emitter  Emitter
	executor Executor
}

// NewRouter creates a router configured from m.
func NewRouter(m options.Metadata, emitter Emitter, executor Executor) *Router {
	return &Router{
		sets:         m.Sets.Clone(),
		jumpInterval: m.JumpIntervalDuration(),
		emitter:      emitter,
		executor:     executor,
	}
}

// Configure replaces the capability configuration. An invalid configuration
// fails with a ConfigError and the previous one stays active.
func (r *Router) Configure(m options.Metadata) error {
	if err := m.Sets.Validate(); err != nil {
		return failure.Config(errors.Wrap(err, "invalid remote capabilities"))
	}
	if m.JumpIntervalDuration() <= 0 {
		return failure.Configf("jump interval must be positive")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sets = m.Sets.Clone()
	r.jumpInterval = m.JumpIntervalDuration()
	zlog.Debug().Msgf("remote: configured: full=%v notification=%v compact=%v",
		r.sets.Full.Strings(), r.sets.Notification.Strings(), r.sets.Compact.Strings())
	return nil
}

// Capabilities returns the capabilities advertised on surface.
func (r *Router) Capabilities(surface capability.Surface) capability.Set {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sets.For(surface).Clone()
}

// Sets returns the active configuration.
func (r *Router) Sets() capability.Sets {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sets.Clone()
}

// JumpInterval returns the configured jump interval.
func (r *Router) JumpInterval() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.jumpInterval
}

// Enabled reports whether c is in the full capability set.
func (r *Router) Enabled(c capability.Capability) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sets.Full.Contains(c)
}

// Allows reports whether s may be executed.
func (r *Router) Allows(s Signal) bool {
	caps := s.Capabilities()
	if len(caps) == 0 {
		return true
	}
	for _, c := range caps {
		if r.Enabled(c) {
			return true
		}
	}
	return false
}

// Dispatch emits the remote event for cmd, then executes it if its capability
// is enabled. A disabled capability or a failed execution is reported as a
// playback-error event only; the call still succeeds. Unknown signals,
// argument faults and context errors are returned.
func (r *Router) Dispatch(ctx context.Context, cmd Command) error {
	info, ok := signals[cmd.Signal]
	if !ok {
		return errors.Wrapf(ErrUnknownSignal, "%q", cmd.Signal)
	}
	r.emitter.Emit(info.event, r.payload(cmd))

	if !r.Allows(cmd.Signal) {
		r.report(failure.Playbackf("remote %s: capability disabled", cmd.Signal))
		return nil
	}
	err := r.execute(ctx, cmd)
	if err == nil {
		return nil
	}
	err = errors.Wrapf(err, "remote %s", cmd.Signal)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if failure.KindOf(err) == failure.KindUnknown {
		err = failure.Playback(err)
	}
	r.report(err)
	switch failure.KindOf(err) {
	case failure.KindInvalidTransition, failure.KindPlayback:
		return nil
	default:
		return err
	}
}

func (r *Router) report(err error) {
	zlog.Warn().Err(err).Msg("remote: command failed")
	r.emitter.Emit(notification.TypePlaybackError, notification.ErrorFrom(err))
}

func (r *Router) interval(cmd Command) time.Duration {
	if cmd.Interval > 0 {
		return cmd.Interval
	}
	return r.JumpInterval()
}

func (r *Router) payload(cmd Command) notification.Payload {
	switch cmd.Signal {
	case SignalSeek:
		return notification.SeekPayload{Position: cmd.Position}
	case SignalJumpForward, SignalJumpBackward:
		return notification.JumpPayload{Interval: r.interval(cmd)}
	case SignalSkip, SignalPlayID:
		return notification.PlayIDPayload{ID: cmd.TrackID}
	case SignalSetRating:
		return notification.RatingPayload{Rating: cmd.Rating}
	case SignalDuck:
		return cmd.Duck
	case SignalPlaySearch:
		return cmd.Search
	default:
		return notification.RemotePayload{}
	}
}

func (r *Router) execute(ctx context.Context, cmd Command) error {
	x := r.executor
	switch cmd.Signal {
	case SignalPlay:
		return x.Play(ctx)
	case SignalPause:
		return x.Pause(ctx)
	case SignalStop:
		return x.Stop(ctx)
	case SignalPlayPause:
		return x.TogglePlayPause(ctx)
	case SignalSkip, SignalPlayID:
		return x.SkipTo(ctx, cmd.TrackID)
	case SignalNext:
		return x.Next(ctx)
	case SignalPrevious:
		return x.Previous(ctx)
	case SignalJumpForward:
		return x.Jump(ctx, r.interval(cmd))
	case SignalJumpBackward:
		return x.Jump(ctx, -r.interval(cmd))
	case SignalSeek:
		return x.Seek(ctx, cmd.Position)
	case SignalSetRating:
		return x.SetRating(ctx, cmd.Rating)
	case SignalDuck:
		return x.Duck(ctx, cmd.Duck.Paused, cmd.Duck.Permanent)
	case SignalLike:
		return x.ToggleFeedback(ctx, FeedbackLike)
	case SignalDislike:
		return x.ToggleFeedback(ctx, FeedbackDislike)
	case SignalBookmark:
		return x.ToggleFeedback(ctx, FeedbackBookmark)
	case SignalPlaySearch:
		return x.PlaySearch(ctx, cmd.Search)
	}
	return errors.Wrapf(ErrUnknownSignal, "%q", cmd.Signal)
}
