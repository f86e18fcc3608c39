// Package failure defines the error kinds surfaced by the playback core.
package failure

import "github.com/cockroachdb/errors"

// Kind sentinels. Errors carry a kind through errors.Mark and are tested with errors.Is.
var (
	ErrConfig            = errors.New("config error")
	ErrInvalidTrack      = errors.New("invalid track")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrPlayback          = errors.New("playback error")
)

// Kind is the stable identifier of an error kind.
type Kind int

const (
	KindUnknown           Kind = 0
	KindConfig            Kind = 1
	KindInvalidTrack      Kind = 2
	KindNotFound          Kind = 3
	KindInvalidTransition Kind = 4
	KindPlayback          Kind = 5
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindInvalidTrack:
		return "invalid_track"
	case KindNotFound:
		return "not_found"
	case KindInvalidTransition:
		return "invalid_transition"
	case KindPlayback:
		return "playback"
	default:
		return "unknown"
	}
}

// KindOf classifies err. Unmarked errors are reported as KindUnknown.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrConfig):
		return KindConfig
	case errors.Is(err, ErrInvalidTrack):
		return KindInvalidTrack
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidTransition):
		return KindInvalidTransition
	case errors.Is(err, ErrPlayback):
		return KindPlayback
	default:
		return KindUnknown
	}
}

// Config marks err as a configuration error.
func Config(err error) error {
	return errors.Mark(err, ErrConfig)
}

// Configf builds a configuration error.
func Configf(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrConfig)
}

// InvalidTrackf builds an invalid track error.
func InvalidTrackf(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrInvalidTrack)
}

// NotFoundf builds a not found error.
func NotFoundf(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrNotFound)
}

// InvalidTransitionf builds an invalid transition error.
func InvalidTransitionf(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrInvalidTransition)
}

// Playback marks err as a runtime playback fault.
func Playback(err error) error {
	if err == nil {
		return nil
	}
	return errors.Mark(err, ErrPlayback)
}

// Playbackf builds a runtime playback fault.
func Playbackf(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrPlayback)
}
