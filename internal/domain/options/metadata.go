package options

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"

	"github.com/osa030/trackcore/internal/domain/capability"
	"github.com/osa030/trackcore/internal/domain/failure"
	"github.com/osa030/trackcore/internal/domain/rating"
)

// Feedback describes a like/dislike/bookmark control.
type Feedback struct {
	Active bool   `yaml:"active" json:"isActive"` // Marked as done
	Title  string `yaml:"title" json:"title"`
}

// Metadata configures the remote-control surfaces and rating domain.
type Metadata struct {
	capability.Sets `yaml:",inline" mapstructure:",squash"` // Flattened into the options object

	RatingType                      rating.Type       `yaml:"rating_type" json:"ratingType"`
	JumpInterval                    float64           `yaml:"jump_interval" json:"jumpInterval" default:"15" validate:"gt=0"` // Seconds
	Like                            Feedback          `yaml:"like" json:"likeOptions"`
	Dislike                         Feedback          `yaml:"dislike" json:"dislikeOptions"`
	Bookmark                        Feedback          `yaml:"bookmark" json:"bookmarkOptions"`
	StopWithApp                     bool              `yaml:"stop_with_app" json:"stopWithApp"`
	AlwaysPauseOnInterruption       bool              `yaml:"always_pause_on_interruption" json:"alwaysPauseOnInterruption"`
	HideArtworkLockScreenBackground bool              `yaml:"hide_artwork_lock_screen_background" json:"hideArtworkLockScreenBackground"`
	Icons                           map[string]string `yaml:"icons" json:"icons" validate:"dive,keys,oneof=icon playIcon pauseIcon stopIcon previousIcon nextIcon rewindIcon forwardIcon placeholderImage,endkeys"`
	Color                           uint32            `yaml:"color" json:"color"`
}

// DefaultMetadata returns the configuration active before any update.
func DefaultMetadata() Metadata {
	m := Metadata{
		Sets: capability.Sets{
			Full: capability.Set{
				capability.Play, capability.Pause, capability.Stop, capability.SeekTo,
				capability.SkipToNext, capability.SkipToPrevious,
			},
			Notification: capability.Set{capability.Play, capability.Pause, capability.Stop},
			Compact:      capability.Set{capability.Play, capability.Pause},
		},
	}
	m, _ = m.Prepare()
	return m
}

// Prepare applies defaults to unset fields and validates the result.
// Failures are ConfigErrors.
func (m Metadata) Prepare() (Metadata, error) {
	m = m.Clone()
	if err := defaults.Set(&m); err != nil {
		return Metadata{}, failure.Config(errors.Wrap(err, "failed to set metadata defaults"))
	}
	setTitle(&m.Like, "Like")
	setTitle(&m.Dislike, "Dislike")
	setTitle(&m.Bookmark, "Bookmark")
	if err := m.Validate(); err != nil {
		return Metadata{}, err
	}
	return m, nil
}

// Validate checks the rating type and the capability subset invariant.
func (m Metadata) Validate() error {
	if err := validate.Struct(m); err != nil {
		return failure.Config(errors.Wrap(err, "invalid metadata options"))
	}
	if !m.RatingType.Valid() {
		return failure.Configf("unknown rating type code %d", int(m.RatingType))
	}
	if err := m.Sets.Validate(); err != nil {
		return failure.Config(errors.Wrap(err, "invalid capabilities"))
	}
	return nil
}

// JumpIntervalDuration returns JumpInterval as a duration.
func (m Metadata) JumpIntervalDuration() time.Duration { return seconds(m.JumpInterval) }

// Clone returns a deep copy.
func (m Metadata) Clone() Metadata {
	out := m
	out.Sets = m.Sets.Clone()
	if m.Icons != nil {
		out.Icons = make(map[string]string, len(m.Icons))
		for k, v := range m.Icons {
			out.Icons[k] = v
		}
	}
	return out
}

func setTitle(f *Feedback, title string) {
	if f.Title == "" {
		f.Title = title
	}
}
