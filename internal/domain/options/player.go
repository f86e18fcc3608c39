// Package options provides the player and metadata option snapshots.
package options

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"

	"github.com/osa030/trackcore/internal/domain/failure"
)

var validate = validator.New()

// Player holds the buffering and audio-session settings fixed at setup time.
// Buffer sizes are in seconds, the cache ceiling in bytes (0 disables eviction).
type Player struct {
	MinBuffer          float64  `yaml:"min_buffer" json:"minBuffer" mapstructure:"minBuffer" default:"5" validate:"gte=0,ltefield=PlayBuffer"`
	PlayBuffer         float64  `yaml:"play_buffer" json:"playBuffer" mapstructure:"playBuffer" default:"10" validate:"gte=0,ltefield=MaxBuffer"`
	MaxBuffer          float64  `yaml:"max_buffer" json:"maxBuffer" mapstructure:"maxBuffer" default:"50" validate:"gt=0"`
	MaxCacheSize       int64    `yaml:"max_cache_size" json:"maxCacheSize" mapstructure:"maxCacheSize" validate:"gte=0"`
	IOSCategory        string   `yaml:"ios_category" json:"iosCategory" mapstructure:"iosCategory" default:"playback" validate:"oneof=playback playAndRecord multiRoute ambient soloAmbient record"`
	IOSCategoryMode    string   `yaml:"ios_category_mode" json:"iosCategoryMode" mapstructure:"iosCategoryMode" default:"default" validate:"oneof=default gameChat measurement moviePlayback spokenAudio videoChat videoRecording voiceChat voicePrompt"`
	IOSCategoryOptions []string `yaml:"ios_category_options" json:"iosCategoryOptions" mapstructure:"iosCategoryOptions" validate:"dive,oneof=mixWithOthers duckOthers interruptSpokenAudioAndMixWithOthers allowBluetooth allowBluetoothA2DP allowAirPlay defaultToSpeaker"`
	WaitForBuffer      bool     `yaml:"wait_for_buffer" json:"waitForBuffer" mapstructure:"waitForBuffer"`
}

// NewPlayer returns options populated with defaults.
func NewPlayer() Player {
	var p Player
	_ = defaults.Set(&p)
	return p
}

// Prepare applies defaults to unset fields and validates the result.
// Failures are ConfigErrors.
func (p Player) Prepare() (Player, error) {
	if err := defaults.Set(&p); err != nil {
		return Player{}, failure.Config(errors.Wrap(err, "failed to set player defaults"))
	}
	if err := p.Validate(); err != nil {
		return Player{}, err
	}
	return p, nil
}

// Validate checks field ranges and the buffer ordering min ≤ play ≤ max.
func (p Player) Validate() error {
	if err := validate.Struct(p); err != nil {
		return failure.Config(errors.Wrap(err, "invalid player options"))
	}
	return nil
}

// MinBufferDuration returns MinBuffer as a duration.
func (p Player) MinBufferDuration() time.Duration { return seconds(p.MinBuffer) }

// PlayBufferDuration returns PlayBuffer as a duration.
func (p Player) PlayBufferDuration() time.Duration { return seconds(p.PlayBuffer) }

// MaxBufferDuration returns MaxBuffer as a duration.
func (p Player) MaxBufferDuration() time.Duration { return seconds(p.MaxBuffer) }

// Clone returns a deep copy.
func (p Player) Clone() Player {
	out := p
	if p.IOSCategoryOptions != nil {
		out.IOSCategoryOptions = append([]string(nil), p.IOSCategoryOptions...)
	}
	return out
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
