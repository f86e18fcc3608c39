// Package track provides the Track domain entity.
package track

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/osa030/trackcore/internal/domain/failure"
	"github.com/osa030/trackcore/internal/domain/rating"
)

var validate = validator.New()

// StreamType tells the backend how to open the source.
type StreamType string

const (
	TypeDefault         StreamType = "default"
	TypeDash            StreamType = "dash"
	TypeHLS             StreamType = "hls"
	TypeSmoothStreaming StreamType = "smoothstreaming"
)

// Metadata is the descriptive part of a track.
type Metadata struct {
	Title       string        `validate:"required"`
	Artist      string        `validate:"required"`
	Album       string        // Album name
	Description string        // Free text
	Genre       string        // Genre
	Date        string        // Release date as given by the host
	Rating      *rating.Value // Nil when unrated
	Artwork     string        // Artwork URL or resource reference
	Duration    time.Duration `validate:"gte=0"` // Zero until known
}

// Track represents a playable entry of the queue.
type Track struct {
	ID          string     `validate:"required"` // Unique within a queue
	URL         string     `validate:"required"` // Source reference, opaque to the core
	Type        StreamType `validate:"omitempty,oneof=default dash hls smoothstreaming"`
	ContentType string     // Optional MIME hint
	UserAgent   string     // Optional user agent for remote sources
	Metadata
	Extra Extra // Host passthrough data
}

// Validate checks the fields required to enqueue the track. Blank title and
// artist count as missing.
func (t *Track) Validate() error {
	c := *t
	c.Title = strings.TrimSpace(c.Title)
	c.Artist = strings.TrimSpace(c.Artist)
	if err := validate.Struct(&c); err != nil {
		var fields validator.ValidationErrors
		if !errors.As(err, &fields) {
			return errors.Mark(errors.Wrapf(err, "track %q", t.ID), failure.ErrInvalidTrack)
		}
		var missing []string
		for _, fe := range fields {
			switch {
			case fe.Tag() == "required":
				missing = append(missing, strings.ToLower(fe.Field()))
			case fe.Field() == "Type":
				return failure.InvalidTrackf("track %q has unknown stream type %q", t.ID, t.Type)
			case fe.Field() == "Duration":
				return failure.InvalidTrackf("track %q has negative duration", t.ID)
			default:
				return failure.InvalidTrackf("track %q: invalid %s", t.ID, fe.Field())
			}
		}
		return failure.InvalidTrackf("track %q is missing required fields: %s", t.ID, strings.Join(missing, ", "))
	}
	if err := t.Extra.Validate(); err != nil {
		return errors.Mark(errors.Wrapf(err, "track %q", t.ID), failure.ErrInvalidTrack)
	}
	return nil
}

// Clone returns a deep copy of the track.
func (t Track) Clone() Track {
	out := t
	if t.Rating != nil {
		r := *t.Rating
		out.Rating = &r
	}
	out.Extra = t.Extra.Clone()
	return out
}

// Patch carries a partial metadata update. Nil fields are left untouched.
type Patch struct {
	Title       *string
	Artist      *string
	Album       *string
	Description *string
	Genre       *string
	Date        *string
	Rating      *rating.Value
	Artwork     *string
	Duration    *time.Duration
	Extra       Extra // Merged key by key
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Artist == nil && p.Album == nil && p.Description == nil &&
		p.Genre == nil && p.Date == nil && p.Rating == nil && p.Artwork == nil &&
		p.Duration == nil && len(p.Extra) == 0
}

// Apply merges p into t and returns the result. t is not modified.
// The required fields keep their previous value when the patch blanks them.
func (t Track) Apply(p Patch) (Track, error) {
	out := t.Clone()
	setString(&out.Title, p.Title, true)
	setString(&out.Artist, p.Artist, true)
	setString(&out.Album, p.Album, false)
	setString(&out.Description, p.Description, false)
	setString(&out.Genre, p.Genre, false)
	setString(&out.Date, p.Date, false)
	setString(&out.Artwork, p.Artwork, false)
	if p.Rating != nil {
		r := *p.Rating
		out.Rating = &r
	}
	if p.Duration != nil {
		if *p.Duration < 0 {
			return t, failure.InvalidTrackf("negative duration for track %q", t.ID)
		}
		out.Duration = *p.Duration
	}
	if len(p.Extra) > 0 {
		merged := out.Extra.Clone()
		if merged == nil {
			merged = make(Extra, len(p.Extra))
		}
		for k, v := range p.Extra {
			merged[k] = v
		}
		if err := merged.Validate(); err != nil {
			return t, errors.Mark(errors.Wrapf(err, "track %q", t.ID), failure.ErrInvalidTrack)
		}
		out.Extra = merged
	}
	return out, nil
}

func setString(dst *string, src *string, required bool) {
	if src == nil {
		return
	}
	if required && strings.TrimSpace(*src) == "" {
		return
	}
	*dst = *src
}

// wireTrack mirrors the loosely-typed host representation of a track.
type wireTrack struct {
	ID          string         `mapstructure:"id"`
	URL         string         `mapstructure:"url"`
	Type        string         `mapstructure:"type"`
	ContentType string         `mapstructure:"contentType"`
	UserAgent   string         `mapstructure:"userAgent"`
	Title       string         `mapstructure:"title"`
	Artist      string         `mapstructure:"artist"`
	Album       string         `mapstructure:"album"`
	Description string         `mapstructure:"description"`
	Genre       string         `mapstructure:"genre"`
	Date        string         `mapstructure:"date"`
	Rating      any            `mapstructure:"rating"`
	Artwork     string         `mapstructure:"artwork"`
	Duration    float64        `mapstructure:"duration"` // Seconds
	Remain      map[string]any `mapstructure:",remain"`
}

// FromMap builds a track from its host representation. Unknown keys land in Extra.
func FromMap(raw map[string]any) (Track, error) {
	var w wireTrack
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &w,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Track{}, errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(raw); err != nil {
		return Track{}, errors.Mark(errors.Wrap(err, "failed to decode track"), failure.ErrInvalidTrack)
	}

	t := Track{
		ID:          w.ID,
		URL:         w.URL,
		Type:        StreamType(strings.ToLower(w.Type)),
		ContentType: w.ContentType,
		UserAgent:   w.UserAgent,
		Metadata: Metadata{
			Title:       w.Title,
			Artist:      w.Artist,
			Album:       w.Album,
			Description: w.Description,
			Genre:       w.Genre,
			Date:        w.Date,
			Artwork:     w.Artwork,
			Duration:    time.Duration(w.Duration * float64(time.Second)),
		},
	}
	if t.Type == "" {
		t.Type = TypeDefault
	}
	if w.Rating != nil {
		r, err := rating.FromAny(w.Rating)
		if err != nil {
			return Track{}, errors.Mark(err, failure.ErrInvalidTrack)
		}
		t.Rating = &r
	}
	if len(w.Remain) > 0 {
		t.Extra = Extra(w.Remain)
	}
	return t, nil
}

// ToMap returns the host representation of t, the inverse of FromMap.
// Empty optional fields are omitted.
func (t Track) ToMap() map[string]any {
	out := make(map[string]any, len(t.Extra)+8)
	for k, v := range t.Extra {
		out[k] = v
	}
	out["id"] = t.ID
	out["url"] = t.URL
	out["type"] = string(t.Type)
	out["title"] = t.Title
	out["artist"] = t.Artist
	optional := map[string]string{
		"contentType": t.ContentType,
		"userAgent":   t.UserAgent,
		"album":       t.Album,
		"description": t.Description,
		"genre":       t.Genre,
		"date":        t.Date,
		"artwork":     t.Artwork,
	}
	for k, v := range optional {
		if v != "" {
			out[k] = v
		}
	}
	if t.Rating != nil {
		out["rating"] = *t.Rating
	}
	if t.Duration > 0 {
		out["duration"] = t.Duration.Seconds()
	}
	return out
}

// PatchFromMap builds a metadata patch from its host representation.
// Keys absent from raw stay nil in the patch.
func PatchFromMap(raw map[string]any) (Patch, error) {
	var p Patch
	str := func(key string) (*string, error) {
		v, ok := raw[key]
		if !ok {
			return nil, nil
		}
		s, ok := v.(string)
		if !ok {
			return nil, errors.Newf("%s must be a string, got %T", key, v)
		}
		return &s, nil
	}

	var err error
	fields := []struct {
		key string
		dst **string
	}{
		{"title", &p.Title},
		{"artist", &p.Artist},
		{"album", &p.Album},
		{"description", &p.Description},
		{"genre", &p.Genre},
		{"date", &p.Date},
		{"artwork", &p.Artwork},
	}
	for _, f := range fields {
		if *f.dst, err = str(f.key); err != nil {
			return Patch{}, errors.Mark(err, failure.ErrInvalidTrack)
		}
	}

	if v, ok := raw["rating"]; ok && v != nil {
		r, err := rating.FromAny(v)
		if err != nil {
			return Patch{}, errors.Mark(err, failure.ErrInvalidTrack)
		}
		p.Rating = &r
	}
	if v, ok := raw["duration"]; ok && v != nil {
		var seconds float64
		if err := mapstructure.WeakDecode(v, &seconds); err != nil {
			return Patch{}, errors.Mark(errors.Wrap(err, "duration must be a number of seconds"), failure.ErrInvalidTrack)
		}
		d := time.Duration(seconds * float64(time.Second))
		p.Duration = &d
	}
	for k, v := range raw {
		if knownKeys[k] {
			continue
		}
		if p.Extra == nil {
			p.Extra = make(Extra)
		}
		p.Extra[k] = v
	}
	return p, nil
}

var knownKeys = map[string]bool{
	"id": true, "url": true, "type": true, "contentType": true, "userAgent": true,
	"title": true, "artist": true, "album": true, "description": true, "genre": true,
	"date": true, "rating": true, "artwork": true, "duration": true,
}
