// Package rating defines rating types and value normalization.
package rating

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/cockroachdb/errors"
)

// Type is the domain of accepted rating values. Codes are part of the host
// contract and must never be renumbered.
type Type int

const (
	None         Type = 0 // Ratings are stored as given
	Heart        Type = 1
	ThumbsUpDown Type = 2
	ThreeStars   Type = 3
	FourStars    Type = 4
	FiveStars    Type = 5
	Percentage   Type = 6
)

var typeNames = map[Type]string{
	None:         "none",
	Heart:        "heart",
	ThumbsUpDown: "thumbs-up-down",
	ThreeStars:   "3-stars",
	FourStars:    "4-stars",
	FiveStars:    "5-stars",
	Percentage:   "percentage",
}

// Valid reports whether t is a known rating type.
func (t Type) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

// String returns the stable name of the rating type.
func (t Type) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return "unknown"
}

// ParseType resolves a stable name to its rating type.
func ParseType(name string) (Type, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, errors.Newf("unknown rating type %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, errors.Newf("unknown rating type code %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// IsBoolean reports whether the type only accepts liked/not-liked values.
func (t Type) IsBoolean() bool {
	return t == Heart || t == ThumbsUpDown
}

// Max returns the upper bound of the numeric domain.
func (t Type) Max() float64 {
	switch t {
	case Heart, ThumbsUpDown:
		return 1
	case ThreeStars:
		return 3
	case FourStars:
		return 4
	case FiveStars:
		return 5
	case Percentage:
		return 100
	default:
		return math.Inf(1)
	}
}

// ValueKind tells which field of a Value is meaningful.
type ValueKind int

const (
	KindScore ValueKind = iota
	KindBool
)

// Value is a rating as submitted by a host: either a boolean or a number.
type Value struct {
	Kind  ValueKind
	Liked bool
	Score float64
}

// Bool builds a boolean rating.
func Bool(liked bool) Value {
	return Value{Kind: KindBool, Liked: liked}
}

// Score builds a numeric rating.
func Score(score float64) Value {
	return Value{Kind: KindScore, Score: score}
}

// Normalize maps v onto the domain of t. Out-of-range numbers are clamped to
// the nearest bound, booleans become 0 or the maximum, numbers become booleans
// when t is boolean.
func (t Type) Normalize(v Value) Value {
	if t == None || !t.Valid() {
		return v
	}
	if t.IsBoolean() {
		if v.Kind == KindBool {
			return v
		}
		return Bool(v.Score > 0)
	}
	if v.Kind == KindBool {
		if v.Liked {
			return Score(t.Max())
		}
		return Score(0)
	}
	score := v.Score
	if math.IsNaN(score) {
		score = 0
	}
	return Score(math.Min(math.Max(score, 0), t.Max()))
}

// MarshalJSON encodes the value as a JSON boolean or number.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.Kind == KindBool {
		return json.Marshal(v.Liked)
	}
	return json.Marshal(v.Score)
}

// UnmarshalJSON accepts a JSON boolean or number.
func (v *Value) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*v = Bool(b)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return errors.Wrap(err, "rating must be a boolean or a number")
	}
	*v = Score(f)
	return nil
}

// FromAny converts a decoded loosely-typed value (bool or any number).
func FromAny(raw any) (Value, error) {
	switch x := raw.(type) {
	case bool:
		return Bool(x), nil
	case float64:
		return Score(x), nil
	case float32:
		return Score(float64(x)), nil
	case int:
		return Score(float64(x)), nil
	case int64:
		return Score(float64(x)), nil
	case Value:
		return x, nil
	default:
		return Value{}, errors.Newf("rating must be a boolean or a number, got %T", raw)
	}
}
