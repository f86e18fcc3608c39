// Package capability defines the remote-control actions a session advertises.
package capability

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Capability identifies a remote action. Codes and names are part of the host
// contract and must never be renumbered or renamed.
type Capability int

const (
	Play           Capability = 0
	PlayFromID     Capability = 1
	PlayFromSearch Capability = 2
	Pause          Capability = 3
	Stop           Capability = 4
	SeekTo         Capability = 5
	Skip           Capability = 6
	SkipToNext     Capability = 7
	SkipToPrevious Capability = 8
	SetRating      Capability = 9
	JumpForward    Capability = 10
	JumpBackward   Capability = 11
	Like           Capability = 12
	Dislike        Capability = 13
	Bookmark       Capability = 14
)

var names = map[Capability]string{
	Play:           "play",
	PlayFromID:     "play-from-id",
	PlayFromSearch: "play-from-search",
	Pause:          "pause",
	Stop:           "stop",
	SeekTo:         "seek-to",
	Skip:           "skip",
	SkipToNext:     "skip-to-next",
	SkipToPrevious: "skip-to-previous",
	SetRating:      "set-rating",
	JumpForward:    "jump-forward",
	JumpBackward:   "jump-backward",
	Like:           "like",
	Dislike:        "dislike",
	Bookmark:       "bookmark",
}

// All returns every known capability in code order.
func All() []Capability {
	out := make([]Capability, 0, len(names))
	for c := Play; c <= Bookmark; c++ {
		out = append(out, c)
	}
	return out
}

// Valid reports whether c is a known capability.
func (c Capability) Valid() bool {
	_, ok := names[c]
	return ok
}

// String returns the stable name of the capability.
func (c Capability) String() string {
	if n, ok := names[c]; ok {
		return n
	}
	return "unknown"
}

// Parse resolves a stable name to its capability.
func Parse(name string) (Capability, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for c, n := range names {
		if n == name {
			return c, nil
		}
	}
	return 0, errors.Newf("unknown capability %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (c Capability) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, errors.Newf("unknown capability code %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Capability) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Set is an unordered collection of capabilities. The zero value is empty.
type Set []Capability

// Contains reports whether c is in the set.
func (s Set) Contains(c Capability) bool {
	for _, x := range s {
		if x == c {
			return true
		}
	}
	return false
}

// SubsetOf reports whether every member of s is in other.
func (s Set) SubsetOf(other Set) bool {
	for _, c := range s {
		if !other.Contains(c) {
			return false
		}
	}
	return true
}

// Missing returns the members of s absent from other.
func (s Set) Missing(other Set) Set {
	var out Set
	for _, c := range s {
		if !other.Contains(c) {
			out = append(out, c)
		}
	}
	return out
}

// Validate checks that every member is a known capability.
func (s Set) Validate() error {
	for _, c := range s {
		if !c.Valid() {
			return errors.Newf("unknown capability code %d", int(c))
		}
	}
	return nil
}

// Clone returns a copy of the set.
func (s Set) Clone() Set {
	if s == nil {
		return nil
	}
	out := make(Set, len(s))
	copy(out, s)
	return out
}

// Strings returns the stable names of the members.
func (s Set) Strings() []string {
	out := make([]string, len(s))
	for i, c := range s {
		out[i] = c.String()
	}
	return out
}

// Surface selects one of the three advertised capability sets.
type Surface int

const (
	SurfaceFull         Surface = iota // Full media session (lock screen, headset, car)
	SurfaceNotification                // Expanded notification
	SurfaceCompact                     // Compact notification
)

// String returns the string representation of the surface.
func (s Surface) String() string {
	switch s {
	case SurfaceFull:
		return "full"
	case SurfaceNotification:
		return "notification"
	case SurfaceCompact:
		return "compact"
	default:
		return "unknown"
	}
}

// Sets groups the three advertised capability sets.
type Sets struct {
	Full         Set `yaml:"capabilities" json:"capabilities"`
	Notification Set `yaml:"notification_capabilities" json:"notificationCapabilities"`
	Compact      Set `yaml:"compact_capabilities" json:"compactCapabilities"`
}

// Validate enforces notification ⊆ full and compact ⊆ full.
func (s Sets) Validate() error {
	for _, set := range []Set{s.Full, s.Notification, s.Compact} {
		if err := set.Validate(); err != nil {
			return err
		}
	}
	if missing := s.Notification.Missing(s.Full); len(missing) > 0 {
		return errors.Newf("notification capabilities %v are not in capabilities", missing.Strings())
	}
	if missing := s.Compact.Missing(s.Full); len(missing) > 0 {
		return errors.Newf("compact capabilities %v are not in capabilities", missing.Strings())
	}
	return nil
}

// For returns the set advertised on the given surface.
func (s Sets) For(surface Surface) Set {
	switch surface {
	case SurfaceNotification:
		return s.Notification
	case SurfaceCompact:
		return s.Compact
	default:
		return s.Full
	}
}

// Clone returns a deep copy.
func (s Sets) Clone() Sets {
	return Sets{
		Full:         s.Full.Clone(),
		Notification: s.Notification.Clone(),
		Compact:      s.Compact.Clone(),
	}
}
