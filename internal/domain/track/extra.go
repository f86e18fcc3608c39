package track

import "github.com/cockroachdb/errors"

// MaxExtraKeys bounds the passthrough map carried by a track.
const MaxExtraKeys = 32

// Extra is forward-compatible passthrough data attached by the host.
// Values are restricted to scalars so snapshots stay cheap to copy.
type Extra map[string]any

// Validate checks the size bound and value kinds.
func (e Extra) Validate() error {
	if len(e) > MaxExtraKeys {
		return errors.Newf("extra data has %d keys, limit is %d", len(e), MaxExtraKeys)
	}
	for k, v := range e {
		switch v.(type) {
		case nil, string, bool, float64, float32, int, int32, int64, uint, uint32, uint64:
		default:
			return errors.Newf("extra key %q has unsupported value type %T", k, v)
		}
	}
	return nil
}

// Clone returns a shallow copy; values are scalars.
func (e Extra) Clone() Extra {
	if e == nil {
		return nil
	}
	out := make(Extra, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}
