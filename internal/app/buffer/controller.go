// Package buffer tracks buffered media against the configured buffering window
// and decides when playback must wait for data or may resume.
package buffer

import (
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/trackcore/internal/domain/options"
)

// Window holds the buffering thresholds. Min ≤ Play ≤ Max.
type Window struct {
	Min           time.Duration // Below this while playing: underrun
	Play          time.Duration // At or above this while buffering: resume
	Max           time.Duration // Prefetch ceiling
	MaxCacheBytes int64         // Cached bytes ceiling, 0 disables eviction
	WaitForBuffer bool          // Underrun pauses playback instead of reporting an error
}

// WindowFrom converts player options to a window.
func WindowFrom(p options.Player) Window {
	return Window{
		Min:           p.MinBufferDuration(),
		Play:          p.PlayBufferDuration(),
		Max:           p.MaxBufferDuration(),
		MaxCacheBytes: p.MaxCacheSize,
		WaitForBuffer: p.WaitForBuffer,
	}
}

// Validate checks the threshold ordering.
func (w Window) Validate() error {
	if w.Min < 0 || w.Min > w.Play || w.Play > w.Max {
		return errors.Newf("buffer window must satisfy 0 <= min (%v) <= play (%v) <= max (%v)", w.Min, w.Play, w.Max)
	}
	if w.MaxCacheBytes < 0 {
		return errors.Newf("max cache size must not be negative (%d)", w.MaxCacheBytes)
	}
	return nil
}

// Segment is a contiguous range of cached media for the current track.
type Segment struct {
	Start time.Duration
	End   time.Duration
	Bytes int64
}

// Len returns the segment duration.
func (s Segment) Len() time.Duration { return s.End - s.Start }

// Signal is the outcome of evaluating the buffer against the window.
type Signal int

const (
	SignalNone      Signal = iota // Nothing to do
	SignalUnderrun                // Fell below Min while playing
	SignalRecovered               // Reached Play while buffering with a pending play intent
)

// String returns the string representation of the signal.
func (s Signal) String() string {
	switch s {
	case SignalNone:
		return "none"
	case SignalUnderrun:
		return "underrun"
	case SignalRecovered:
		return "recovered"
	default:
		return "unknown"
	}
}

// Stats is a read-only view of the controller.
type Stats struct {
	TrackID     string
	Cursor      time.Duration
	Ahead       time.Duration
	CachedBytes int64
	Segments    []Segment
}

// Controller owns the cache bookkeeping of the current track.
// It is not safe for concurrent use; the session serializes access.
type Controller struct {
	window Window

	trackID  string
	duration time.Duration // Zero until known
	cursor   time.Duration // Current play position

	segments []Segment // Sorted by Start, non-overlapping, non-contiguous
	cached   int64

	preload map[string]Segment // Buffered head of upcoming tracks, starting at zero

	low bool // Underrun already signalled for the current dip
}

// New creates a controller for the given window.
func New(w Window) *Controller {
	return &Controller{
		window:  w,
		preload: make(map[string]Segment),
	}
}

// Window returns the active window.
func (c *Controller) Window() Window {
	return c.window
}

// Configure replaces the window and applies the new cache ceiling.
func (c *Controller) Configure(w Window) error {
	if err := w.Validate(); err != nil {
		return err
	}
	c.window = w
	c.evict()
	return nil
}

// Load discards cached data and starts tracking trackID. A preloaded head of
// trackID becomes its first segment.
func (c *Controller) Load(trackID string, duration time.Duration) {
	c.trackID = trackID
	c.duration = duration
	c.cursor = 0
	c.segments = nil
	c.cached = 0
	c.low = false
	if p, ok := c.preload[trackID]; ok {
		c.segments = []Segment{p}
		c.cached = p.Bytes
		delete(c.preload, trackID)
		c.evict()
	}
}

// Clear forgets everything, including preloaded upcoming tracks.
func (c *Controller) Clear() {
	c.preload = make(map[string]Segment)
	c.Load("", 0)
}

// TrackID returns the tracked track.
func (c *Controller) TrackID() string {
	return c.trackID
}

// SetDuration records the track duration once known.
func (c *Controller) SetDuration(d time.Duration) {
	if d >= 0 {
		c.duration = d
	}
}

// Add records newly cached media for trackID. Data for another track is
// counted as preload for that track. It returns the bytes evicted to honor
// the cache ceiling.
func (c *Controller) Add(trackID string, seg Segment) int64 {
	if seg.End <= seg.Start || seg.Bytes < 0 {
		return 0
	}
	if trackID != c.trackID {
		c.addPreload(trackID, seg)
		return 0
	}

	c.segments = append(c.segments, seg)
	c.cached += seg.Bytes
	c.normalize()

	before := c.cached
	c.evict()
	return before - c.cached
}

// Seek moves the cursor without consuming data.
func (c *Controller) Seek(pos time.Duration) {
	if pos < 0 {
		pos = 0
	}
	c.cursor = pos
	c.low = false
}

// Advance moves the cursor as playback consumes data.
func (c *Controller) Advance(pos time.Duration) {
	if pos < 0 {
		pos = 0
	}
	c.cursor = pos
}

// Cursor returns the current play position.
func (c *Controller) Cursor() time.Duration {
	return c.cursor
}

// Ahead returns the contiguous buffered duration in front of the cursor.
func (c *Controller) Ahead() time.Duration {
	for _, s := range c.segments {
		if s.Start <= c.cursor && c.cursor < s.End {
			return s.End - c.cursor
		}
	}
	return 0
}

// reachesEnd reports whether the buffered run covers the rest of the track.
func (c *Controller) reachesEnd() bool {
	return c.duration > 0 && c.cursor+c.Ahead() >= c.duration
}

// Sufficient reports whether enough is buffered to start or resume playback.
func (c *Controller) Sufficient() bool {
	return c.Ahead() >= c.window.Play || c.reachesEnd()
}

// Demand returns how much more media the producer may prefetch.
func (c *Controller) Demand() time.Duration {
	if c.reachesEnd() {
		return 0
	}
	if d := c.window.Max - c.Ahead(); d > 0 {
		return d
	}
	return 0
}

// Confirm reports whether the next track may be started: enough of its head
// is preloaded, or it is the current track and is sufficiently buffered.
func (c *Controller) Confirm(trackID string) bool {
	if trackID == c.trackID {
		return c.Sufficient()
	}
	return c.preload[trackID].End >= c.window.Play
}

// addPreload extends the contiguous head of an upcoming track.
func (c *Controller) addPreload(trackID string, seg Segment) {
	p, ok := c.preload[trackID]
	if !ok {
		if seg.Start != 0 {
			return
		}
		c.preload[trackID] = seg
		return
	}
	if seg.Start > p.End || seg.End <= p.End {
		return
	}
	p.Bytes += seg.Bytes - proportion(seg, p.End-seg.Start)
	p.End = seg.End
	c.preload[trackID] = p
}

// Evaluate checks the buffer against the window. Underrun is edge-triggered:
// it fires once per dip below Min and re-arms when Min is reached again.
func (c *Controller) Evaluate(playing, buffering, playIntent bool) Signal {
	ahead := c.Ahead()
	if ahead >= c.window.Min || c.reachesEnd() {
		c.low = false
	}

	if playing && !c.low && ahead < c.window.Min && !c.reachesEnd() {
		c.low = true
		zlog.Debug().Msgf("buffer: underrun: track=%s ahead=%v min=%v", c.trackID, ahead, c.window.Min)
		return SignalUnderrun
	}
	if buffering && playIntent && c.Sufficient() {
		zlog.Debug().Msgf("buffer: recovered: track=%s ahead=%v play=%v", c.trackID, ahead, c.window.Play)
		return SignalRecovered
	}
	return SignalNone
}

// CachedBytes returns the total cached size.
func (c *Controller) CachedBytes() int64 {
	return c.cached
}

// Stats returns a copy of the controller state.
func (c *Controller) Stats() Stats {
	segs := make([]Segment, len(c.segments))
	copy(segs, c.segments)
	return Stats{
		TrackID:     c.trackID,
		Cursor:      c.cursor,
		Ahead:       c.Ahead(),
		CachedBytes: c.cached,
		Segments:    segs,
	}
}

// normalize sorts segments and merges overlapping or touching ones.
// Overlapping bytes are discounted proportionally.
func (c *Controller) normalize() {
	sort.Slice(c.segments, func(i, j int) bool {
		return c.segments[i].Start < c.segments[j].Start
	})

	merged := c.segments[:0]
	for _, s := range c.segments {
		if n := len(merged); n > 0 && s.Start <= merged[n-1].End {
			last := &merged[n-1]
			if s.End <= last.End {
				c.cached -= s.Bytes
				continue
			}
			overlap := last.End - s.Start
			dup := proportion(s, overlap)
			c.cached -= dup
			last.Bytes += s.Bytes - dup
			last.End = s.End
			continue
		}
		merged = append(merged, s)
	}
	c.segments = merged
}

// evict drops cached data until the ceiling is honored. Consumed data goes
// first, oldest play position first. Data ahead of the cursor is only dropped
// beyond cursor+Play, farthest first.
func (c *Controller) evict() {
	limit := c.window.MaxCacheBytes
	if limit <= 0 || c.cached <= limit {
		return
	}
	start := c.cached

	// Segments entirely behind the cursor.
	for len(c.segments) > 0 && c.cached > limit && c.segments[0].End <= c.cursor {
		c.cached -= c.segments[0].Bytes
		c.segments = c.segments[1:]
	}

	// Consumed head of the segment under the cursor.
	if c.cached > limit && len(c.segments) > 0 && c.segments[0].Start < c.cursor {
		c.trimHead(0, c.cursor)
	}

	// Far-ahead data, farthest first, never inside [cursor, cursor+Play].
	protect := c.cursor + c.window.Play
	for c.cached > limit && len(c.segments) > 0 {
		i := len(c.segments) - 1
		s := c.segments[i]
		if s.End <= protect {
			break
		}
		from := s.Start
		if from < protect {
			from = protect
		}
		// Trim only what is needed from the tail.
		excess := c.cached - limit
		tail := s.End - from
		if need := durationFor(s, excess); need < tail {
			from = s.End - need
		}
		c.trimTail(i, from)
		if c.segments[i].Len() <= 0 {
			c.cached -= c.segments[i].Bytes
			c.segments = c.segments[:i]
		}
	}

	if c.cached < start {
		zlog.Debug().Msgf("buffer: evicted %d bytes: track=%s cached=%d limit=%d", start-c.cached, c.trackID, c.cached, limit)
	}
}

func (c *Controller) trimHead(i int, upTo time.Duration) {
	s := &c.segments[i]
	b := proportion(*s, upTo-s.Start)
	s.Start = upTo
	s.Bytes -= b
	c.cached -= b
}

func (c *Controller) trimTail(i int, from time.Duration) {
	s := &c.segments[i]
	b := proportion(*s, s.End-from)
	s.End = from
	s.Bytes -= b
	c.cached -= b
}

// proportion returns the bytes covering d of s, assuming a constant bitrate.
func proportion(s Segment, d time.Duration) int64 {
	if d <= 0 || s.Len() <= 0 {
		return 0
	}
	if d >= s.Len() {
		return s.Bytes
	}
	return int64(float64(s.Bytes) * float64(d) / float64(s.Len()))
}

// durationFor returns the duration of s holding at least b bytes.
func durationFor(s Segment, b int64) time.Duration {
	if s.Bytes <= 0 || b >= s.Bytes {
		return s.Len()
	}
	d := time.Duration(float64(s.Len()) * float64(b) / float64(s.Bytes))
	// Round up so the trimmed bytes cover b.
	for proportion(s, d) < b && d < s.Len() {
		d += time.Millisecond
	}
	return d
}
