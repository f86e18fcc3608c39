package buffer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/trackcore/internal/domain/options"
)

func testWindow() Window {
	return Window{
		Min:           2 * time.Second,
		Play:          5 * time.Second,
		Max:           10 * time.Second,
		WaitForBuffer: true,
	}
}

func seg(start, end time.Duration, bytes int64) Segment {
	return Segment{Start: start, End: end, Bytes: bytes}
}

func TestWindowFrom(t *testing.T) {
	w := WindowFrom(options.Player{MinBuffer: 1, PlayBuffer: 2.5, MaxBuffer: 30, MaxCacheSize: 1 << 20, WaitForBuffer: true})
	assert.Equal(t, time.Second, w.Min)
	assert.Equal(t, 2500*time.Millisecond, w.Play)
	assert.Equal(t, 30*time.Second, w.Max)
	assert.Equal(t, int64(1<<20), w.MaxCacheBytes)
	assert.True(t, w.WaitForBuffer)
	assert.NoError(t, w.Validate())
}

func TestWindow_Validate(t *testing.T) {
	assert.Error(t, Window{Min: 3 * time.Second, Play: 2 * time.Second, Max: 10 * time.Second}.Validate())
	assert.Error(t, Window{Min: 0, Play: 20 * time.Second, Max: 10 * time.Second}.Validate())
	assert.Error(t, Window{Max: time.Second, MaxCacheBytes: -1}.Validate())

	c := New(testWindow())
	assert.Error(t, c.Configure(Window{Min: 5 * time.Second, Play: time.Second, Max: time.Second}))
	assert.Equal(t, testWindow(), c.Window(), "invalid window is not applied")
}

func TestController_AheadAndMerge(t *testing.T) {
	c := New(testWindow())
	c.Load("t1", time.Minute)

	c.Add("t1", seg(0, 3*time.Second, 300))
	assert.Equal(t, 3*time.Second, c.Ahead())
	assert.False(t, c.Sufficient())

	c.Add("t1", seg(3*time.Second, 6*time.Second, 300))
	assert.Equal(t, 6*time.Second, c.Ahead())
	assert.True(t, c.Sufficient())

	stats := c.Stats()
	require.Len(t, stats.Segments, 1, "contiguous segments merge")
	assert.Equal(t, int64(600), stats.CachedBytes)
}

func TestController_OverlapDiscountsBytes(t *testing.T) {
	c := New(testWindow())
	c.Load("t1", time.Minute)

	c.Add("t1", seg(0, 4*time.Second, 400))
	c.Add("t1", seg(2*time.Second, 6*time.Second, 400))

	stats := c.Stats()
	require.Len(t, stats.Segments, 1)
	assert.Equal(t, 6*time.Second, stats.Segments[0].End)
	assert.Equal(t, int64(600), stats.CachedBytes)

	// Fully covered data adds nothing.
	c.Add("t1", seg(time.Second, 2*time.Second, 100))
	assert.Equal(t, int64(600), c.CachedBytes())
}

func TestController_IgnoresInvalidSegments(t *testing.T) {
	c := New(testWindow())
	c.Load("t1", time.Minute)
	c.Add("t1", seg(2*time.Second, time.Second, 10))
	c.Add("t1", seg(0, time.Second, -1))
	assert.Zero(t, c.CachedBytes())
}

func TestController_UnderrunThenRecover(t *testing.T) {
	c := New(testWindow())
	c.Load("t1", time.Minute)
	c.Add("t1", seg(0, 6*time.Second, 600))

	assert.Equal(t, SignalNone, c.Evaluate(true, false, true))

	c.Advance(4500 * time.Millisecond)
	assert.Equal(t, SignalUnderrun, c.Evaluate(true, false, true))
	assert.Equal(t, SignalNone, c.Evaluate(true, false, true), "underrun fires once per dip")

	// Still short of Play while buffering.
	c.Add("t1", seg(6*time.Second, 8*time.Second, 200))
	assert.Equal(t, SignalNone, c.Evaluate(false, true, true))

	c.Add("t1", seg(8*time.Second, 10*time.Second, 200))
	assert.Equal(t, SignalRecovered, c.Evaluate(false, true, true))
}

func TestController_RecoverNeedsPlayIntent(t *testing.T) {
	c := New(testWindow())
	c.Load("t1", time.Minute)
	c.Add("t1", seg(0, 8*time.Second, 800))
	assert.Equal(t, SignalNone, c.Evaluate(false, true, false))
}

func TestController_UnderrunRearms(t *testing.T) {
	c := New(testWindow())
	c.Load("t1", time.Minute)
	c.Add("t1", seg(0, 3*time.Second, 300))
	c.Advance(2 * time.Second)
	require.Equal(t, SignalUnderrun, c.Evaluate(true, false, false))

	c.Add("t1", seg(3*time.Second, 10*time.Second, 700))
	assert.Equal(t, SignalNone, c.Evaluate(true, false, false))

	c.Advance(9 * time.Second)
	assert.Equal(t, SignalUnderrun, c.Evaluate(true, false, false))
}

func TestController_EndOfTrackIsNotUnderrun(t *testing.T) {
	c := New(testWindow())
	c.Load("t1", 8*time.Second)
	c.Add("t1", seg(0, 8*time.Second, 800))
	c.Advance(7 * time.Second)

	assert.Equal(t, SignalNone, c.Evaluate(true, false, true))
	assert.True(t, c.Sufficient())
	assert.Zero(t, c.Demand())
}

func TestController_Demand(t *testing.T) {
	c := New(testWindow())
	c.Load("t1", time.Minute)
	assert.Equal(t, 10*time.Second, c.Demand())

	c.Add("t1", seg(0, 4*time.Second, 400))
	assert.Equal(t, 6*time.Second, c.Demand())

	c.Add("t1", seg(4*time.Second, 12*time.Second, 800))
	assert.Zero(t, c.Demand())
}

func TestController_EvictsConsumedFirst(t *testing.T) {
	w := testWindow()
	w.MaxCacheBytes = 600
	c := New(w)
	c.Load("t1", time.Minute)

	c.Add("t1", seg(0, 5*time.Second, 500))
	c.Add("t1", seg(10*time.Second, 15*time.Second, 500))
	c.Seek(12 * time.Second)

	evicted := c.Add("t1", seg(15*time.Second, 20*time.Second, 500))
	assert.Equal(t, int64(900), evicted)
	assert.LessOrEqual(t, c.CachedBytes(), int64(600))

	stats := c.Stats()
	require.Len(t, stats.Segments, 1)
	assert.Equal(t, 12*time.Second, stats.Segments[0].Start, "consumed data evicted up to the cursor")
	assert.GreaterOrEqual(t, stats.Segments[0].End, 17*time.Second, "cursor+play is kept")
}

func TestController_EvictsFarAheadTail(t *testing.T) {
	w := testWindow()
	w.MaxCacheBytes = 1000
	c := New(w)
	c.Load("t1", time.Minute)

	c.Add("t1", seg(0, 10*time.Second, 1000))
	c.Advance(6 * time.Second)
	c.Add("t1", seg(10*time.Second, 20*time.Second, 1000))

	assert.LessOrEqual(t, c.CachedBytes(), int64(1000))
	stats := c.Stats()
	require.Len(t, stats.Segments, 1)
	assert.Equal(t, 6*time.Second, stats.Segments[0].Start)
	assert.InDelta(t, float64(16*time.Second), float64(stats.Segments[0].End), float64(10*time.Millisecond))
}

func TestController_NeverEvictsInsidePlayWindow(t *testing.T) {
	w := testWindow()
	w.MaxCacheBytes = 100
	c := New(w)
	c.Load("t1", time.Minute)

	c.Add("t1", seg(0, 10*time.Second, 1000))

	stats := c.Stats()
	require.Len(t, stats.Segments, 1)
	assert.Equal(t, time.Duration(0), stats.Segments[0].Start)
	assert.Equal(t, 5*time.Second, stats.Segments[0].End)
	assert.Equal(t, int64(500), stats.CachedBytes, "ceiling yields to the play window")
}

func TestController_ConfigureEvicts(t *testing.T) {
	c := New(testWindow())
	c.Load("t1", time.Minute)
	c.Add("t1", seg(0, 10*time.Second, 1000))
	c.Advance(5 * time.Second)

	w := testWindow()
	w.MaxCacheBytes = 500
	require.NoError(t, c.Configure(w))
	assert.LessOrEqual(t, c.CachedBytes(), int64(500))
	assert.Equal(t, 5*time.Second, c.Ahead())
}

func TestController_PreloadConfirm(t *testing.T) {
	c := New(testWindow())
	c.Load("t1", time.Minute)

	assert.False(t, c.Confirm("t2"))
	c.Add("t2", seg(0, 3*time.Second, 300))
	assert.False(t, c.Confirm("t2"))
	c.Add("t2", seg(3*time.Second, 5*time.Second, 200))
	assert.True(t, c.Confirm("t2"))
	assert.Zero(t, c.CachedBytes(), "preload is not part of the current track cache")

	c.Load("t2", time.Minute)
	assert.Equal(t, 5*time.Second, c.Ahead(), "preload becomes the head of the current track")
	assert.Equal(t, int64(500), c.CachedBytes())
	assert.True(t, c.Confirm("t2"))

	c.Clear()
	assert.Empty(t, c.TrackID())
	assert.False(t, c.Confirm("t2"))
}

func TestController_PreloadIgnoresGaps(t *testing.T) {
	c := New(testWindow())
	c.Load("t1", time.Minute)

	c.Add("t2", seg(2*time.Second, 8*time.Second, 600))
	assert.False(t, c.Confirm("t2"), "preload must start at zero")

	c.Add("t2", seg(0, 2*time.Second, 200))
	c.Add("t2", seg(4*time.Second, 8*time.Second, 400))
	assert.False(t, c.Confirm("t2"), "preload must be contiguous")
}

func TestController_SeekOutsideBufferedRange(t *testing.T) {
	c := New(testWindow())
	c.Load("t1", time.Minute)
	c.Add("t1", seg(0, 10*time.Second, 1000))

	c.Seek(30 * time.Second)
	assert.Zero(t, c.Ahead())
	assert.Equal(t, SignalUnderrun, c.Evaluate(true, false, true))
}
