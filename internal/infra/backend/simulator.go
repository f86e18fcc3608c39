package backend

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/osa030/trackcore/internal/domain/track"
)

// Errors
var (
	ErrNoTrack = errors.New("no track loaded")
	ErrUnbound = errors.New("backend is not bound to a sink")
)

// SimulatorConfig holds the simulator settings.
type SimulatorConfig struct {
	Bitrate         int64         `yaml:"bitrate" default:"16000" validate:"gt=0"`       // Bytes per media second
	FetchSpeed      float64       `yaml:"fetch_speed" default:"4" validate:"gt=0"`       // Media seconds fetched per media second played
	Chunk           time.Duration `yaml:"chunk" default:"1s" validate:"gt=0"`            // Size of one fetched segment
	Tick            time.Duration `yaml:"tick" default:"100ms" validate:"gt=0"`          // Wall clock step
	TimeScale       float64       `yaml:"time_scale" default:"1" validate:"gt=0"`        // Media seconds per wall second
	DefaultDuration time.Duration `yaml:"default_duration" default:"3m" validate:"gt=0"` // Used when a track has no duration
}

// stream is a track known to the simulator.
type stream struct {
	id       string
	duration time.Duration
	fetched  time.Duration // Contiguous fetch frontier
	position time.Duration
	ahead    time.Duration // Preload limit, zero for the current track
}

// Simulator is a Backend that fetches media at a limited rate and plays it
// back on a ticker. It never produces sound.
type Simulator struct {
	cfg     SimulatorConfig
	limiter *rate.Limiter

	mu      sync.Mutex
	sink    Sink
	current *stream
	next    *stream
	playing bool
	volume  float64
}

// NewSimulator creates a simulator. Zero fields of cfg take their defaults.
func NewSimulator(cfg SimulatorConfig) (*Simulator, error) {
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set simulator defaults")
	}
	chunksPerSecond := cfg.FetchSpeed * cfg.TimeScale / cfg.Chunk.Seconds()
	return &Simulator{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(chunksPerSecond), 1),
		volume:  1,
	}, nil
}

// Bind implements Backend.
func (s *Simulator) Bind(sink Sink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = sink
}

// Run drives the simulator until ctx is done.
func (s *Simulator) Run(ctx context.Context) error {
	s.mu.Lock()
	bound := s.sink != nil
	s.mu.Unlock()
	if !bound {
		return ErrUnbound
	}

	ticker := time.NewTicker(s.cfg.Tick)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			elapsed := time.Duration(float64(now.Sub(last)) * s.cfg.TimeScale)
			last = now
			s.step(elapsed)
		}
	}
}

// step advances playback by elapsed media time and fetches what the limiter allows.
func (s *Simulator) step(elapsed time.Duration) {
	var out []func(Sink)

	s.mu.Lock()
	sink := s.sink
	if cur := s.current; cur != nil && s.playing {
		pos := cur.position + elapsed
		if pos > cur.fetched {
			pos = cur.fetched // Stalled on missing data
		}
		cur.position = pos
		id := cur.id
		out = append(out, func(k Sink) { k.Progress(id, pos) })
		if pos >= cur.duration {
			s.playing = false
			out = append(out, func(k Sink) { k.Ended(id, pos) })
		}
	}
	s.mu.Unlock()

	// Demand reads the session snapshot, so ask before taking the lock again.
	var demand time.Duration
	if id := s.currentID(); id != "" {
		demand = sink.Demand(id)
	}

	s.mu.Lock()
	for s.limiter.Allow() {
		seg, ok := s.fetch(demand)
		if !ok {
			break
		}
		demand -= seg.end - seg.start
		out = append(out, func(k Sink) { k.Buffered(seg.id, seg.start, seg.end, seg.bytes) })
	}
	s.mu.Unlock()

	for _, f := range out {
		f(sink)
	}
}

type fetched struct {
	id         string
	start, end time.Duration
	bytes      int64
}

// fetch takes the next chunk of the current track within demand, or of the
// preloaded track once the current one is complete.
func (s *Simulator) fetch(demand time.Duration) (fetched, bool) {
	if cur := s.current; cur != nil && cur.fetched < cur.duration {
		if demand <= 0 {
			return fetched{}, false
		}
		return s.take(cur, cur.duration), true
	}
	if next := s.next; next != nil {
		limit := min(next.ahead, next.duration)
		if next.fetched < limit {
			return s.take(next, limit), true
		}
	}
	return fetched{}, false
}

func (s *Simulator) take(st *stream, limit time.Duration) fetched {
	end := min(st.fetched+s.cfg.Chunk, limit)
	f := fetched{
		id:    st.id,
		start: st.fetched,
		end:   end,
		bytes: int64((end - st.fetched).Seconds() * float64(s.cfg.Bitrate)),
	}
	st.fetched = end
	return f
}

func (s *Simulator) currentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ""
	}
	return s.current.id
}

func (s *Simulator) newStream(t track.Track) *stream {
	d := t.Duration
	if d <= 0 {
		d = s.cfg.DefaultDuration
	}
	return &stream{id: t.ID, duration: d}
}

// Load implements Backend.
func (s *Simulator) Load(_ context.Context, t track.Track) error {
	s.mu.Lock()
	sink := s.sink
	if sink == nil {
		s.mu.Unlock()
		return ErrUnbound
	}
	if s.next != nil && s.next.id == t.ID {
		s.current = s.next
		s.current.ahead = 0
	} else {
		s.current = s.newStream(t)
	}
	s.next = nil
	s.playing = false
	id, d := s.current.id, s.current.duration
	s.mu.Unlock()

	zlog.Debug().Msgf("simulator: loaded %s (%v)", id, d)
	if t.Duration <= 0 {
		sink.DurationKnown(id, d)
	}
	return nil
}

// Preload implements Backend.
func (s *Simulator) Preload(_ context.Context, t track.Track, ahead time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next != nil && s.next.id == t.ID {
		s.next.ahead = ahead
		return nil
	}
	st := s.newStream(t)
	st.ahead = ahead
	s.next = st
	return nil
}

// Play implements Backend.
func (s *Simulator) Play(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ErrNoTrack
	}
	s.playing = true
	return nil
}

// Pause implements Backend.
func (s *Simulator) Pause(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
	return nil
}

// Stop implements Backend.
func (s *Simulator) Stop(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
	if s.current != nil {
		s.current.position = 0
	}
	return nil
}

// SeekTo implements Backend. Seeking outside the fetched range restarts
// fetching at the new position.
func (s *Simulator) SeekTo(_ context.Context, position time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.current
	if cur == nil {
		return ErrNoTrack
	}
	position = max(0, min(position, cur.duration))
	if position > cur.fetched || position < cur.position {
		cur.fetched = position
	}
	cur.position = position
	return nil
}

// SetVolume implements Backend.
func (s *Simulator) SetVolume(_ context.Context, volume float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = max(0, min(volume, 1))
	return nil
}

// Volume returns the current volume.
func (s *Simulator) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// Unload implements Backend.
func (s *Simulator) Unload(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.next = nil
	s.playing = false
	return nil
}
