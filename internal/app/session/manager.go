// Package session provides the playback session: a single-writer loop that
// owns the queue, the state machine and the buffer controller.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/trackcore/internal/app/buffer"
	"github.com/osa030/trackcore/internal/app/metadata"
	"github.com/osa030/trackcore/internal/app/notification"
	"github.com/osa030/trackcore/internal/app/playback"
	"github.com/osa030/trackcore/internal/app/queue"
	"github.com/osa030/trackcore/internal/app/remote"
	"github.com/osa030/trackcore/internal/domain/failure"
	"github.com/osa030/trackcore/internal/domain/options"
	"github.com/osa030/trackcore/internal/infra/backend"
	"github.com/osa030/trackcore/internal/infra/fifo"
)

// ErrClosed is returned by commands issued after Close.
var ErrClosed = errors.New("session is closed")

// command is one unit of work applied by the loop. done is nil for
// fire-and-forget commands, whose errors become playback-error events.
type command struct {
	name string
	fn   func() error
	done chan error
}

// job is one backend call executed by the backend worker.
type job struct {
	name string
	fn   func(ctx context.Context, b backend.Backend) error
}

// Manager manages the playback session.
type Manager struct {
	// Components, owned by the loop
	queue   *queue.Queue
	buffer  *buffer.Controller
	meta    *metadata.Coordinator
	router  *remote.Router
	bus     *notification.Bus
	backend backend.Backend

	// Loop state
	state          playback.State
	player         options.Player
	setUp          bool
	playIntent     bool
	position       time.Duration
	pausedByDuck   bool
	volumeDucked   bool
	pendingAdvance bool // Track ended, waiting for the next one to buffer

	// Serialization
	mailbox  *fifo.Queue[command]
	jobs     *fifo.Queue[job]
	snapshot atomic.Pointer[Snapshot]

	ctx       context.Context
	cancel    context.CancelFunc
	loopWG    sync.WaitGroup
	workerWG  sync.WaitGroup
	serviceWG sync.WaitGroup
	closeOnce sync.Once
}

// NewManager creates a session driving b and starts its loop.
func NewManager(b backend.Backend) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	player := options.NewPlayer()

	q := queue.New()
	m := &Manager{
		queue:   q,
		buffer:  buffer.New(buffer.WindowFrom(player)),
		meta:    metadata.NewCoordinator(q),
		bus:     notification.NewBus(),
		backend: b,
		state:   playback.StateNone,
		player:  player,
		mailbox: fifo.New[command](),
		jobs:    fifo.New[job](),
		ctx:     ctx,
		cancel:  cancel,
	}
	m.router = remote.NewRouter(m.meta.Options(), m.bus, executor{m: m})
	b.Bind(sink{m: m})
	m.publish()

	m.loopWG.Add(1)
	go m.loop()
	m.workerWG.Add(1)
	go m.worker()

	zlog.Debug().Msg("session: started")
	return m
}

// Close applies the commands already queued, stops the playback service,
// waits for pending backend calls and delivers pending events.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.mailbox.Close()
		m.loopWG.Wait()

		m.cancel()
		m.serviceWG.Wait()

		m.jobs.Close()
		m.workerWG.Wait()

		m.bus.Close()
		zlog.Debug().Msg("session: closed")
	})
}

// Remote returns the remote command router.
func (m *Manager) Remote() *remote.Router {
	return m.router
}

// Bus returns the event bus.
func (m *Manager) Bus() *notification.Bus {
	return m.bus
}

// AddEventListener subscribes listener to events of type t. Remove the
// returned subscription to stop delivery.
func (m *Manager) AddEventListener(t notification.Type, listener notification.Listener) (*notification.Subscription, error) {
	if !t.Valid() {
		return nil, failure.Configf("unknown event type %q", t)
	}
	return m.bus.Subscribe(t, listener), nil
}

// Snapshot returns the state published after the last applied command.
func (m *Manager) Snapshot() Snapshot {
	return *m.snapshot.Load()
}

// MetadataOptions returns the active metadata options.
func (m *Manager) MetadataOptions() options.Metadata {
	return m.Snapshot().Metadata.Clone()
}

// do applies fn on the loop and waits for the result. Once queued, fn is
// applied even if ctx is done first.
func (m *Manager) do(ctx context.Context, name string, fn func() error) error {
	done := make(chan error, 1)
	if !m.mailbox.Push(command{name: name, fn: fn, done: done}) {
		return ErrClosed
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return errors.Wrapf(ctx.Err(), "session: %s", name)
	}
}

// post queues fn on the loop without waiting.
func (m *Manager) post(name string, fn func() error) {
	m.mailbox.Push(command{name: name, fn: fn})
}

func (m *Manager) loop() {
	defer m.loopWG.Done()
	for {
		cmd, err := m.mailbox.Pop(context.Background())
		if err != nil {
			return
		}
		err = m.run(cmd)
		m.publish()
		if cmd.done != nil {
			cmd.done <- err
		} else if err != nil {
			m.emitError(err)
		}
	}
}

func (m *Manager) run(cmd command) (err error) {
	defer func() {
		if r := recover(); r != nil {
			zlog.Error().Msgf("session: %s panicked: %v", cmd.name, r)
			err = failure.Playbackf("%s panicked: %v", cmd.name, r)
		}
	}()
	return cmd.fn()
}

// toBackend queues a backend call. The loop never waits for it; failures
// re-enter the loop as playback-error events.
func (m *Manager) toBackend(name string, fn func(ctx context.Context, b backend.Backend) error) {
	m.jobs.Push(job{name: name, fn: fn})
}

func (m *Manager) worker() {
	defer m.workerWG.Done()
	for {
		j, err := m.jobs.Pop(context.Background())
		if err != nil {
			return
		}
		if err := j.fn(m.ctx, m.backend); err != nil {
			err = failure.Playback(errors.Wrapf(err, "backend %s", j.name))
			m.post("backend-failure", func() error { return err })
		}
	}
}

// publish stores a fresh snapshot. Called only from the loop.
func (m *Manager) publish() {
	qs := m.queue.Snapshot()
	snap := &Snapshot{
		State:       m.state,
		Tracks:      qs.Tracks,
		Index:       qs.Index,
		Position:    m.position,
		Buffered:    m.buffer.Ahead(),
		Demand:      m.buffer.Demand(),
		CachedBytes: m.buffer.CachedBytes(),
		PlayIntent:  m.playIntent,
		Player:      m.player.Clone(),
		Metadata:    m.meta.Options(),
	}
	if cur, ok := qs.Current(); ok {
		snap.Duration = cur.Duration
	}
	m.snapshot.Store(snap)
}

func (m *Manager) emitState() {
	m.bus.Emit(notification.TypePlaybackState, notification.StatePayload{State: m.state})
}

func (m *Manager) emitError(err error) {
	zlog.Warn().Err(err).Msg("session: playback error")
	m.bus.Emit(notification.TypePlaybackError, notification.ErrorFrom(err))
}

// startService runs the registered playback service until Close.
func (m *Manager) startService() {
	factory := notification.PlaybackService()
	if factory == nil {
		return
	}
	svc := factory()
	if svc == nil {
		return
	}
	m.serviceWG.Add(1)
	go func() {
		defer m.serviceWG.Done()
		if err := svc(m.ctx); err != nil && !errors.Is(err, context.Canceled) {
			zlog.Error().Err(err).Msg("session: playback service failed")
		}
	}()
	zlog.Info().Msg("session: playback service started")
}
