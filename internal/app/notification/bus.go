package notification

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/trackcore/internal/infra/fifo"
)

// Listener receives events. Each listener is called from its own goroutine,
// one event at a time, in emission order.
type Listener func(Event)

// subscriber owns one delivery queue.
type subscriber struct {
	id       string
	filter   Type // Empty means every type
	listener Listener
	queue    *fifo.Queue[Event]
	removed  atomic.Bool
}

func (s *subscriber) run(done func()) {
	defer done()
	for {
		ev, err := s.queue.Pop(context.Background())
		if err != nil {
			return
		}
		if s.removed.Load() {
			continue
		}
		s.deliver(ev)
	}
}

func (s *subscriber) deliver(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			zlog.Error().Msgf("notification: listener %s panicked on %s: %v", s.id, ev.Type, r)
		}
	}()
	s.listener(ev)
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	bus *Bus
	sub *subscriber
}

// ID returns the subscription id.
func (s *Subscription) ID() string {
	return s.sub.id
}

// Remove stops further delivery to the listener. It is safe to call more than once.
func (s *Subscription) Remove() {
	s.bus.unsubscribe(s.sub.id)
}

// Bus fans events out to subscribers and to the registered event handler.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]*subscriber
	sequenceNo  uint64
	start       time.Time
	closed      bool
	wg          sync.WaitGroup

	handler *subscriber // Forwards to the registered event handler
}

// NewBus creates a bus. Events are also forwarded to whatever handler is
// installed with RegisterEventHandler at delivery time.
func NewBus() *Bus {
	b := &Bus{
		subscribers: make(map[string]*subscriber),
		start:       time.Now(),
	}
	b.handler = &subscriber{
		id:    "event-handler",
		queue: fifo.New[Event](),
		listener: func(ev Event) {
			if h := EventHandler(); h != nil {
				h(ev.Type, ev)
			}
		},
	}
	b.wg.Add(1)
	go b.handler.run(b.wg.Done)
	return b
}

// Subscribe registers listener for events of type t.
func (b *Bus) Subscribe(t Type, listener Listener) *Subscription {
	return b.subscribe(t, listener)
}

// SubscribeAll registers listener for every event type.
func (b *Bus) SubscribeAll(listener Listener) *Subscription {
	return b.subscribe("", listener)
}

func (b *Bus) subscribe(t Type, listener Listener) *Subscription {
	s := &subscriber{
		id:       uuid.New().String(),
		filter:   t,
		listener: listener,
		queue:    fifo.New[Event](),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		s.removed.Store(true)
		return &Subscription{bus: b, sub: s}
	}
	b.subscribers[s.id] = s
	b.wg.Add(1)
	go s.run(b.wg.Done)

	zlog.Debug().Msgf("notification: subscribed: id=%s type=%q", s.id, t)
	return &Subscription{bus: b, sub: s}
}

func (b *Bus) unsubscribe(id string) {
	b.mu.Lock()
	s, ok := b.subscribers[id]
	delete(b.subscribers, id)
	b.mu.Unlock()

	if ok {
		s.removed.Store(true)
		s.queue.Close()
		zlog.Debug().Msgf("notification: unsubscribed: id=%s", id)
	}
}

// Emit stamps the event and queues it for every matching subscriber.
// It never blocks on listeners.
func (b *Bus) Emit(t Type, p Payload) Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.sequenceNo++
	ev := Event{
		Type:      t,
		Seq:       b.sequenceNo,
		Timestamp: time.Since(b.start),
		Payload:   p,
	}
	if b.closed {
		return ev
	}
	for _, s := range b.subscribers {
		if s.filter == "" || s.filter == t {
			s.queue.Push(ev)
		}
	}
	b.handler.queue.Push(ev)
	return ev
}

// SubscriberCount returns the number of active subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close stops accepting events, delivers what is already queued and waits
// for every delivery goroutine to finish.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, s := range b.subscribers {
		s.queue.Close()
	}
	b.subscribers = make(map[string]*subscriber)
	b.handler.queue.Close()
	b.mu.Unlock()

	b.wg.Wait()
}
