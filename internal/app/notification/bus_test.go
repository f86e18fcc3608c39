package notification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/trackcore/internal/app/playback"
	"github.com/osa030/trackcore/internal/domain/failure"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) listen(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

func TestType_Names(t *testing.T) {
	assert.Len(t, Types(), 21)
	for _, typ := range Types() {
		assert.True(t, typ.Valid(), typ)
	}
	assert.False(t, Type("remote-dance").Valid())
	assert.True(t, TypeRemoteDuck.IsRemote())
	assert.False(t, TypePlaybackState.IsRemote())
}

func TestBus_FilterAndOrder(t *testing.T) {
	b := NewBus()

	var states, all recorder
	b.Subscribe(TypePlaybackState, states.listen)
	b.SubscribeAll(all.listen)

	for _, s := range []playback.State{playback.StateReady, playback.StatePlaying, playback.StatePaused} {
		b.Emit(TypePlaybackState, StatePayload{State: s})
		b.Emit(TypeRemotePlay, RemotePayload{})
	}
	b.Close()

	got := states.snapshot()
	require.Len(t, got, 3)
	assert.Equal(t, StatePayload{State: playback.StateReady}, got[0].Payload)
	assert.Equal(t, StatePayload{State: playback.StatePlaying}, got[1].Payload)
	assert.Equal(t, StatePayload{State: playback.StatePaused}, got[2].Payload)

	seen := all.snapshot()
	require.Len(t, seen, 6)
	for i := 1; i < len(seen); i++ {
		assert.Equal(t, seen[i-1].Seq+1, seen[i].Seq, "strict emission order")
		assert.GreaterOrEqual(t, seen[i].Timestamp, seen[i-1].Timestamp)
	}
}

func TestBus_SlowListenerDoesNotBlock(t *testing.T) {
	b := NewBus()
	release := make(chan struct{})
	var fast recorder

	b.SubscribeAll(func(Event) { <-release })
	b.SubscribeAll(fast.listen)

	for range 100 {
		b.Emit(TypeRemoteNext, RemotePayload{})
	}
	require.Eventually(t, func() bool { return len(fast.snapshot()) == 100 }, time.Second, 5*time.Millisecond)

	close(release)
	b.Close()
}

func TestBus_Remove(t *testing.T) {
	b := NewBus()
	defer b.Close()

	var r recorder
	sub := b.SubscribeAll(r.listen)
	assert.NotEmpty(t, sub.ID())
	assert.Equal(t, 1, b.SubscriberCount())

	b.Emit(TypeRemotePlay, RemotePayload{})
	require.Eventually(t, func() bool { return len(r.snapshot()) == 1 }, time.Second, 5*time.Millisecond)

	sub.Remove()
	sub.Remove()
	assert.Equal(t, 0, b.SubscriberCount())

	b.Emit(TypeRemotePlay, RemotePayload{})
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, r.snapshot(), 1)
}

func TestBus_ListenerPanicIsContained(t *testing.T) {
	b := NewBus()
	var r recorder
	b.SubscribeAll(func(ev Event) {
		if ev.Seq == 1 {
			panic("boom")
		}
		r.listen(ev)
	})

	b.Emit(TypeRemotePlay, RemotePayload{})
	b.Emit(TypeRemotePause, RemotePayload{})
	b.Close()

	got := r.snapshot()
	require.Len(t, got, 1)
	assert.Equal(t, TypeRemotePause, got[0].Type)
}

func TestBus_ClosedBusDropsSubscribers(t *testing.T) {
	b := NewBus()
	b.Close()
	b.Close()

	var r recorder
	sub := b.SubscribeAll(r.listen)
	b.Emit(TypeRemotePlay, RemotePayload{})
	sub.Remove()
	assert.Empty(t, r.snapshot())
}

func TestBus_ForwardsToEventHandler(t *testing.T) {
	t.Cleanup(UnregisterEventHandler)

	var r recorder
	require.NoError(t, RegisterEventHandler(func(_ Type, ev Event) { r.listen(ev) }))

	b := NewBus()
	b.Emit(TypePlaybackError, ErrorFrom(failure.Playbackf("device lost")))
	b.Close()

	got := r.snapshot()
	require.Len(t, got, 1)
	p, ok := got[0].Payload.(ErrorPayload)
	require.True(t, ok)
	assert.Equal(t, failure.KindPlayback, p.Kind)
	assert.Contains(t, p.Message, "device lost")
}

func TestRegisterEventHandler_SingleSlot(t *testing.T) {
	t.Cleanup(UnregisterEventHandler)

	require.NoError(t, RegisterEventHandler(func(Type, Event) {}))
	err := RegisterEventHandler(func(Type, Event) {})
	require.Error(t, err)
	assert.True(t, errors.Is(err, failure.ErrConfig))

	UnregisterEventHandler()
	assert.Nil(t, EventHandler())
	assert.NoError(t, RegisterEventHandler(func(Type, Event) {}))

	assert.True(t, errors.Is(RegisterEventHandler(nil), failure.ErrConfig))
}

func TestRegisterPlaybackService_SingleSlot(t *testing.T) {
	t.Cleanup(UnregisterPlaybackService)

	factory := func() Service {
		return func(ctx context.Context) error { <-ctx.Done(); return nil }
	}
	require.NoError(t, RegisterPlaybackService(factory))
	assert.NotNil(t, PlaybackService())

	err := RegisterPlaybackService(factory)
	assert.True(t, errors.Is(err, failure.ErrConfig))

	UnregisterPlaybackService()
	assert.Nil(t, PlaybackService())
	assert.NoError(t, RegisterPlaybackService(factory))
}
