package notification

import (
	"context"
	"sync"

	"github.com/osa030/trackcore/internal/domain/failure"
)

// Handler is the process-wide event handler.
type Handler func(t Type, ev Event)

// Service is a long running playback service. It runs until ctx is done.
type Service func(ctx context.Context) error

// ServiceFactory creates the playback service.
type ServiceFactory func() Service

// registry holds the process-wide single-slot registrations.
var registry struct {
	mu      sync.RWMutex
	handler Handler
	service ServiceFactory
}

// RegisterEventHandler installs the process-wide event handler. A second
// registration fails until UnregisterEventHandler is called.
func RegisterEventHandler(h Handler) error {
	if h == nil {
		return failure.Configf("event handler must not be nil")
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if registry.handler != nil {
		return failure.Configf("an event handler is already registered")
	}
	registry.handler = h
	return nil
}

// UnregisterEventHandler removes the event handler.
func UnregisterEventHandler() {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.handler = nil
}

// EventHandler returns the registered event handler, or nil.
func EventHandler() Handler {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	return registry.handler
}

// RegisterPlaybackService installs the process-wide playback service factory.
// A second registration fails until UnregisterPlaybackService is called.
func RegisterPlaybackService(f ServiceFactory) error {
	if f == nil {
		return failure.Configf("playback service factory must not be nil")
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if registry.service != nil {
		return failure.Configf("a playback service is already registered")
	}
	registry.service = f
	return nil
}

// UnregisterPlaybackService removes the playback service factory.
func UnregisterPlaybackService() {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.service = nil
}

// PlaybackService returns the registered playback service factory, or nil.
func PlaybackService() ServiceFactory {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	return registry.service
}
