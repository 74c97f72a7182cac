package kiosk

import (
	"sync"

	"github.com/kozaktomas/attendance-kiosk/internal/constants"
	"github.com/kozaktomas/attendance-kiosk/internal/ledger"
)

// Event types emitted while a mode runs.
const (
	EventStarted   = "started"
	EventMarked    = "marked"
	EventCaptured  = "captured"
	EventCompleted = "completed"
	EventCancelled = "cancelled"
	EventFailed    = "failed"
)

// Event is a notification from a running mode. Rejected faces are not
// reported; they only show up in the overlay.
type Event struct {
	Type     string         `json:"type"`
	Message  string         `json:"message,omitempty"`
	Identity string         `json:"identity,omitempty"`
	Record   *ledger.Record `json:"record,omitempty"`
	Path     string         `json:"path,omitempty"`
}

// EventBroadcaster fans events out to any number of listeners.
// Embed it to get AddListener, RemoveListener and SendEvent.
type EventBroadcaster struct {
	listeners []chan Event
	mu        sync.RWMutex
}

// AddListener adds an event listener.
func (b *EventBroadcaster) AddListener() chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, constants.EventChannelBuffer)
	b.listeners = append(b.listeners, ch)
	return ch
}

// RemoveListener removes an event listener and closes its channel.
func (b *EventBroadcaster) RemoveListener(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, listener := range b.listeners {
		if listener == ch {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

// SendEvent sends an event to all listeners without blocking.
func (b *EventBroadcaster) SendEvent(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, listener := range b.listeners {
		select {
		case listener <- event:
		default:
			// Listener buffer full, skip.
		}
	}
}
