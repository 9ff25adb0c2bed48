// Package notifier broadcasts build progress events to subscribers.
package notifier

import (
	"sync"
	"time"
)

// Kind identifies a progress event.
type Kind string

// Event kinds.
const (
	BuildStarted    Kind = "build_started"
	BuildFinished   Kind = "build_finished"
	BuildFailed     Kind = "build_failed"
	ModulesReloaded Kind = "modules_reloaded"
)

// Event is one progress signal. Message carries the root description for
// build events and the error text for failures.
type Event struct {
	Kind    Kind      `json:"kind"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}

// Busy reports whether the event leaves the engine busy.
func (e Event) Busy() bool {
	return e.Kind == BuildStarted
}

// Notifier broadcasts events to all subscribed listeners.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[chan Event]struct{}
}

// New creates a new Notifier instance.
func New() *Notifier {
	return &Notifier{
		listeners: make(map[chan Event]struct{}),
	}
}

// Subscribe returns a channel that receives events.
// The caller must call Unsubscribe when done to prevent goroutine leaks.
func (n *Notifier) Subscribe() chan Event {
	ch := make(chan Event, 8)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (n *Notifier) Unsubscribe(ch chan Event) {
	n.mu.Lock()
	_, ok := n.listeners[ch]
	delete(n.listeners, ch)
	n.mu.Unlock()
	if ok {
		close(ch)
	}
}

// Publish sends an event to all listeners.
// Non-blocking: if a listener's buffer is full, the event is dropped for it.
func (n *Notifier) Publish(kind Kind, message string) {
	ev := Event{Kind: kind, Message: message, At: time.Now()}

	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.listeners {
		select {
		case ch <- ev:
		default:
			// Slow listener, drop
		}
	}
}
