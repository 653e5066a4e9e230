package workflow

import (
	"sync"
	"time"
)

// EventType identifies the kind of engine event.
type EventType string

const (
	EventWorkflowInitialized EventType = "workflow.initialized"
	EventPhaseAdvanced       EventType = "phase.advanced"
	EventPhaseJumped         EventType = "phase.jumped"
	EventInputSubmitted      EventType = "input.submitted"
	EventArtifactGenerated   EventType = "artifact.generated"
	EventSessionReset        EventType = "session.reset"
)

// Event is one engine notification. Payloads are flat string maps (scenario
// id, phase names) so subscribers never have to type-assert.
type Event struct {
	Type      EventType         `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Payload   map[string]string `json:"payload,omitempty"`
}

// EventBus fans engine events out to subscribers. Delivery never blocks a
// phase transition: a subscriber that falls behind loses events instead of
// stalling the engine.
type EventBus struct {
	mu   sync.RWMutex
	subs []chan Event
}

// NewEventBus creates an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe registers a subscriber and returns its buffered channel.
func (b *EventBus) Subscribe() chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, 64)
	b.subs = append(b.subs, ch)
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *EventBus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subs {
		if sub == ch {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			close(ch)
			return
		}
	}
}

// Publish stamps the event and delivers it to every subscriber, dropping it
// for any whose buffer is full.
func (b *EventBus) Publish(t EventType, payload map[string]string) {
	evt := Event{Type: t, Timestamp: time.Now().UTC(), Payload: payload}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}
