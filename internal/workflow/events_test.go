package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBusDeliversTypedPayload(t *testing.T) {
	bus := NewEventBus()
	ch := bus.Subscribe()

	bus.Publish(EventPhaseAdvanced, map[string]string{"from": "specify", "to": "clarify"})

	select {
	case evt := <-ch:
		assert.Equal(t, EventPhaseAdvanced, evt.Type)
		assert.Equal(t, "specify", evt.Payload["from"])
		assert.Equal(t, "clarify", evt.Payload["to"])
		assert.False(t, evt.Timestamp.IsZero())
	default:
		t.Fatal("expected a buffered event")
	}
}

func TestEventBusDropsWhenSubscriberIsFull(t *testing.T) {
	bus := NewEventBus()
	ch := bus.Subscribe()

	// One more publish than the buffer holds must not block.
	for i := 0; i < cap(ch)+1; i++ {
		bus.Publish(EventInputSubmitted, nil)
	}
	assert.Len(t, ch, cap(ch))
}

func TestEventBusUnsubscribeClosesChannel(t *testing.T) {
	bus := NewEventBus()
	ch := bus.Subscribe()

	bus.Unsubscribe(ch)
	_, open := <-ch
	require.False(t, open, "unsubscribed channel must be closed")

	// Publishing after unsubscribe reaches no one and must not panic.
	bus.Publish(EventSessionReset, map[string]string{"session_id": "s-1"})
}
