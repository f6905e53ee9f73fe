package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubPublishRouting(t *testing.T) {
	hub := NewSSEHub()

	cardio := &SSEClient{ID: "c1", Department: "cardiology", Channel: make(chan SSEEvent, 4)}
	radio := &SSEClient{ID: "r1", Department: "radiology", Channel: make(chan SSEEvent, 4)}
	board := &SSEClient{ID: "tv1", Department: GlobalChannel, Channel: make(chan SSEEvent, 4)}

	hub.Register(cardio)
	hub.Register(radio)
	hub.Register(board)
	require.Equal(t, 3, hub.ClientCount())

	hub.Publish("cardiology", SSEEvent{Event: EventQueueUpdated})

	ev := <-cardio.Channel
	assert.Equal(t, EventQueueUpdated, ev.Event)
	assert.Equal(t, "cardiology", ev.Department)

	ev = <-board.Channel
	assert.Equal(t, "cardiology", ev.Department)

	select {
	case <-radio.Channel:
		t.Fatal("radiology client should not receive cardiology events")
	default:
	}
}

func TestHubSkipsFullChannel(t *testing.T) {
	hub := NewSSEHub()

	slow := &SSEClient{ID: "slow", Department: "general", Channel: make(chan SSEEvent, 1)}
	hub.Register(slow)

	hub.Publish("general", SSEEvent{Event: EventQueueUpdated})
	// Second publish must not block even though the channel is full
	hub.Publish("general", SSEEvent{Event: EventTokenCalled})

	ev := <-slow.Channel
	assert.Equal(t, EventQueueUpdated, ev.Event)
}

func TestHubUnregisterClosesChannel(t *testing.T) {
	hub := NewSSEHub()

	client := &SSEClient{ID: "c1", Department: "general", Channel: make(chan SSEEvent, 1)}
	hub.Register(client)
	hub.Unregister("c1")

	_, open := <-client.Channel
	assert.False(t, open)
	assert.Equal(t, 0, hub.ClientCount())

	// Unregistering twice is a no-op
	hub.Unregister("c1")
}
