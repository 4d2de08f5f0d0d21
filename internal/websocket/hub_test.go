package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/social-apps/backend/internal/logger"
	"github.com/social-apps/backend/internal/storage/models"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub(logger.Test(t))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub, cancel
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data, ok := <-c.Send():
		require.True(t, ok, "client channel closed")
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
		return Message{}
	}
}

func TestHub_BroadcastReachesClients(t *testing.T) {
	hub, _ := startHub(t)
	a, b := NewClient(hub, 1), NewClient(hub, 0)
	hub.Register(a)
	hub.Register(b)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	NewEventBroadcaster(hub).BroadcastStreamItem(models.StreamItem{
		ID: "x", ActorID: 1, Context: "calendar", ContextID: 9, Verb: models.VerbCreate,
	})

	for _, c := range []*Client{a, b} {
		msg := receive(t, c)
		assert.Equal(t, TypeStreamItemCreated, msg.Type)
		payload := msg.Payload.(map[string]any)
		assert.Equal(t, "create", payload["verb"])
		assert.EqualValues(t, 9, payload["context_id"])
	}
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub, _ := startHub(t)
	c := NewClient(hub, 1)
	hub.Register(c)
	hub.Unregister(c)

	select {
	case _, ok := <-c.Send():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("send channel not closed")
	}
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_StopClosesClients(t *testing.T) {
	hub, cancel := startHub(t)
	c := NewClient(hub, 1)
	hub.Register(c)

	cancel()
	select {
	case _, ok := <-c.Send():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("client not closed on shutdown")
	}
}

func TestEventBroadcaster_Messages(t *testing.T) {
	hub, _ := startHub(t)
	c := NewClient(hub, 1)
	hub.Register(c)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	b := NewEventBroadcaster(hub)
	b.BroadcastCalendarEntryDeleted(4, 1)
	b.BroadcastProfileUpdated(1)

	assert.Equal(t, TypeCalendarEntryDelete, receive(t, c).Type)
	assert.Equal(t, TypeProfileUpdated, receive(t, c).Type)
}
