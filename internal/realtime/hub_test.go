package realtime

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newClient(userID uuid.UUID) *Client {
	return &Client{UserID: userID, Send: make(chan []byte, 8)}
}

func TestSendToRegisteredUser(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()
	client := newClient(userID)

	hub.Register(client)
	require.True(t, hub.Connected(userID))

	require.True(t, hub.SendToUser(userID, map[string]string{"type": "message"}))
	payload := <-client.Send
	require.Contains(t, string(payload), `"type":"message"`)
}

func TestSendToOfflineUserIsFalse(t *testing.T) {
	hub := NewHub()
	require.False(t, hub.SendToUser(uuid.New(), "hello"))
}

func TestSecondLoginReplacesFirst(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()
	first := newClient(userID)
	second := newClient(userID)

	hub.Register(first)
	hub.Register(second)

	// old channel is closed so its writer goroutine exits
	_, open := <-first.Send
	require.False(t, open)

	require.True(t, hub.SendRaw(userID, []byte("hi")))
	require.Equal(t, "hi", string(<-second.Send))
}

func TestReplacedConnectionDoesNotEvictSuccessor(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()
	first := newClient(userID)
	second := newClient(userID)

	hub.Register(first)
	hub.Register(second)

	// the first connection's deferred cleanup fires after replacement
	hub.Unregister(first)
	require.True(t, hub.Connected(userID))

	hub.Unregister(second)
	require.False(t, hub.Connected(userID))
}

func TestUnregisterClosesSend(t *testing.T) {
	hub := NewHub()
	client := newClient(uuid.New())

	hub.Register(client)
	hub.Unregister(client)

	_, open := <-client.Send
	require.False(t, open)
	require.False(t, hub.SendRaw(client.UserID, []byte("x")))
}

func TestFullBufferDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()
	client := &Client{UserID: userID, Send: make(chan []byte)} // no buffer, no reader

	hub.Register(client)
	require.False(t, hub.SendRaw(userID, []byte("dropped")))
}
