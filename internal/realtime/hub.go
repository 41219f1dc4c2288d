package realtime

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
)

type Client struct {
	UserID uuid.UUID
	Conn   *WebSocketConn
	Send   chan []byte
}

// Hub is the process-wide registry of live connections, one per user.
// A second login for the same user replaces the first.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*Client
}

func NewHub() *Hub {
	return &Hub{clients: make(map[uuid.UUID]*Client)}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	old := h.clients[client.UserID]
	h.clients[client.UserID] = client
	h.mu.Unlock()

	if old != nil {
		close(old.Send)
		log.Printf("Hub: replaced live connection for user %s", client.UserID)
	}
}

// Unregister removes the client's registry entry, but only while the
// entry still points at this client. A replaced connection must not
// evict its successor on its deferred cleanup.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if cur, ok := h.clients[client.UserID]; ok && cur == client {
		delete(h.clients, client.UserID)
		close(client.Send)
	}
}

func (h *Hub) Connected(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// SendToUser queues a payload for the user's live connection. Returns
// false when the user has no connection here or its buffer is full;
// delivery is best-effort either way.
func (h *Hub) SendToUser(userID uuid.UUID, data interface{}) bool {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Printf("Hub: marshal error: %v", err)
		return false
	}
	return h.SendRaw(userID, payload)
}

func (h *Hub) SendRaw(userID uuid.UUID, payload []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.clients[userID]
	if !ok {
		return false
	}

	select {
	case client.Send <- payload:
		return true
	default:
		// buffer full: drop rather than block the sender
		return false
	}
}
