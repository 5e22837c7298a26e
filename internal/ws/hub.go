package ws

import (
	"encoding/json"
	"sync"
	"time"

	"crypto_invest/internal/logger"

	"github.com/google/uuid"
)

// Hub fans notifications out to every live connection of a user.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[uuid.UUID]map[*Client]struct{})}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.UserID] = set
	}
	set[c] = struct{}{}
}

// unregister removes c and closes its send channel. Notify holds the read lock
// while sending, so the close cannot race with a send.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.UserID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.UserID)
	}
	close(c.Send)
}

// Notify queues an event for userID. It never blocks: offline users and
// clients with a full buffer miss the event.
func (h *Hub) Notify(userID uuid.UUID, event string, payload any) {
	msg, err := json.Marshal(Message{Type: event, Data: payload, At: time.Now().UTC()})
	if err != nil {
		logger.Warn("ws notify marshal failed", "event", event, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[userID] {
		select {
		case c.Send <- msg:
		default:
			logger.Debug("ws client buffer full, dropping event", "user_id", userID, "event", event)
		}
	}
}

// Online returns the number of live connections for userID.
func (h *Hub) Online(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
