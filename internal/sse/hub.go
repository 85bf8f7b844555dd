package sse

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// EventNotification is the SSE event name for admin notifications.
const EventNotification = "notification"

// Level is the severity shown by the console toast.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notification is the payload broadcast to admin SSE clients after a mutation.
type Notification struct {
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	Entity    string    `json:"entity"`
	Action    string    `json:"action"`
	EntityID  string    `json:"entityId,omitempty"`
	AdminID   int       `json:"adminId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Client represents a connected SSE admin client.
type Client struct {
	ID      string
	AdminID int
	Events  chan []byte
}

// Hub manages SSE client connections and broadcasts.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewHub creates a new SSE hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

// Register adds a new client and returns it for streaming.
func (h *Hub) Register(clientID string, adminID int) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	c := &Client{
		ID:      clientID,
		AdminID: adminID,
		Events:  make(chan []byte, 64),
	}
	h.clients[clientID] = c
	log.Info().Str("client_id", clientID).Int("admin_id", adminID).Int("total_clients", len(h.clients)).Msg("SSE client connected")
	return c
}

// Unregister removes a client and closes its channel.
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[clientID]; ok {
		close(c.Events)
		delete(h.clients, clientID)
		log.Info().Str("client_id", clientID).Int("total_clients", len(h.clients)).Msg("SSE client disconnected")
	}
}

// Broadcast sends a notification to connected clients. Failures carrying an
// admin id go only to that admin's clients; everything else goes to all.
// Non-blocking: drops message if client buffer is full.
func (h *Hub) Broadcast(n *Notification) {
	data, err := json.Marshal(n)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal SSE notification")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		if n.Level == LevelError && n.AdminID != 0 && c.AdminID != n.AdminID {
			continue
		}
		select {
		case c.Events <- data:
		default:
			log.Warn().Str("client_id", c.ID).Msg("SSE client buffer full, dropping event")
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
