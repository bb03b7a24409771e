package ws

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Client wraps one WebSocket connection with a write lock. Snapshot callbacks
// and the read loop both write to the connection, and gorilla connections do
// not allow concurrent writers.
type Client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func NewClient(conn *websocket.Conn) *Client {
	return &Client{conn: conn}
}

func (c *Client) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Hub tracks active clients keyed by principal id and broadcasts events to
// all of them.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
	}
}

// Register adds a client for the given principal.
func (h *Hub) Register(principalID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[principalID] == nil {
		h.clients[principalID] = make(map[*Client]struct{})
	}
	h.clients[principalID][c] = struct{}{}
}

// Unregister removes a client for the given principal.
func (h *Hub) Unregister(principalID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[principalID]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.clients, principalID)
		}
	}
}

// BroadcastAll sends the payload to every connected client. Failed
// connections are closed; removal happens on their read-loop exit.
func (h *Hub) BroadcastAll(payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, clients := range h.clients {
		for c := range clients {
			if err := c.WriteJSON(payload); err != nil {
				c.Close()
			}
		}
	}
}
