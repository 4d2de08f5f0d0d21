// Package websocket fans activity events out to connected browser clients.
package websocket

import (
	"context"
	"sync"

	"github.com/social-apps/backend/internal/logger"
)

// Hub maintains the set of active WebSocket clients and broadcasts messages.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu   sync.RWMutex
	lggr logger.Logger
}

// NewHub creates a new WebSocket hub.
func NewHub(lggr logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		lggr:       lggr.Named("websocket"),
	}
}

// Run starts the hub's event loop and returns when ctx is done, closing
// every client. Call it in a goroutine.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.lggr.Debugw("client connected", "total", n)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.lggr.Debugw("client disconnected", "total", n)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// slow client
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues a message for all connected clients. It never blocks.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		h.lggr.Warnw("broadcast channel full, dropping message")
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Client is one WebSocket connection registered with the hub.
type Client struct {
	hub    *Hub
	send   chan []byte
	UserID int64
}

// NewClient creates a client for userID; zero means a guest.
func NewClient(hub *Hub, userID int64) *Client {
	return &Client{
		hub:    hub,
		send:   make(chan []byte, 256),
		UserID: userID,
	}
}

// Send returns the client's outbound channel. It is closed when the hub drops the client.
func (c *Client) Send() chan []byte {
	return c.send
}

// Reply queues message for this client only. It reports false when the
// client is not registered or its buffer is full.
func (c *Client) Reply(message []byte) bool {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()

	if !c.hub.clients[c] {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}
