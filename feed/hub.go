// Package feed streams world snapshots to websocket clients and exposes
// HTTP controls for a running session.
package feed

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// DefaultQueueSize bounds the snapshots kept for unacknowledged clients.
const DefaultQueueSize = 64

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

type queued struct {
	tick    int
	payload []byte
}

// client is one websocket connection. Writes are serialized by mu.
type client struct {
	conn     *websocket.Conn
	mu       sync.Mutex
	lastSent int
}

// send writes every queued item newer than the client's last tick.
func (c *client) send(items []queued) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, it := range items {
		if it.tick <= c.lastSent {
			continue
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, it.payload); err != nil {
			return err
		}
		c.lastSent = it.tick
	}
	return nil
}

// Hub fans snapshots out to websocket clients. Snapshots stay queued
// until a client acknowledges them, so late joiners catch up on what is
// still pending.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	queue   []queued
	limit   int
	log     *slog.Logger
}

// NewHub creates a hub keeping at most queueSize unacknowledged snapshots.
func NewHub(queueSize int, logger *slog.Logger) *Hub {
	if queueSize < 1 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		limit:   queueSize,
		log:     logger,
	}
}

// Message is the envelope of every server-to-client frame.
type Message struct {
	Type    string `json:"type"`
	Tick    int    `json:"tick"`
	Payload any    `json:"payload,omitempty"`
}

// ackMessage is the only client-to-server frame: {"type":"ack","tick":N}.
type ackMessage struct {
	Type string `json:"type"`
	Tick *int   `json:"tick"`
}

// Broadcast queues msg and sends every client what it has not seen yet.
// Clients that fail a write are dropped.
func (h *Hub) Broadcast(msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", msg.Type, err)
	}

	h.mu.Lock()
	h.queue = append(h.queue, queued{tick: msg.Tick, payload: payload})
	if over := len(h.queue) - h.limit; over > 0 {
		h.queue = append(h.queue[:0], h.queue[over:]...)
	}
	pending := append([]queued(nil), h.queue...)
	list := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		list = append(list, c)
	}
	h.mu.Unlock()

	for _, c := range list {
		if err := c.send(pending); err != nil {
			h.log.Warn("client send error", "error", err)
			h.remove(c)
		}
	}
	return nil
}

// Ack drops queued snapshots up to and including tick.
func (h *Hub) Ack(tick int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	i := 0
	for i < len(h.queue) && h.queue[i].tick <= tick {
		i++
	}
	h.queue = append(h.queue[:0], h.queue[i:]...)
}

// Reset clears the queue and marks every client as having seen nothing,
// for use after the world restarts at tick 0.
func (h *Hub) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.queue = h.queue[:0]
	for c := range h.clients {
		c.mu.Lock()
		c.lastSent = -1
		c.mu.Unlock()
	}
}

// Pending returns the number of queued snapshots.
func (h *Hub) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.queue)
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.conn.Close()
}

// ServeHTTP upgrades the request and serves the connection until it
// closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	c := &client{conn: conn, lastSent: -1}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	pending := append([]queued(nil), h.queue...)
	h.mu.Unlock()

	if err := c.send(pending); err != nil {
		h.remove(c)
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var msg ackMessage
		if json.Unmarshal(data, &msg) != nil {
			continue
		}
		if msg.Type == "ack" && msg.Tick != nil {
			h.Ack(*msg.Tick)
		}
	}
	h.remove(c)
}
