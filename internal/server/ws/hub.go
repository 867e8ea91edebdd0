// Package ws pushes live analysis updates to dashboard clients.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/squares-ev/internal/metrics"
)

const writeWait = 5 * time.Second

// ClientMsg is a message received from a client.
type ClientMsg struct {
	Type string `json:"type"` // ping
}

// Message is pushed to every connected client.
type Message struct {
	Type    string      `json:"type"`
	ID      string      `json:"id,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

// client serializes writes; gorilla connections allow one concurrent writer.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub tracks websocket connections and fans out messages.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *logrus.Entry
	snapshot func() *Message

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// NewHub creates a hub. snapshot, when non-nil, supplies the message sent
// to each client right after it connects.
func NewHub(allowOrigin func(r *http.Request) bool, snapshot func() *Message, logger *logrus.Logger) *Hub {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		logger:   logger.WithField("component", "websocket"),
		snapshot: snapshot,
		clients:  make(map[*client]struct{}),
	}
}

// HandleWS manages the lifecycle of one websocket connection.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Debug("Websocket upgrade failed")
		return
	}
	c := &client{conn: conn}
	h.add(c)
	defer h.remove(c)

	if h.snapshot != nil {
		if msg := h.snapshot(); msg != nil {
			if b, err := json.Marshal(msg); err == nil {
				_ = c.write(b)
			}
		}
	}

	pong, _ := json.Marshal(Message{Type: "pong"})
	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Type == "ping" {
			if err := c.write(pong); err != nil {
				return
			}
		}
	}
}

// Broadcast sends msg to every connected client. Clients that fail to
// receive it are dropped.
func (h *Hub) Broadcast(msg Message) {
	b, err := json.Marshal(msg)
	if err != nil {
		h.logger.WithError(err).Error("Failed to encode websocket message")
		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.write(b); err != nil {
			h.remove(c)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for c := range clients {
		_ = c.conn.Close()
		metrics.DecWebsocketClients()
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	metrics.IncWebsocketClients()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if ok {
		_ = c.conn.Close()
		metrics.DecWebsocketClients()
	}
}
