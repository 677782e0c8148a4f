package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"modelhub-monitor/internal/logging"
	"modelhub-monitor/internal/monitoring"
)

// StreamEvent is one message on the metrics websocket. Tracking results
// ride in Result; control messages use Data.
type StreamEvent struct {
	Type      string                     `json:"type"`
	Model     string                     `json:"model,omitempty"`
	Timestamp time.Time                  `json:"timestamp"`
	Result    *monitoring.TrackingResult `json:"result,omitempty"`
	Data      map[string]interface{}     `json:"data,omitempty"`
}

// client is one websocket subscriber. An empty model filter receives
// every tracking result.
type client struct {
	id   string
	conn *websocket.Conn
	send chan StreamEvent
	hub  *Hub

	mu     sync.Mutex
	model  string
	closed bool
}

func newClient(conn *websocket.Conn, hub *Hub, model string) *client {
	return &client{
		id:    uuid.New().String(),
		conn:  conn,
		send:  make(chan StreamEvent, 256),
		hub:   hub,
		model: model,
	}
}

func (c *client) safeClose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed && c.send != nil {
		close(c.send)
		c.closed = true
	}
}

// trySend queues an event without blocking. It reports false when the
// client is closed or its buffer is full.
func (c *client) trySend(event StreamEvent) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- event:
		return true
	default:
		return false
	}
}

func (c *client) setModel(model string) {
	c.mu.Lock()
	c.model = model
	c.mu.Unlock()
}

func (c *client) modelFilter() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model
}

// Hub fans tracking results out to websocket subscribers.
type Hub struct {
	logger     logging.Logger
	register   chan *client
	unregister chan *client
	broadcast  chan StreamEvent

	mu      sync.RWMutex
	clients map[*client]bool
}

// NewHub creates a hub. Run must be started before clients connect.
func NewHub(logger logging.Logger) *Hub {
	if logger == nil {
		logger = logging.WithComponent("metrics-hub")
	}
	return &Hub{
		logger:     logger,
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan StreamEvent, 256),
		clients:    make(map[*client]bool),
	}
}

// Run drives registration and broadcasting until the context is
// canceled, then closes every remaining connection.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		h.mu.Lock()
		for c := range h.clients {
			c.safeClose()
			if err := c.conn.Close(); err != nil {
				h.logger.Debug("closing client connection", "client", c.id, "error", err)
			}
			delete(h.clients, c)
		}
		h.mu.Unlock()
	}()

	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			total := len(h.clients)
			h.mu.Unlock()

			h.logger.Info("websocket client registered", "client", c.id, "total", total)

			welcome := StreamEvent{
				Type:      "connected",
				Timestamp: time.Now().UTC(),
				Data: map[string]interface{}{
					"client_id": c.id,
					"message":   "connected to metrics stream",
				},
			}
			if !c.trySend(welcome) {
				h.removeClient(c)
			}

		case c := <-h.unregister:
			h.removeClient(c)

		case event := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				if !shouldSend(c, &event) {
					continue
				}
				if !c.trySend(event) {
					// Send buffer full, drop the subscriber.
					h.removeClientLocked(c)
				}
			}
			h.mu.Unlock()

		case <-ctx.Done():
			h.logger.Info("metrics hub shutting down")
			return
		}
	}
}

func (h *Hub) removeClient(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeClientLocked(c)
}

func (h *Hub) removeClientLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	c.safeClose()
	if err := c.conn.Close(); err != nil {
		h.logger.Debug("closing client connection", "client", c.id, "error", err)
	}
	h.logger.Info("websocket client disconnected", "client", c.id, "total", len(h.clients))
}

// shouldSend applies the client's model filter. Control events always
// pass.
func shouldSend(c *client, event *StreamEvent) bool {
	if event.Type != "metrics" {
		return true
	}
	filter := c.modelFilter()
	return filter == "" || filter == event.Model
}

// BroadcastResult queues a tracking result for every subscriber. Events
// are dropped when the broadcast buffer is full.
func (h *Hub) BroadcastResult(result *monitoring.TrackingResult) {
	event := StreamEvent{
		Type:      "metrics",
		Model:     result.ModelName,
		Timestamp: time.Now().UTC(),
		Result:    result,
	}
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("broadcast buffer full, dropping event", "model", result.ModelName)
	}
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	heartbeatEvery = 54 * time.Second
	maxMessageSize = 512
)

// writePump forwards queued events to the connection and emits
// heartbeats while idle.
func (c *client) writePump(ctx context.Context) {
	ticker := time.NewTicker(heartbeatEvery)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				c.hub.logger.Debug("websocket write failed", "client", c.id, "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			heartbeat := StreamEvent{Type: "heartbeat", Timestamp: time.Now().UTC()}
			if err := c.conn.WriteJSON(heartbeat); err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// readPump consumes subscriber messages until the connection drops.
func (c *client) readPump(ctx context.Context) {
	defer func() {
		c.hub.unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			var msg map[string]interface{}
			if err := c.conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					c.hub.logger.Debug("websocket read failed", "client", c.id, "error", err)
				}
				return
			}
			c.handleMessage(msg)
		}
	}
}

// handleMessage processes subscription and ping control messages.
func (c *client) handleMessage(msg map[string]interface{}) {
	msgType, ok := msg["type"].(string)
	if !ok {
		return
	}

	switch msgType {
	case "subscribe":
		if model, ok := msg["model"].(string); ok {
			c.setModel(model)
			c.hub.logger.Info("client subscribed", "client", c.id, "model", model)
		}

	case "unsubscribe":
		c.setModel("")

	case "ping":
		c.trySend(StreamEvent{Type: "pong", Timestamp: time.Now().UTC()})
	}
}
