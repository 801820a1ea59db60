// Package ws broadcasts pipeline run completions to connected clients.
// The channel is one-way: clients subscribe and receive events; anything
// they send is discarded.
package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dcwatch/dcwatch/internal/contracts"
	"github.com/dcwatch/dcwatch/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// Event is one message pushed to every connected client.
type Event struct {
	Type           string `json:"type"`
	RunID          string `json:"run_id"`
	Succeeded      bool   `json:"succeeded"`
	TradeCount     int    `json:"trade_count"`
	EnrichedCount  int    `json:"enriched_count"`
	SignalCount    int    `json:"signal_count"`
	MalformedCount int    `json:"malformed_count"`
	DurationMS     int64  `json:"duration_ms"`
}

// EventRunCompleted announces a finished pipeline run.
const EventRunCompleted = "run_completed"

// client is one registered connection. The websocket package allows at
// most one concurrent writer per connection, so every write goes
// through writeMu; broadcasts and the ping loop never touch the conn
// directly.
type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *client) writeJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

func (c *client) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

// Hub tracks connected clients and fans events out to them. A client
// that cannot be written to is dropped; slow consumers never block a
// broadcast for the rest.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *logger.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewHub creates an empty hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The API serves a public dataset; any origin may subscribe.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger:  log.WithField("module", "ws"),
		clients: make(map[*client]struct{}),
	}
}

// Handle upgrades the request and keeps the connection registered until
// the client goes away.
func (h *Hub) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	c := &client{conn: conn}
	h.register(c)
	h.logger.WithField("clients", h.ClientCount()).Debug("WebSocket client connected")

	go h.pingLoop(c)
	go h.readLoop(c)
}

// RunCompleted broadcasts one finished run to every client.
func (h *Hub) RunCompleted(rec *contracts.RunRecord) {
	if rec == nil {
		return
	}
	h.broadcast(Event{
		Type:           EventRunCompleted,
		RunID:          rec.RunID,
		Succeeded:      rec.Succeeded(),
		TradeCount:     rec.TradeCount,
		EnrichedCount:  rec.EnrichedCount,
		SignalCount:    rec.SignalCount,
		MalformedCount: rec.MalformedCount,
		DurationMS:     rec.Duration.Milliseconds(),
	})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for _, c := range conns {
		c.conn.Close()
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if ok {
		c.conn.Close()
		h.logger.WithField("clients", h.ClientCount()).Debug("WebSocket client disconnected")
	}
}

func (h *Hub) broadcast(ev Event) {
	h.mu.Lock()
	conns := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	dropped := 0
	for _, c := range conns {
		if err := c.writeJSON(ev); err != nil {
			h.unregister(c)
			dropped++
		}
	}

	h.logger.WithFields(map[string]interface{}{
		"type":    ev.Type,
		"run_id":  ev.RunID,
		"clients": len(conns) - dropped,
		"dropped": dropped,
	}).Debug("Broadcast sent")
}

// readLoop drains inbound frames so pong handling and close detection
// work; client payloads are ignored.
func (h *Hub) readLoop(c *client) {
	defer h.unregister(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) pingLoop(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		h.mu.Lock()
		_, ok := h.clients[c]
		h.mu.Unlock()
		if !ok {
			return
		}
		if err := c.ping(); err != nil {
			h.unregister(c)
			return
		}
	}
}
