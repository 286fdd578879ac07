package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"
)

var upgrader = websocketUpgrader()

// EventHub broadcasts recognition events to connected WebSocket clients.
// The pipeline publishes; every connected client receives every event.
type EventHub struct {
	clients map[*wsConn]bool
	mu      sync.RWMutex
}

// Event types published on /api/events.
const (
	EventSequence = "sequence" // committed gloss sequence
	EventWord     = "word"     // committed fingerspelled word
	EventDisplay  = "display"  // live display label changed
	EventBuffer   = "buffer"   // in-progress buffer contents changed
	EventNotice   = "notice"   // operational notice (e.g. degraded mode)
)

// Event is the wire envelope for all event types.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// NewEventHub creates an EventHub with no clients.
func NewEventHub() *EventHub {
	return &EventHub{clients: make(map[*wsConn]bool)}
}

// ServeHTTP upgrades the request and keeps the connection registered until
// the client disconnects.
func (h *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	c := &wsConn{conn: conn}
	defer conn.Close()

	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
	}()

	// Keep the connection alive by reading messages; clients only listen.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Publish sends one event to all connected clients. Slow or broken clients
// are dropped rather than allowed to stall the pipeline.
func (h *EventHub) Publish(eventType string, data any) {
	msg, err := json.Marshal(Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	})
	if err != nil {
		log.Printf("event marshal error: %v", err)
		return
	}

	h.mu.RLock()
	conns := make([]*wsConn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	var dead []*wsConn
	for _, c := range conns {
		if err := c.writeText(msg); err != nil {
			dead = append(dead, c)
		}
	}

	if len(dead) > 0 {
		h.mu.Lock()
		for _, c := range dead {
			delete(h.clients, c)
			c.conn.Close()
		}
		h.mu.Unlock()
	}
}

// ClientCount returns the number of connected clients.
func (h *EventHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
