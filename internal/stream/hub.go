package stream

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/shehryarbajwa/iconbase-mini/internal/catalog"
	"github.com/shehryarbajwa/iconbase-mini/internal/logger"
)

const (
	logModule  = "stream"
	sendBuffer = 64
	writeWait  = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub fans catalog deliveries out to every connected websocket client. It is
// the ResultSink the manager delivers to; Deliver never blocks, a client
// whose buffer is full misses the event.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
	log     logger.Logger
}

// NewHub creates an empty hub
func NewHub(log logger.Logger) *Hub {
	if log == nil {
		log = logger.NewNop()
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		log:     log,
	}
}

// Deliver implements catalog.ResultSink
func (h *Hub) Deliver(r catalog.Result) {
	ev, err := NewEvent(r)
	if err != nil {
		h.log.Error(logModule, "Failed to encode event", map[string]interface{}{
			"request_id": r.RequestID,
			"error":      err,
		})
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.Error(logModule, "Failed to marshal event", map[string]interface{}{
			"request_id": r.RequestID,
			"error":      err,
		})
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.log.Warn(logModule, "Client buffer full, event dropped", map[string]interface{}{
				"client_id":  c.id,
				"request_id": r.RequestID,
				"kind":       string(r.Kind),
			})
		}
	}
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleConnection upgrades the request and streams events until the client
// goes away or the hub is closed.
func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn(logModule, "Failed to upgrade connection", map[string]interface{}{"error": err.Error()})
		return
	}

	c := &client{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	if !h.register(c) {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		conn.Close()
		return
	}
	h.log.Info(logModule, "Client connected", map[string]interface{}{"client_id": c.id})

	go h.writeMessages(c)
	h.readMessages(c)

	h.unregister(c)
	h.log.Info(logModule, "Client disconnected", map[string]interface{}{"client_id": c.id})
}

// Close disconnects every client; later deliveries are discarded
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

// unregister removes c; whoever removes a client closes its send channel
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// readMessages drains the client until the connection fails. Clients only
// listen; anything they send is ignored.
func (h *Hub) readMessages(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn(logModule, "WebSocket read error", map[string]interface{}{
					"client_id": c.id,
					"error":     err.Error(),
				})
			}
			return
		}
	}
}

func (h *Hub) writeMessages(c *client) {
	defer c.conn.Close()

	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Warn(logModule, "Failed to write message", map[string]interface{}{
				"client_id": c.id,
				"error":     err.Error(),
			})
			return
		}
	}

	// send closed by unregister or Close
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
