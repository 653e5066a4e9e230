package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/yalochat/speckit-presenter/internal/platform/logger"
	"github.com/yalochat/speckit-presenter/internal/workflow"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHub forwards workflow events to connected presenter UIs.
type WSHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	ch      chan workflow.Event
	log     *logger.Logger
}

// NewWSHub subscribes to the event bus and returns a hub ready to Run.
func NewWSHub(bus *workflow.EventBus, log *logger.Logger) *WSHub {
	return &WSHub{
		clients: make(map[*websocket.Conn]bool),
		ch:      bus.Subscribe(),
		log:     log,
	}
}

// Run broadcasts events to every connected client until the bus closes the
// subscription channel.
func (h *WSHub) Run() {
	for evt := range h.ch {
		data, err := json.Marshal(evt)
		if err != nil {
			continue
		}

		h.mu.Lock()
		for conn := range h.clients {
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				conn.Close()
				delete(h.clients, conn)
			}
		}
		h.mu.Unlock()
	}
}

// HandleWebSocket upgrades HTTP connections to WebSocket.
func (h *WSHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	// Keep the connection alive; inbound messages are ignored.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
