package notify

import (
	"sync"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/moyoez/edi-client/types"
)

// Hub holds WebSocket connections and broadcasts notifications to all clients.
type Hub struct {
	mu    sync.RWMutex
	conns map[*websocket.Conn]*sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		conns: make(map[*websocket.Conn]*sync.Mutex),
	}
}

// Register adds a WebSocket connection to the hub.
func (h *Hub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = &sync.Mutex{}
}

// Unregister removes a WebSocket connection from the hub.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
}

// Len returns the number of connected observers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Broadcast sends the notification as JSON to all registered connections.
// Writes to one connection are serialized; gorilla allows one concurrent writer.
func (h *Hub) Broadcast(notification *types.Notification) {
	if notification == nil {
		return
	}
	payload, err := sonic.Marshal(notification)
	if err != nil {
		return
	}

	h.mu.RLock()
	targets := make(map[*websocket.Conn]*sync.Mutex, len(h.conns))
	for c, wmu := range h.conns {
		targets[c] = wmu
	}
	h.mu.RUnlock()

	for conn, wmu := range targets {
		wmu.Lock()
		_ = conn.WriteMessage(websocket.TextMessage, payload)
		wmu.Unlock()
	}
}
