package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/coder/websocket"
)

// Hub tracks the active WebSocket connection for each chat session and
// delivers events to them. Delivery is best effort: a write failure is
// logged, and the connection's own read loop will notice the broken socket
// and tear the session down.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*websocket.Conn
}

// NewHub creates an empty connection hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[string]*websocket.Conn)}
}

// Register adds a session's connection, replacing any previous one.
func (h *Hub) Register(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if existing, ok := h.conns[sessionID]; ok && existing != conn {
		_ = existing.Close(websocket.StatusNormalClosure, "session replaced")
	}
	h.conns[sessionID] = conn
	slog.Info("Chat session connected", "session_id", sessionID)
}

// Unregister removes a session's connection if it is still the current one.
func (h *Hub) Unregister(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if current, ok := h.conns[sessionID]; ok && current == conn {
		delete(h.conns, sessionID)
		slog.Info("Chat session disconnected", "session_id", sessionID)
	}
}

// Send delivers an event to one session.
func (h *Hub) Send(sessionID string, event Event) {
	h.mu.RLock()
	conn, ok := h.conns[sessionID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to encode event", "kind", event.Kind, "error", err)
		return
	}
	if err := conn.Write(context.Background(), websocket.MessageText, data); err != nil {
		slog.Debug("Event write failed", "session_id", sessionID, "kind", event.Kind, "error", err)
	}
}

// SendAll delivers an event to every listed session.
func (h *Hub) SendAll(sessionIDs []string, event Event) {
	for _, id := range sessionIDs {
		h.Send(id, event)
	}
}

// Connected returns the number of active connections.
func (h *Hub) Connected() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
