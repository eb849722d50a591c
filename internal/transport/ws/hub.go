package ws

import (
	"sync"

	"github.com/driftchat/match-service/internal/service"
)

// Hub tracks every live connection, registered or not. Presence counts are
// public, so onlineUsers goes to all of them.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]service.Conn // connID -> connection
}

func NewHub() *Hub {
	return &Hub{conns: make(map[string]service.Conn)}
}

func (h *Hub) Add(c service.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.ID()] = c
}

func (h *Hub) Remove(c service.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, c.ID())
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) Broadcast(event string, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.conns {
		_ = c.Emit(event, payload) // best-effort
	}
}
