package http

import (
	"encoding/json"
	"net/http"
)

// OnlineCounter reports the number of registered participants.
type OnlineCounter interface {
	OnlineCount() int
}

type Handler struct {
	online OnlineCounter
}

func NewHandler(online OnlineCounter) *Handler {
	return &Handler{online: online}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type OnlineResponse struct {
	OnlineUsers int `json:"online_users"`
}

// GET /
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Server is running"))
}

// GET /online
func (h *Handler) Online(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, OnlineResponse{OnlineUsers: h.online.OnlineCount()})
}
