package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/driftchat/match-service/internal/service"
	"github.com/driftchat/match-service/internal/transport/ws"

	"github.com/stretchr/testify/require"
)

type stubCounter int

func (s stubCounter) OnlineCount() int { return int(s) }

func newTestRouter(online OnlineCounter) http.Handler {
	hub := ws.NewHub()
	matchSvc := service.NewMatchService(service.NewRegistry(), hub)
	wsServer := ws.NewServer(hub, matchSvc, ws.Options{})
	return NewRouter(NewHandler(online), wsServer, nil)
}

func TestRoot(t *testing.T) {
	req := require.New(t)
	r := newTestRouter(stubCounter(0))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	req.Equal(http.StatusOK, rec.Code)
	req.Equal("Server is running", rec.Body.String())
}

func TestOnline(t *testing.T) {
	req := require.New(t)
	r := newTestRouter(stubCounter(7))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/online", nil))

	req.Equal(http.StatusOK, rec.Code)
	req.Equal("application/json", rec.Header().Get("Content-Type"))

	var resp OnlineResponse
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	req.Equal(7, resp.OnlineUsers)
}

func TestHealthz(t *testing.T) {
	req := require.New(t)
	r := newTestRouter(stubCounter(0))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	req.Equal(http.StatusOK, rec.Code)
	req.Equal("ok", rec.Body.String())
}
