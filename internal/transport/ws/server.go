package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/driftchat/match-service/internal/domain"
	"github.com/driftchat/match-service/internal/service"

	"github.com/gorilla/websocket"
)

// MatchSvc is what the transport needs from the matching engine.
type MatchSvc interface {
	Register(c service.Conn, userID string, interests []string, isAdmin bool) error
	RelayMessage(connID, text string)
	RelayTyping(connID string)
	RelayStopTyping(connID string)
	Disconnect(connID string)
}

type Options struct {
	PingInterval   time.Duration // server ping period, read deadline is 2x
	ReadLimit      int64         // max inbound frame size in bytes
	AllowedOrigins []string      // empty allows any origin
}

type Server struct {
	upgrader  websocket.Upgrader
	hub       *Hub
	matchSvc  MatchSvc
	pingEvery time.Duration
	readLimit int64
}

func NewServer(hub *Hub, match MatchSvc, opts Options) *Server {
	if opts.PingInterval <= 0 {
		opts.PingInterval = 15 * time.Second
	}
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = 1 << 20
	}
	return &Server{
		hub:      hub,
		matchSvc: match,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(opts.AllowedOrigins),
		},
		pingEvery: opts.PingInterval,
		readLimit: opts.ReadLimit,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// WS endpoint: GET /ws
//
// A connection joins the hub immediately but only gets a registry entry once
// it sends a valid register event. Leaving the read loop, for whatever
// reason, is the involuntary disconnect signal.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	c := newWsConn(conn)
	s.hub.Add(c)
	slog.Info("client connected", "conn", c.ID())

	go s.writeLoop(c)
	s.readLoop(c)

	s.hub.Remove(c)
	s.matchSvc.Disconnect(c.ID())

	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "conn", c.ID(), "err", err)
	}
	slog.Info("client disconnected", "conn", c.ID())
}

func (s *Server) readLoop(c *wsConn) {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(s.readLimit)
	c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Debug("ws bad frame", "conn", c.ID(), "err", err)
			continue
		}

		switch msg.Type {
		case TypeRegister:
			var p RegisterPayload
			if decode(msg.Payload, &p) != nil {
				continue
			}
			if err := s.matchSvc.Register(c, p.UserID, p.Interests, p.IsAdmin); err != nil {
				// rejected, connection stays open; only the duplicate
				// identity case is surfaced to the client
				slog.Debug("register rejected", "conn", c.ID(), "user", p.UserID, "err", err)
				if errors.Is(err, domain.ErrDuplicateIdentity) {
					_ = c.Emit(domain.EventError, domain.ErrorPayload{Message: DuplicateIdentityNotice})
				}
			}
		case TypeSendMessage:
			var p SendMessagePayload
			if decode(msg.Payload, &p) == nil {
				s.matchSvc.RelayMessage(c.ID(), p.Text)
			}
		case TypeTyping:
			s.matchSvc.RelayTyping(c.ID())
		case TypeStopTyping:
			s.matchSvc.RelayStopTyping(c.ID())
		case TypeManualDisconnect:
			// same teardown as a transport close, plus a server-side close
			// once the loop unwinds
			s.matchSvc.Disconnect(c.ID())
			return
		default:
			// ignore
		}
	}
}

func (s *Server) writeLoop(c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-c.closed:
			return
		}
	}
}

// --- helpers ---

func decode(payload interface{}, dst interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return json.Unmarshal(b, dst)
}
