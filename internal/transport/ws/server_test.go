package ws_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/driftchat/match-service/internal/domain"
	"github.com/driftchat/match-service/internal/service"
	"github.com/driftchat/match-service/internal/transport/ws"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func newTestServer(t *testing.T) (*httptest.Server, *service.MatchService) {
	t.Helper()
	hub := ws.NewHub()
	svc := service.NewMatchService(service.NewRegistry(), hub)
	srv := ws.NewServer(hub, svc, ws.Options{})
	ts := httptest.NewServer(http.HandlerFunc(srv.HandleWS))
	t.Cleanup(ts.Close)
	return ts, svc
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func send(t *testing.T, c *websocket.Conn, event string, payload any) {
	t.Helper()
	require.NoError(t, c.WriteJSON(ws.Message{Type: event, Payload: payload}))
}

func readEvent(t *testing.T, c *websocket.Conn) envelope {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(3*time.Second)))
	var e envelope
	require.NoError(t, c.ReadJSON(&e))
	return e
}

func expectEvent(t *testing.T, c *websocket.Conn, event string) json.RawMessage {
	t.Helper()
	e := readEvent(t, c)
	require.Equal(t, event, e.Type)
	return e.Payload
}

func registerClient(t *testing.T, ts *httptest.Server, userID string, interests ...string) *websocket.Conn {
	t.Helper()
	c := dial(t, ts)
	send(t, c, ws.TypeRegister, ws.RegisterPayload{UserID: userID, Interests: interests})
	expectEvent(t, c, domain.EventConnected)
	return c
}

// Full session lifecycle over a real websocket: register, match, chat,
// voluntary disconnect, partner freed.
func TestSessionLifecycle(t *testing.T) {
	req := require.New(t)
	ts, svc := newTestServer(t)

	u1 := dial(t, ts)
	send(t, u1, ws.TypeRegister, ws.RegisterPayload{UserID: "u1", Interests: []string{"music", "chess"}})
	expectEvent(t, u1, domain.EventConnected)

	var online domain.OnlineUsersPayload
	req.NoError(json.Unmarshal(expectEvent(t, u1, domain.EventOnlineUsers), &online))
	req.Equal(1, online.OnlineUsers)

	u2 := dial(t, ts)
	send(t, u2, ws.TypeRegister, ws.RegisterPayload{UserID: "u2", Interests: []string{"chess", "art"}})
	expectEvent(t, u2, domain.EventConnected)

	// both sides see the pairing with the shared interest
	var m1, m2 domain.MatchedPayload
	req.NoError(json.Unmarshal(expectEvent(t, u1, domain.EventMatched), &m1))
	req.NoError(json.Unmarshal(expectEvent(t, u2, domain.EventMatched), &m2))
	req.Equal("u2", m1.UserID)
	req.Equal("u1", m2.UserID)
	req.Equal([]string{"chess"}, m1.Interests)
	req.Equal([]string{"chess"}, m2.Interests)

	req.NoError(json.Unmarshal(expectEvent(t, u1, domain.EventOnlineUsers), &online))
	req.Equal(2, online.OnlineUsers)
	req.NoError(json.Unmarshal(expectEvent(t, u2, domain.EventOnlineUsers), &online))
	req.Equal(2, online.OnlineUsers)

	// chat flows only toward the peer, text verbatim
	send(t, u1, ws.TypeSendMessage, ws.SendMessagePayload{Text: "hi"})
	var msg domain.ReceiveMessagePayload
	req.NoError(json.Unmarshal(expectEvent(t, u2, domain.EventReceiveMessage), &msg))
	req.Equal("hi", msg.Text)
	req.False(msg.IsAdmin)

	send(t, u1, ws.TypeTyping, nil)
	expectEvent(t, u2, domain.EventTyping)
	send(t, u1, ws.TypeStopTyping, nil)
	expectEvent(t, u2, domain.EventStopTyping)

	// voluntary disconnect: peer is notified once and freed, count drops
	send(t, u1, ws.TypeManualDisconnect, nil)

	var gone domain.PartnerDisconnectedPayload
	req.NoError(json.Unmarshal(expectEvent(t, u2, domain.EventPartnerDisconnected), &gone))
	req.Equal(service.PartnerGoneNotice, gone.Message)
	req.NoError(json.Unmarshal(expectEvent(t, u2, domain.EventOnlineUsers), &online))
	req.Equal(1, online.OnlineUsers)
	req.Eventually(func() bool { return svc.OnlineCount() == 1 }, time.Second, 10*time.Millisecond)

	// the freed side is matchable by the next registrant
	u3 := dial(t, ts)
	send(t, u3, ws.TypeRegister, ws.RegisterPayload{UserID: "u3", Interests: []string{"art"}})
	expectEvent(t, u3, domain.EventConnected)
	var m3 domain.MatchedPayload
	req.NoError(json.Unmarshal(expectEvent(t, u3, domain.EventMatched), &m3))
	req.Equal("u2", m3.UserID)
	req.NoError(json.Unmarshal(expectEvent(t, u2, domain.EventMatched), &m3))
	req.Equal("u3", m3.UserID)
}

func TestRegister_DuplicateIdentityKeepsConnectionOpen(t *testing.T) {
	req := require.New(t)
	ts, svc := newTestServer(t)

	u1 := registerClient(t, ts, "u1", "music")
	expectEvent(t, u1, domain.EventOnlineUsers)

	dup := dial(t, ts)
	send(t, dup, ws.TypeRegister, ws.RegisterPayload{UserID: "u1", Interests: []string{"music"}})

	var e domain.ErrorPayload
	req.NoError(json.Unmarshal(expectEvent(t, dup, domain.EventError), &e))
	req.Equal(ws.DuplicateIdentityNotice, e.Message)
	req.Equal(1, svc.OnlineCount())

	// same connection may retry with a fresh identity
	send(t, dup, ws.TypeRegister, ws.RegisterPayload{UserID: "u1b", Interests: []string{"chess"}})
	expectEvent(t, dup, domain.EventConnected)
	req.Eventually(func() bool { return svc.OnlineCount() == 2 }, time.Second, 10*time.Millisecond)
}

func TestRegister_SecondRegisterOnSameConnectionIsIgnored(t *testing.T) {
	req := require.New(t)
	ts, svc := newTestServer(t)

	u1 := registerClient(t, ts, "u1", "music")
	expectEvent(t, u1, domain.EventOnlineUsers)

	// a second register on an already-registered connection changes nothing
	send(t, u1, ws.TypeRegister, ws.RegisterPayload{UserID: "u2", Interests: []string{"music"}})
	req.Never(func() bool { return svc.OnlineCount() != 1 }, 300*time.Millisecond, 50*time.Millisecond)

	req.NoError(u1.Close())
	req.Eventually(func() bool { return svc.OnlineCount() == 0 }, time.Second, 10*time.Millisecond)

	// no ghost of u1 survives the disconnect: the next registrant with the
	// same interest finds nobody, so connected is followed by the presence
	// count, never a matched event
	u3 := dial(t, ts)
	send(t, u3, ws.TypeRegister, ws.RegisterPayload{UserID: "u3", Interests: []string{"music"}})
	expectEvent(t, u3, domain.EventConnected)
	var online domain.OnlineUsersPayload
	req.NoError(json.Unmarshal(expectEvent(t, u3, domain.EventOnlineUsers), &online))
	req.Equal(1, online.OnlineUsers)
}

func TestTransportClose_IsAnInvoluntaryDisconnect(t *testing.T) {
	req := require.New(t)
	ts, svc := newTestServer(t)

	u1 := registerClient(t, ts, "u1", "music")
	expectEvent(t, u1, domain.EventOnlineUsers)
	u2 := registerClient(t, ts, "u2", "music")
	expectEvent(t, u2, domain.EventMatched)

	// u1 drops without a manualDisconnect
	req.NoError(u1.Close())

	req.Eventually(func() bool { return svc.OnlineCount() == 1 }, time.Second, 10*time.Millisecond)

	for {
		e := readEvent(t, u2)
		if e.Type == domain.EventPartnerDisconnected {
			var gone domain.PartnerDisconnectedPayload
			req.NoError(json.Unmarshal(e.Payload, &gone))
			req.Equal(service.PartnerGoneNotice, gone.Message)
			break
		}
	}
}

func TestUnknownAndMalformedFramesAreIgnored(t *testing.T) {
	req := require.New(t)
	ts, svc := newTestServer(t)

	c := dial(t, ts)
	req.NoError(c.WriteMessage(websocket.TextMessage, []byte("not json")))
	send(t, c, "bogusEvent", map[string]string{"x": "y"})
	send(t, c, ws.TypeSendMessage, ws.SendMessagePayload{Text: "unregistered"})

	// the connection survives all of it
	send(t, c, ws.TypeRegister, ws.RegisterPayload{UserID: "u1", Interests: []string{"music"}})
	expectEvent(t, c, domain.EventConnected)
	req.Eventually(func() bool { return svc.OnlineCount() == 1 }, time.Second, 10*time.Millisecond)
}
