package service

import (
	"log/slog"
	"sync"

	"github.com/driftchat/match-service/internal/domain"

	"github.com/samber/lo"
)

// PartnerGoneNotice is sent to the surviving side of a session when its peer
// disconnects.
const PartnerGoneNotice = "Your chat partner has disconnected. You can stay here while we are searching a new chat partner for you."

// PresenceBroadcaster pushes an event to every live connection, registered or
// not. Implemented by the ws hub.
type PresenceBroadcaster interface {
	Broadcast(event string, payload any)
}

// MatchService is the matching-and-relay engine: it owns the registry, pairs
// newly registered participants by interest overlap and relays session events
// between matched peers.
//
// One mutex guards the registry and all match pointers. Every externally
// triggered operation runs to completion under it, so the matcher's
// scan-then-mutate and the disconnect lookup-then-clear-then-remove sequences
// never interleave.
type MatchService struct {
	mu       sync.Mutex
	registry *Registry
	presence PresenceBroadcaster
}

func NewMatchService(registry *Registry, presence PresenceBroadcaster) *MatchService {
	return &MatchService{
		registry: registry,
		presence: presence,
	}
}

// Register admits a connection into the registry and runs one matching pass
// for it. On success the caller gets a connected event and everyone gets a
// fresh presence count; on a duplicate identity nothing is mutated and
// domain.ErrDuplicateIdentity is returned with the connection left open.
func (s *MatchService) Register(c Conn, userID string, interests []string, isAdmin bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := &domain.Participant{
		ConnID:    c.ID(),
		UserID:    userID,
		Interests: interests,
		IsAdmin:   isAdmin,
	}
	if err := s.registry.Add(p, c); err != nil {
		return err
	}

	_ = c.Emit(domain.EventConnected, nil)
	s.matchLocked(p, c)
	s.broadcastPresenceLocked()

	slog.Info("participant registered", "conn", p.ConnID, "user", userID)
	return nil
}

// matchLocked pairs p with the first waiting participant sharing at least one
// interest. First fit in registration order; overlap size never breaks ties.
// A participant with no interests can never satisfy the non-empty overlap on
// either side, which is a known limitation of the algorithm.
func (s *MatchService) matchLocked(p *domain.Participant, c Conn) {
	var (
		cand     *domain.Participant
		candConn Conn
		shared   []string
	)
	s.registry.Each(func(o *domain.Participant, oc Conn) bool {
		if o.ConnID == p.ConnID || o.Matched() {
			return true
		}
		// intersection keeps the registrant's interest order
		is := lo.Filter(p.Interests, func(interest string, _ int) bool {
			return lo.Contains(o.Interests, interest)
		})
		if len(is) > 0 {
			cand, candConn, shared = o, oc, is
			return false
		}
		return true
	})
	if cand == nil {
		return
	}

	p.Match = cand.ConnID
	cand.Match = p.ConnID

	_ = c.Emit(domain.EventMatched, domain.MatchedPayload{
		UserID:    cand.UserID,
		Interests: shared,
		IsAdmin:   cand.IsAdmin,
	})
	_ = candConn.Emit(domain.EventMatched, domain.MatchedPayload{
		UserID:    p.UserID,
		Interests: shared,
		IsAdmin:   p.IsAdmin,
	})

	slog.Info("participants matched",
		"user", p.UserID, "peer", cand.UserID, "shared", shared)
}

// RelayMessage forwards a chat message to the sender's matched peer, tagged
// with the sender's admin flag.
func (s *MatchService) RelayMessage(connID, text string) {
	s.relay(connID, domain.EventReceiveMessage, func(sender *domain.Participant) any {
		return domain.ReceiveMessagePayload{Text: text, IsAdmin: sender.IsAdmin}
	})
}

func (s *MatchService) RelayTyping(connID string) {
	s.relay(connID, domain.EventTyping, nil)
}

func (s *MatchService) RelayStopTyping(connID string) {
	s.relay(connID, domain.EventStopTyping, nil)
}

// relay delivers one event to the sender's matched peer. Unmatched senders
// and peers that vanished moments earlier are silent no-ops: delivery is
// best-effort while both sides are connected, nothing more.
func (s *MatchService) relay(connID, event string, payload func(sender *domain.Participant) any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sender, _, ok := s.registry.ByConnID(connID)
	if !ok || !sender.Matched() {
		return
	}
	_, peerConn, ok := s.registry.ByConnID(sender.Match)
	if !ok {
		return
	}
	var p any
	if payload != nil {
		p = payload(sender)
	}
	_ = peerConn.Emit(event, p)
}

// Disconnect tears down a participant, voluntary or not: notify the matched
// peer and free it for re-matching, drop the record, broadcast presence.
// Unknown ids are a no-op, so the voluntary path and the transport close that
// follows it can both call this.
//
// The freed peer is not re-run through the matcher here; it waits for the
// next registration event.
func (s *MatchService) Disconnect(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, _, ok := s.registry.ByConnID(connID)
	if !ok {
		return
	}
	if p.Matched() {
		if peer, peerConn, ok := s.registry.ByConnID(p.Match); ok {
			_ = peerConn.Emit(domain.EventPartnerDisconnected,
				domain.PartnerDisconnectedPayload{Message: PartnerGoneNotice})
			peer.Match = ""
		}
	}
	s.registry.Remove(connID)
	s.broadcastPresenceLocked()

	slog.Info("participant removed", "conn", connID, "user", p.UserID)
}

// OnlineCount reports the current number of registered participants.
func (s *MatchService) OnlineCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Size()
}

func (s *MatchService) broadcastPresenceLocked() {
	s.presence.Broadcast(domain.EventOnlineUsers,
		domain.OnlineUsersPayload{OnlineUsers: s.registry.Size()})
}
