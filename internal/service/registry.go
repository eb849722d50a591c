package service

import (
	"github.com/driftchat/match-service/internal/domain"
)

// Conn is the transport handle the registry keeps next to each participant
// for event delivery. It is owned by the transport layer; the registry only
// references it.
type Conn interface {
	ID() string
	Emit(event string, payload any) error
	Close() error
}

type member struct {
	p    *domain.Participant
	conn Conn
}

// Registry holds every connected, registered participant. Insertion order is
// preserved because matching is first-fit by registration order.
//
// Registry is not safe for concurrent use on its own: MatchService serializes
// access under a single mutex so that scan-then-mutate sequences stay atomic.
type Registry struct {
	order  []*member
	byConn map[string]*member
	byUser map[string]*member
}

func NewRegistry() *Registry {
	return &Registry{
		byConn: make(map[string]*member),
		byUser: make(map[string]*member),
	}
}

// Add inserts a participant with its transport handle. The connection may
// hold at most one entry and the identity must be unique among currently
// registered participants; either duplicate is rejected without mutating
// anything. Refusing the conn-id duplicate keeps membership exactly
// "currently connected AND registered": overwriting byConn would leave the
// first record stranded in order/byUser after the connection goes away.
func (r *Registry) Add(p *domain.Participant, c Conn) error {
	if _, ok := r.byConn[p.ConnID]; ok {
		return domain.ErrAlreadyRegistered
	}
	if _, ok := r.byUser[p.UserID]; ok {
		return domain.ErrDuplicateIdentity
	}
	m := &member{p: p, conn: c}
	r.order = append(r.order, m)
	r.byConn[p.ConnID] = m
	r.byUser[p.UserID] = m
	return nil
}

func (r *Registry) ByConnID(id string) (*domain.Participant, Conn, bool) {
	m, ok := r.byConn[id]
	if !ok {
		return nil, nil, false
	}
	return m.p, m.conn, true
}

func (r *Registry) ByUserID(id string) (*domain.Participant, Conn, bool) {
	m, ok := r.byUser[id]
	if !ok {
		return nil, nil, false
	}
	return m.p, m.conn, true
}

// Remove deletes the participant for connID. Removing an unknown id is a
// no-op, so a voluntary disconnect followed by the transport-level close is
// safe.
func (r *Registry) Remove(connID string) {
	m, ok := r.byConn[connID]
	if !ok {
		return
	}
	delete(r.byConn, connID)
	delete(r.byUser, m.p.UserID)
	for i, o := range r.order {
		if o == m {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *Registry) Size() int { return len(r.byConn) }

// Each visits participants in registration order until fn returns false.
func (r *Registry) Each(fn func(p *domain.Participant, c Conn) bool) {
	for _, m := range r.order {
		if !fn(m.p, m.conn) {
			return
		}
	}
}
