// internal/transport/loopback.go
package transport

import (
	"errors"
	"sync"

	"lobbyd/internal/lobby"
	"lobbyd/internal/protocol"
)

// Loopback is an in-process transport: one authority endpoint and any number
// of participant endpoints wired together with direct calls. Delivery is
// synchronous and ordered, matching the reliable-ordered guarantee of the
// WebSocket transport.
type Loopback struct {
	mu        sync.Mutex
	nextID    lobby.ClientID
	authority *loopbackAuthority
	parts     map[lobby.ClientID]*LoopbackParticipant
}

// NewLoopback creates an empty loopback fabric.
func NewLoopback() *Loopback {
	lb := &Loopback{
		nextID: lobby.AuthorityID + 1,
		parts:  make(map[lobby.ClientID]*LoopbackParticipant),
	}
	lb.authority = &loopbackAuthority{fabric: lb}
	return lb
}

// Authority returns the server endpoint of the fabric.
func (lb *Loopback) Authority() AuthoritySession { return lb.authority }

// Connect attaches a new participant endpoint and returns it.
func (lb *Loopback) Connect() *LoopbackParticipant {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	p := &LoopbackParticipant{fabric: lb, id: lb.nextID}
	lb.nextID++
	lb.parts[p.id] = p
	return p
}

// Disconnect severs a participant, notifying both ends like a dropped
// WebSocket would.
func (lb *Loopback) Disconnect(id lobby.ClientID) {
	lb.mu.Lock()
	p := lb.parts[id]
	delete(lb.parts, id)
	authFn := lb.authority.onDisconnect
	lb.mu.Unlock()

	if p == nil {
		return
	}
	if authFn != nil {
		authFn(id)
	}
	p.mu.Lock()
	fn := p.onDisconnect
	p.mu.Unlock()
	if fn != nil {
		fn(id)
	}
}

type loopbackAuthority struct {
	fabric *Loopback

	bound        bool
	onMessage    MessageHandler
	onDisconnect DisconnectHandler
}

func (a *loopbackAuthority) LocalID() lobby.ClientID { return lobby.AuthorityID }
func (a *loopbackAuthority) IsAuthority() bool       { return true }

func (a *loopbackAuthority) Bind() error {
	a.fabric.mu.Lock()
	defer a.fabric.mu.Unlock()
	if a.bound {
		return errors.New("transport: loopback already bound to an authority")
	}
	a.bound = true
	return nil
}

func (a *loopbackAuthority) OnMessage(fn MessageHandler) {
	a.fabric.mu.Lock()
	defer a.fabric.mu.Unlock()
	a.onMessage = fn
}

func (a *loopbackAuthority) OnDisconnect(fn DisconnectHandler) {
	a.fabric.mu.Lock()
	defer a.fabric.mu.Unlock()
	a.onDisconnect = fn
}

func (a *loopbackAuthority) SendToAll(env protocol.Envelope) {
	a.fabric.mu.Lock()
	parts := make([]*LoopbackParticipant, 0, len(a.fabric.parts))
	for _, p := range a.fabric.parts {
		parts = append(parts, p)
	}
	a.fabric.mu.Unlock()
	for _, p := range parts {
		p.deliver(env)
	}
}

func (a *loopbackAuthority) SendTo(id lobby.ClientID, env protocol.Envelope) {
	a.fabric.mu.Lock()
	p := a.fabric.parts[id]
	a.fabric.mu.Unlock()
	if p != nil {
		p.deliver(env)
	}
}

func (a *loopbackAuthority) SendToSet(ids []lobby.ClientID, env protocol.Envelope) {
	for _, id := range ids {
		a.SendTo(id, env)
	}
}

// LoopbackParticipant is the client end of a loopback connection.
type LoopbackParticipant struct {
	fabric *Loopback
	id     lobby.ClientID

	mu           sync.Mutex
	onMessage    MessageHandler
	onDisconnect DisconnectHandler
}

func (p *LoopbackParticipant) LocalID() lobby.ClientID { return p.id }
func (p *LoopbackParticipant) IsAuthority() bool       { return false }

func (p *LoopbackParticipant) OnMessage(fn MessageHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onMessage = fn
}

func (p *LoopbackParticipant) OnDisconnect(fn DisconnectHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onDisconnect = fn
}

func (p *LoopbackParticipant) Send(env protocol.Envelope) error {
	p.fabric.mu.Lock()
	_, connected := p.fabric.parts[p.id]
	fn := p.fabric.authority.onMessage
	p.fabric.mu.Unlock()
	if !connected {
		return errors.New("transport: loopback participant disconnected")
	}
	if fn != nil {
		fn(p.id, env)
	}
	return nil
}

func (p *LoopbackParticipant) deliver(env protocol.Envelope) {
	p.mu.Lock()
	fn := p.onMessage
	p.mu.Unlock()
	if fn != nil {
		fn(lobby.AuthorityID, env)
	}
}
