// internal/transport/transport.go

// Package transport carries protocol envelopes between the authoritative
// server process and its connected participants. The session layer only
// promises per-connection reliable ordered delivery and connect/disconnect
// notifications; everything above it (lobby semantics, replication targeting)
// lives in internal/session.
package transport

import (
	"lobbyd/internal/lobby"
	"lobbyd/internal/protocol"
)

// MessageHandler receives every inbound envelope along with the sender's
// connection id.
type MessageHandler func(from lobby.ClientID, env protocol.Envelope)

// DisconnectHandler is invoked when a connection is lost, after the
// connection has been removed from the session's routing tables.
type DisconnectHandler func(id lobby.ClientID)

// Session is the surface shared by both ends of the transport.
// Handlers must be registered before the session starts moving messages.
type Session interface {
	// LocalID is this endpoint's own connection id. The authority is
	// always lobby.AuthorityID.
	LocalID() lobby.ClientID

	// IsAuthority reports whether this endpoint owns the canonical state.
	IsAuthority() bool

	OnMessage(MessageHandler)
	OnDisconnect(DisconnectHandler)
}

// AuthoritySession is the server end: it can address any subset of
// connected participants. Sends are fire-and-forget; a send to a vanished
// connection is silently dropped.
type AuthoritySession interface {
	Session

	// Bind reserves the session for a single authority instance.
	// A second Bind is a configuration error.
	Bind() error

	SendToAll(env protocol.Envelope)
	SendTo(id lobby.ClientID, env protocol.Envelope)
	SendToSet(ids []lobby.ClientID, env protocol.Envelope)
}

// ParticipantSession is the client end: it can only talk to the authority.
type ParticipantSession interface {
	Session

	// Send delivers an envelope to the authority.
	Send(env protocol.Envelope) error
}
