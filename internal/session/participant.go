// internal/session/participant.go
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"

	"lobbyd/internal/lobby"
	"lobbyd/internal/protocol"
	"lobbyd/internal/transport"
)

// NameResolver supplies the local player's display name.
type NameResolver func() string

// Config carries the participant's tunables. The zero value works: the
// refresh interval defaults to DefaultRefreshInterval and the clock to the
// wall clock.
type Config struct {
	// RefreshInterval is how long a Valid code verdict is trusted.
	RefreshInterval time.Duration

	// Clock drives the validator's deadline checks. Tests inject a mock.
	Clock clock.Clock
}

// Participant is the client role: it issues player intents to the authority
// and mirrors the replication messages addressed to it. It owns the local
// lobby view, the diagnostic snapshot and the code validator.
type Participant struct {
	sess   transport.ParticipantSession
	logger *logrus.Logger
	name   string

	view      *LobbyView
	validator *CodeValidator

	mu       sync.Mutex
	snapshot []lobby.Lobby
}

// NewParticipant wires the participant to its transport session and starts
// consuming replication messages.
func NewParticipant(sess transport.ParticipantSession, resolve NameResolver, cfg Config, logger *logrus.Logger) *Participant {
	name := ""
	if resolve != nil {
		name = resolve()
	}
	if name == "" {
		name = fmt.Sprintf("player-%d", sess.LocalID())
	}

	p := &Participant{
		sess:   sess,
		logger: logger,
		name:   name,
		view:   NewLobbyView(),
	}
	p.validator = newCodeValidator(p.sendValidation, cfg.RefreshInterval, cfg.Clock)

	sess.OnMessage(p.handleMessage)
	sess.OnDisconnect(p.handleDisconnect)
	return p
}

// Name returns the resolved local display name.
func (p *Participant) Name() string { return p.name }

// View exposes the local lobby view for observation.
func (p *Participant) View() *LobbyView { return p.view }

// Validator exposes the lobby code validator.
func (p *Participant) Validator() *CodeValidator { return p.validator }

// LocalLobby returns the lobby this client currently believes it belongs to,
// or nil.
func (p *Participant) LocalLobby() *lobby.Lobby { return p.view.Current() }

// Snapshot returns the last diagnostic mirror received, or nil if none was
// fetched. The mirror is best effort and may lag the authority.
func (p *Participant) Snapshot() []lobby.Lobby {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot
}

// RequestCreatePrivateLobby asks the authority for a fresh private lobby
// with this player as its first member.
func (p *Participant) RequestCreatePrivateLobby() error {
	return p.sess.Send(protocol.MustEnvelope(protocol.TypeCreatePrivateLobby, protocol.CreatePrivateLobby{
		Name: p.name,
	}))
}

// RequestJoinPrivateLobby asks to join the lobby with the given code. An
// unknown or full code is silently dropped by the authority; pre-validate
// with the code validator.
func (p *Participant) RequestJoinPrivateLobby(code int) error {
	return p.sess.Send(protocol.MustEnvelope(protocol.TypeJoinPrivateLobby, protocol.JoinPrivateLobby{
		Name: p.name,
		Code: code,
	}))
}

// RequestMatchmake asks to join the first open public lobby, or have one
// created.
func (p *Participant) RequestMatchmake() error {
	return p.sess.Send(protocol.MustEnvelope(protocol.TypeMatchmake, protocol.Matchmake{
		Name: p.name,
	}))
}

// RequestExitLobby asks to leave the current lobby. The authority confirms
// with an exited notification that clears the local view.
func (p *Participant) RequestExitLobby() error {
	return p.sess.Send(protocol.Envelope{Type: protocol.TypeExitLobby})
}

// RequestFetchLobbies asks for the full diagnostic mirror.
func (p *Participant) RequestFetchLobbies() error {
	return p.sess.Send(protocol.Envelope{Type: protocol.TypeFetchLobbies})
}

// RequestValidateLobbyCode feeds a hand-typed code into the validator, which
// issues the validation request.
func (p *Participant) RequestValidateLobbyCode(code int) {
	p.validator.SetCode(code)
}

func (p *Participant) sendValidation(code int) {
	env := protocol.MustEnvelope(protocol.TypeValidateCode, protocol.ValidateCode{Code: code})
	if err := p.sess.Send(env); err != nil {
		p.logger.Warnf("validation request failed: %v", err)
	}
}

func (p *Participant) handleMessage(from lobby.ClientID, env protocol.Envelope) {
	switch env.Type {
	case protocol.TypeLobbyState:
		var state protocol.LobbyState
		if err := env.Payload(&state); err != nil {
			p.logger.Warnf("bad lobby state: %v", err)
			return
		}
		p.view.set(&state.Lobby)

	case protocol.TypeExitedLobby:
		p.view.set(nil)

	case protocol.TypeValidationResult:
		var result protocol.ValidationResult
		if err := env.Payload(&result); err != nil {
			p.logger.Warnf("bad validation result: %v", err)
			return
		}
		p.validator.Apply(result.Code, result.Status)

	case protocol.TypeLobbiesSnapshot:
		var snap protocol.LobbiesSnapshot
		if err := env.Payload(&snap); err != nil {
			p.logger.Warnf("bad lobbies snapshot: %v", err)
			return
		}
		p.mu.Lock()
		p.snapshot = snap.Lobbies
		p.mu.Unlock()

	case protocol.TypeWelcome:
		// Consumed by the transport handshake; nothing to do here.

	default:
		p.logger.Debugf("ignoring envelope %q", env.Type)
	}
}

// handleDisconnect clears a view that can no longer be synchronized with the
// authority. A lobby held after disconnect is dirty by definition.
func (p *Participant) handleDisconnect(lobby.ClientID) {
	if p.view.Current() != nil {
		p.view.set(nil)
	}
}
