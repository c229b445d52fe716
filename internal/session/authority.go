// internal/session/authority.go

// Package session implements the two roles of the lobby protocol: the
// Authority, which owns the canonical lobby set on the server, and the
// Participant, which mirrors at most one lobby on a client. Both speak
// protocol envelopes over a transport session.
package session

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"lobbyd/internal/journal"
	"lobbyd/internal/lobby"
	"lobbyd/internal/protocol"
	"lobbyd/internal/transport"
)

// Authority applies player intents to the authoritative lobby store and
// replicates the resulting state to affected participants only. All intent
// handling is serialized behind one mutex; an intent either applies fully or
// is silently dropped, never partially.
type Authority struct {
	mu      sync.Mutex
	sess    transport.AuthoritySession
	store   *lobby.Store
	logger  *logrus.Logger
	journal *journal.Journal
}

// NewAuthority binds the transport session and starts handling intents.
// Binding a session that already carries an authority fails: one authority
// per listening server.
func NewAuthority(sess transport.AuthoritySession, logger *logrus.Logger, j *journal.Journal) (*Authority, error) {
	if err := sess.Bind(); err != nil {
		return nil, err
	}
	a := &Authority{
		sess:    sess,
		store:   lobby.NewStore(),
		logger:  logger,
		journal: j,
	}
	sess.OnMessage(a.handleMessage)
	sess.OnDisconnect(a.handleDisconnect)
	return a, nil
}

// Lobbies returns a detached snapshot of the current lobby set.
func (a *Authority) Lobbies() []lobby.Lobby {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.store.Snapshot()
}

func (a *Authority) handleMessage(from lobby.ClientID, env protocol.Envelope) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch env.Type {
	case protocol.TypeCreatePrivateLobby:
		var req protocol.CreatePrivateLobby
		if err := env.Payload(&req); err != nil {
			a.logger.Warnf("client %d: %v", from, err)
			return
		}
		a.createPrivateLobby(lobby.NewPlayerInfo(from, req.Name))

	case protocol.TypeJoinPrivateLobby:
		var req protocol.JoinPrivateLobby
		if err := env.Payload(&req); err != nil {
			a.logger.Warnf("client %d: %v", from, err)
			return
		}
		a.joinPrivateLobby(lobby.NewPlayerInfo(from, req.Name), req.Code)

	case protocol.TypeMatchmake:
		var req protocol.Matchmake
		if err := env.Payload(&req); err != nil {
			a.logger.Warnf("client %d: %v", from, err)
			return
		}
		a.matchmake(lobby.NewPlayerInfo(from, req.Name))

	case protocol.TypeExitLobby:
		a.exitLobby(from, true)

	case protocol.TypeValidateCode:
		var req protocol.ValidateCode
		if err := env.Payload(&req); err != nil {
			a.logger.Warnf("client %d: %v", from, err)
			return
		}
		a.validateCode(from, req.Code)

	case protocol.TypeFetchLobbies:
		a.sendSnapshot(from)

	default:
		a.logger.Debugf("ignoring envelope %q from client %d", env.Type, from)
	}
}

// handleDisconnect treats transport loss as an implicit, always-successful
// exit. The exited player gets no notification; there is nobody to notify.
func (a *Authority) handleDisconnect(id lobby.ClientID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.exitLobby(id, false)
}

func (a *Authority) createPrivateLobby(p lobby.PlayerInfo) {
	lb := a.store.Create(true)
	a.record(journal.EventLobbyCreated, lb, p.ID)
	a.logger.WithFields(logrus.Fields{
		"lobby_id":  lb.ID,
		"client_id": p.ID,
	}).Info("private lobby created")
	a.moveToLobby(p, lb)
}

// joinPrivateLobby drops the intent silently when the code does not resolve
// or the lobby is full; the client is expected to have pre-validated through
// the code validator.
func (a *Authority) joinPrivateLobby(p lobby.PlayerInfo, code int) {
	lb, ok := a.store.Get(code, lobby.ExcludeFull)
	if !ok {
		return
	}
	a.moveToLobby(p, lb)
}

func (a *Authority) matchmake(p lobby.PlayerInfo) {
	var target *lobby.Lobby
	if current := a.store.LobbyOf(p.ID); current != nil {
		// Skip the caller's current lobby so matchmaking never "moves"
		// a player into the lobby they already occupy.
		for _, candidate := range a.store.FindAll(lobby.Matchmaking) {
			if candidate != current {
				target = candidate
				break
			}
		}
	} else {
		target = a.store.FindFirst(lobby.Matchmaking)
	}

	if target == nil {
		target = a.store.Create(false)
		a.record(journal.EventLobbyCreated, target, p.ID)
		a.logger.WithFields(logrus.Fields{
			"lobby_id":  target.ID,
			"client_id": p.ID,
		}).Info("public lobby created")
	}
	a.moveToLobby(p, target)
}

// moveToLobby is the single join path. It guarantees a player is a member of
// at most one lobby at any observable instant: any stale membership is
// cleared before the new one is established.
func (a *Authority) moveToLobby(p lobby.PlayerInfo, lb *lobby.Lobby) {
	if lb.IsFull() {
		return
	}
	a.exitLobby(p.ID, false)
	if lb.AddPlayer(p) {
		a.record(journal.EventPlayerJoined, lb, p.ID)
		a.replicate(lb)
	}
}

// exitLobby removes the player from their lobby, if any. When selfInitiated,
// the player additionally gets a private "exited" message so a requested
// exit is acknowledged the same way a server-initiated removal would be.
func (a *Authority) exitLobby(id lobby.ClientID, selfInitiated bool) {
	left := a.store.Leave(lobby.NewPlayerInfo(id, ""))
	if left == nil {
		return
	}
	a.record(journal.EventPlayerLeft, left, id)
	if left.IsEmpty() {
		a.record(journal.EventLobbyDeleted, left, id)
		a.logger.WithField("lobby_id", left.ID).Info("lobby deleted")
	}
	if selfInitiated {
		a.sess.SendTo(id, protocol.Envelope{Type: protocol.TypeExitedLobby})
	}
	a.replicate(left)
}

// replicate multicasts the lobby state to its current members only.
func (a *Authority) replicate(lb *lobby.Lobby) {
	members := lb.MemberIDs()
	if len(members) == 0 {
		return
	}
	env := protocol.MustEnvelope(protocol.TypeLobbyState, protocol.LobbyState{Lobby: *lb})
	a.sess.SendToSet(members, env)
}

func (a *Authority) validateCode(from lobby.ClientID, code int) {
	status := protocol.ValidationInvalid
	if lb, ok := a.store.Get(code, lobby.NoFilter); ok {
		if lb.IsFull() {
			status = protocol.ValidationFull
		} else {
			status = protocol.ValidationValid
		}
	}
	env := protocol.MustEnvelope(protocol.TypeValidationResult, protocol.ValidationResult{
		Code:   code,
		Status: status,
	})
	a.sess.SendTo(from, env)
}

func (a *Authority) sendSnapshot(to lobby.ClientID) {
	env := protocol.MustEnvelope(protocol.TypeLobbiesSnapshot, protocol.LobbiesSnapshot{
		Lobbies: a.store.Snapshot(),
	})
	a.sess.SendTo(to, env)
}

func (a *Authority) record(event string, lb *lobby.Lobby, subject lobby.ClientID) {
	a.journal.Publish(context.Background(), journal.Record{
		Event:   event,
		LobbyID: lb.ID,
		Private: lb.Private,
		Seed:    lb.Seed,
		Members: lb.MemberIDs(),
		Subject: subject,
	})
}
