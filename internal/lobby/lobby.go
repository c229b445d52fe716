// internal/lobby/lobby.go
package lobby

import "math/rand/v2"

const (
	// MaxPlayers is the membership capacity of every lobby.
	MaxPlayers = 4

	// MaxSeed bounds the gameplay seed: seeds are drawn from [0, MaxSeed).
	MaxSeed = 100000
)

// Lobby is an ephemeral, capacity-bounded group of players sharing a gameplay
// seed. Members are kept in join order. The zero value is not usable; lobbies
// are created through NewLobby (or by a Store, which also allocates the ID).
type Lobby struct {
	ID      int          `json:"id"`
	Private bool         `json:"private"`
	Seed    int          `json:"seed"`
	Players []PlayerInfo `json:"players"`
}

// NewLobby constructs a lobby with the given id and privacy flag. The
// gameplay seed is drawn once here and never regenerated.
func NewLobby(id int, private bool) *Lobby {
	return &Lobby{
		ID:      id,
		Private: private,
		Seed:    rand.IntN(MaxSeed),
	}
}

// Count returns the active player count. The capacity is MaxPlayers.
func (l *Lobby) Count() int { return len(l.Players) }

func (l *Lobby) IsEmpty() bool { return len(l.Players) == 0 }
func (l *Lobby) IsFull() bool  { return len(l.Players) == MaxPlayers }

// Contains reports whether the connection id is a member of the lobby.
func (l *Lobby) Contains(id ClientID) bool {
	for _, p := range l.Players {
		if p.ID == id {
			return true
		}
	}
	return false
}

// AddPlayer appends the player to the member list. It returns false without
// mutating the lobby if the player is already a member or the lobby is full.
func (l *Lobby) AddPlayer(p PlayerInfo) bool {
	if l.Contains(p.ID) || l.IsFull() {
		return false
	}
	l.Players = append(l.Players, p)
	return true
}

// RemovePlayer removes the player by identity. Absent players are a no-op.
func (l *Lobby) RemovePlayer(p PlayerInfo) {
	for i, member := range l.Players {
		if member.ID == p.ID {
			l.Players = append(l.Players[:i], l.Players[i+1:]...)
			return
		}
	}
}

// PlayerAt returns the member at the given join-order index, or ok=false when
// the index is out of range.
func (l *Lobby) PlayerAt(index int) (PlayerInfo, bool) {
	if index < 0 || index >= len(l.Players) {
		return PlayerInfo{}, false
	}
	return l.Players[index], true
}

// MemberIDs returns the connection ids of all current members, in join order.
// Used for targeted replication.
func (l *Lobby) MemberIDs() []ClientID {
	ids := make([]ClientID, len(l.Players))
	for i, p := range l.Players {
		ids[i] = p.ID
	}
	return ids
}
