// internal/lobby/player.go
package lobby

// ClientID identifies a single active connection endpoint. IDs are assigned
// by the transport layer and are unique for the lifetime of the process; a
// reconnecting player receives a fresh ClientID.
type ClientID uint64

// AuthorityID is the ClientID reserved for the authoritative server endpoint.
const AuthorityID ClientID = 0

// PlayerInfo identifies a player for lobby membership purposes. It is
// immutable after creation; equality is by ID only, the display name is
// informational.
type PlayerInfo struct {
	ID   ClientID `json:"id"`
	Name string   `json:"name"`
}

// NewPlayerInfo builds a PlayerInfo from an explicit connection id and
// display name.
func NewPlayerInfo(id ClientID, name string) PlayerInfo {
	return PlayerInfo{ID: id, Name: name}
}

// Equal reports whether both infos identify the same connection.
func (p PlayerInfo) Equal(other PlayerInfo) bool {
	return p.ID == other.ID
}
