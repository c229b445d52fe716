// internal/lobby/store.go
package lobby

import "sort"

// Store is the authoritative collection of lobbies, keyed by lobby ID and
// iterated in creation order. It exists only on the server side.
//
// Store is not safe for concurrent use on its own: intents routinely span
// several calls (leave, then add, then read the member set), so the
// serialization boundary belongs to the owner. The session authority guards
// every mutating sequence with a single mutex.
type Store struct {
	lobbies []*Lobby
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Len returns the number of active lobbies.
func (s *Store) Len() int { return len(s.lobbies) }

// NextID returns the smallest non-negative integer not currently assigned to
// a lobby. IDs freed by deleted lobbies are reused.
func (s *Store) NextID() int {
	ids := make([]int, len(s.lobbies))
	for i, l := range s.lobbies {
		ids[i] = l.ID
	}
	sort.Ints(ids)

	id := 0
	for _, assigned := range ids {
		if assigned != id {
			break
		}
		id++
	}
	return id
}

// Create allocates an ID, constructs the lobby and inserts it.
func (s *Store) Create(private bool) *Lobby {
	l := NewLobby(s.NextID(), private)
	s.lobbies = append(s.lobbies, l)
	return l
}

// LobbyOf returns the lobby the connection is a member of, or nil. The
// mutation protocol guarantees at most one membership per connection.
func (s *Store) LobbyOf(id ClientID) *Lobby {
	for _, l := range s.lobbies {
		if l.Contains(id) {
			return l
		}
	}
	return nil
}

// Leave removes the player from their current lobby. A lobby emptied by the
// removal is deleted from the store. Returns the (possibly now-empty) lobby
// for notification purposes, or nil if the player was in no lobby.
func (s *Store) Leave(p PlayerInfo) *Lobby {
	current := s.LobbyOf(p.ID)
	if current == nil {
		return nil
	}
	current.RemovePlayer(p)
	if current.IsEmpty() {
		s.remove(current)
	}
	return current
}

func (s *Store) remove(target *Lobby) {
	for i, l := range s.lobbies {
		if l == target {
			s.lobbies = append(s.lobbies[:i], s.lobbies[i+1:]...)
			return
		}
	}
}

// Get returns the lobby with the given id if it also passes the filter.
func (s *Store) Get(id int, f Filter) (*Lobby, bool) {
	for _, l := range s.lobbies {
		if l.ID == id && l.Matches(f) {
			return l, true
		}
	}
	return nil, false
}

// FindFirst returns the first lobby in creation order passing the filter, or
// nil when none does.
func (s *Store) FindFirst(f Filter) *Lobby {
	for _, l := range s.lobbies {
		if l.Matches(f) {
			return l
		}
	}
	return nil
}

// FindAll returns every lobby passing the filter, in creation order.
func (s *Store) FindAll(f Filter) []*Lobby {
	var found []*Lobby
	for _, l := range s.lobbies {
		if l.Matches(f) {
			found = append(found, l)
		}
	}
	return found
}

// Snapshot copies the current lobby set for diagnostic replication. The
// copies are detached: later store mutations do not affect them.
func (s *Store) Snapshot() []Lobby {
	snap := make([]Lobby, len(s.lobbies))
	for i, l := range s.lobbies {
		snap[i] = *l
		snap[i].Players = append([]PlayerInfo(nil), l.Players...)
	}
	return snap
}
