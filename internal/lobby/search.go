// internal/lobby/search.go
package lobby

// Filter constrains lobby searches. Flags combine with bitwise or.
type Filter uint8

const (
	// NoFilter matches every lobby.
	NoFilter Filter = 0

	// ExcludePrivate skips private lobbies.
	ExcludePrivate Filter = 1 << 0

	// ExcludeFull skips lobbies at capacity.
	ExcludeFull Filter = 1 << 1

	// Matchmaking is the filter used to find open public lobbies.
	Matchmaking = ExcludePrivate | ExcludeFull
)

// Matches reports whether the lobby passes the filter.
func (l *Lobby) Matches(f Filter) bool {
	if f&ExcludePrivate != 0 && l.Private {
		return false
	}
	if f&ExcludeFull != 0 && l.IsFull() {
		return false
	}
	return true
}
