// internal/session/view.go
package session

import (
	"sync"

	"lobbyd/internal/lobby"
)

// LobbyObserver is notified whenever the local lobby view changes. A nil
// lobby means the client no longer belongs to any lobby.
type LobbyObserver func(*lobby.Lobby)

// LobbyView holds the single lobby a participant believes it belongs to,
// plus an explicit observer list. It is set only by replication messages or
// by local clearing on disconnect, never by direct client action.
type LobbyView struct {
	mu        sync.Mutex
	current   *lobby.Lobby
	observers map[int]LobbyObserver
	nextKey   int
}

// NewLobbyView returns an empty view.
func NewLobbyView() *LobbyView {
	return &LobbyView{observers: make(map[int]LobbyObserver)}
}

// Current returns the lobby the participant currently mirrors, or nil.
func (v *LobbyView) Current() *lobby.Lobby {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Subscribe registers an observer and returns its unsubscribe function.
func (v *LobbyView) Subscribe(fn LobbyObserver) (unsubscribe func()) {
	v.mu.Lock()
	key := v.nextKey
	v.nextKey++
	v.observers[key] = fn
	v.mu.Unlock()

	return func() {
		v.mu.Lock()
		delete(v.observers, key)
		v.mu.Unlock()
	}
}

// set replaces the view and notifies observers outside the lock.
func (v *LobbyView) set(l *lobby.Lobby) {
	v.mu.Lock()
	v.current = l
	notify := make([]LobbyObserver, 0, len(v.observers))
	for _, fn := range v.observers {
		notify = append(notify, fn)
	}
	v.mu.Unlock()

	for _, fn := range notify {
		fn(l)
	}
}
