// internal/lobby/lobby_test.go
package lobby

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddPlayerRejectsDuplicates(t *testing.T) {
	l := NewLobby(0, false)
	p := NewPlayerInfo(7, "alice")

	require.True(t, l.AddPlayer(p))
	assert.False(t, l.AddPlayer(p))
	assert.Equal(t, 1, l.Count())

	// Same id under a different name is still the same player.
	assert.False(t, l.AddPlayer(NewPlayerInfo(7, "impostor")))
	assert.Equal(t, 1, l.Count())
}

func TestAddPlayerRejectsWhenFull(t *testing.T) {
	l := NewLobby(0, false)
	for i := 0; i < MaxPlayers; i++ {
		require.True(t, l.AddPlayer(NewPlayerInfo(ClientID(i+1), "p")))
	}
	require.True(t, l.IsFull())

	before := append([]PlayerInfo(nil), l.Players...)
	assert.False(t, l.AddPlayer(NewPlayerInfo(99, "late")))
	assert.Equal(t, before, l.Players)
}

func TestRemovePlayer(t *testing.T) {
	l := NewLobby(0, false)
	a := NewPlayerInfo(1, "a")
	b := NewPlayerInfo(2, "b")
	c := NewPlayerInfo(3, "c")
	for _, p := range []PlayerInfo{a, b, c} {
		require.True(t, l.AddPlayer(p))
	}

	l.RemovePlayer(b)
	assert.Equal(t, []PlayerInfo{a, c}, l.Players, "join order preserved after removal")

	// Removing an absent player is a no-op.
	l.RemovePlayer(b)
	assert.Equal(t, 2, l.Count())
}

func TestSeedRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		l := NewLobby(i, false)
		if l.Seed < 0 || l.Seed >= MaxSeed {
			t.Fatalf("seed %d outside [0, %d)", l.Seed, MaxSeed)
		}
	}
}

func TestPlayerAt(t *testing.T) {
	l := NewLobby(0, false)
	a := NewPlayerInfo(1, "a")
	require.True(t, l.AddPlayer(a))

	got, ok := l.PlayerAt(0)
	require.True(t, ok)
	assert.Equal(t, a, got)

	_, ok = l.PlayerAt(1)
	assert.False(t, ok)
	_, ok = l.PlayerAt(-1)
	assert.False(t, ok)
}

func TestMatches(t *testing.T) {
	public := NewLobby(0, false)
	private := NewLobby(1, true)
	full := NewLobby(2, false)
	for i := 0; i < MaxPlayers; i++ {
		require.True(t, full.AddPlayer(NewPlayerInfo(ClientID(i+1), "p")))
	}

	assert.True(t, public.Matches(NoFilter))
	assert.True(t, private.Matches(NoFilter))
	assert.True(t, full.Matches(NoFilter))

	assert.False(t, private.Matches(ExcludePrivate))
	assert.True(t, full.Matches(ExcludePrivate))

	assert.False(t, full.Matches(ExcludeFull))
	assert.True(t, private.Matches(ExcludeFull))

	assert.True(t, public.Matches(Matchmaking))
	assert.False(t, private.Matches(Matchmaking))
	assert.False(t, full.Matches(Matchmaking))
}
