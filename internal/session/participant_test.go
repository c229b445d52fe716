// internal/session/participant_test.go
package session

import (
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lobbyd/internal/lobby"
	"lobbyd/internal/protocol"
	"lobbyd/internal/transport"
)

// The participant tests run the full client role against a real authority
// over the loopback transport.
func newParticipantFixture(t *testing.T, fabric *transport.Loopback, name string) *Participant {
	return NewParticipant(fabric.Connect(), func() string { return name }, Config{
		Clock: clock.NewMock(),
	}, testLogger())
}

func TestParticipantCreateAndJoinFlow(t *testing.T) {
	fabric := transport.NewLoopback()
	_, err := NewAuthority(fabric.Authority(), testLogger(), nil)
	require.NoError(t, err)

	alice := newParticipantFixture(t, fabric, "alice")
	bob := newParticipantFixture(t, fabric, "bob")

	var aliceChanges []*lobby.Lobby
	alice.View().Subscribe(func(l *lobby.Lobby) {
		aliceChanges = append(aliceChanges, l)
	})

	require.NoError(t, alice.RequestCreatePrivateLobby())
	require.NotNil(t, alice.LocalLobby())
	assert.Equal(t, 0, alice.LocalLobby().ID)
	assert.True(t, alice.LocalLobby().Private)
	require.Len(t, aliceChanges, 1)

	// Bob validates the hand-typed code, then joins.
	bob.RequestValidateLobbyCode(0)
	assert.Equal(t, protocol.ValidationValid, bob.Validator().Status())

	require.NoError(t, bob.RequestJoinPrivateLobby(0))
	require.NotNil(t, bob.LocalLobby())
	assert.Equal(t, 2, bob.LocalLobby().Count())
	assert.Equal(t, "alice", bob.LocalLobby().Players[0].Name)
	assert.Equal(t, "bob", bob.LocalLobby().Players[1].Name)

	// Alice saw the membership change too.
	require.Len(t, aliceChanges, 2)
	assert.Equal(t, 2, alice.LocalLobby().Count())
}

func TestParticipantExitClearsView(t *testing.T) {
	fabric := transport.NewLoopback()
	_, err := NewAuthority(fabric.Authority(), testLogger(), nil)
	require.NoError(t, err)

	alice := newParticipantFixture(t, fabric, "alice")
	require.NoError(t, alice.RequestMatchmake())
	require.NotNil(t, alice.LocalLobby())

	require.NoError(t, alice.RequestExitLobby())
	assert.Nil(t, alice.LocalLobby(), "exited notification must clear the view")
}

func TestParticipantDisconnectClearsDirtyView(t *testing.T) {
	fabric := transport.NewLoopback()
	_, err := NewAuthority(fabric.Authority(), testLogger(), nil)
	require.NoError(t, err)

	alice := newParticipantFixture(t, fabric, "alice")

	cleared := false
	alice.View().Subscribe(func(l *lobby.Lobby) {
		cleared = l == nil
	})

	require.NoError(t, alice.RequestMatchmake())
	require.NotNil(t, alice.LocalLobby())

	fabric.Disconnect(alice.sess.LocalID())
	assert.Nil(t, alice.LocalLobby())
	assert.True(t, cleared)
}

func TestParticipantSnapshotFetch(t *testing.T) {
	fabric := transport.NewLoopback()
	_, err := NewAuthority(fabric.Authority(), testLogger(), nil)
	require.NoError(t, err)

	alice := newParticipantFixture(t, fabric, "alice")
	observer := newParticipantFixture(t, fabric, "observer")

	require.NoError(t, alice.RequestCreatePrivateLobby())

	assert.Nil(t, observer.Snapshot())
	require.NoError(t, observer.RequestFetchLobbies())

	snap := observer.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, 0, snap[0].ID)
	assert.True(t, snap[0].Private)
	assert.Nil(t, observer.LocalLobby(), "the mirror is diagnostic only")
}

func TestParticipantViewUnsubscribe(t *testing.T) {
	fabric := transport.NewLoopback()
	_, err := NewAuthority(fabric.Authority(), testLogger(), nil)
	require.NoError(t, err)

	alice := newParticipantFixture(t, fabric, "alice")

	calls := 0
	unsubscribe := alice.View().Subscribe(func(*lobby.Lobby) { calls++ })

	require.NoError(t, alice.RequestMatchmake())
	assert.Equal(t, 1, calls)

	unsubscribe()
	require.NoError(t, alice.RequestExitLobby())
	assert.Equal(t, 1, calls)
}

func TestParticipantNameFallback(t *testing.T) {
	fabric := transport.NewLoopback()
	_, err := NewAuthority(fabric.Authority(), testLogger(), nil)
	require.NoError(t, err)

	p := NewParticipant(fabric.Connect(), nil, Config{}, testLogger())
	assert.NotEmpty(t, p.Name())
}
