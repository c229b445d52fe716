// internal/protocol/messages_test.go
package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lobbyd/internal/lobby"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	env, err := NewEnvelope(TypeJoinPrivateLobby, JoinPrivateLobby{Name: "alice", Code: 3})
	require.NoError(t, err)

	data, err := env.Encode()
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, TypeJoinPrivateLobby, decoded.Type)

	var req JoinPrivateLobby
	require.NoError(t, decoded.Payload(&req))
	assert.Equal(t, "alice", req.Name)
	assert.Equal(t, 3, req.Code)
}

func TestDecodeRejectsMissingType(t *testing.T) {
	_, err := Decode([]byte(`{"data":{}}`))
	assert.Error(t, err)

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestPayloadFreeEnvelope(t *testing.T) {
	env, err := NewEnvelope(TypeExitLobby, nil)
	require.NoError(t, err)
	assert.Nil(t, env.Data)

	data, err := env.Encode()
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, TypeExitLobby, decoded.Type)
}

func TestLobbyStateCarriesMembers(t *testing.T) {
	l := lobby.NewLobby(2, true)
	require.True(t, l.AddPlayer(lobby.NewPlayerInfo(7, "alice")))

	env := MustEnvelope(TypeLobbyState, LobbyState{Lobby: *l})
	data, err := env.Encode()
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	var state LobbyState
	require.NoError(t, decoded.Payload(&state))
	assert.Equal(t, 2, state.Lobby.ID)
	assert.True(t, state.Lobby.Private)
	assert.Equal(t, l.Seed, state.Lobby.Seed)
	require.Equal(t, 1, state.Lobby.Count())
	assert.Equal(t, lobby.ClientID(7), state.Lobby.Players[0].ID)
}
