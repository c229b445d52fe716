// internal/protocol/messages.go
package protocol

import (
	"encoding/json"
	"fmt"

	"lobbyd/internal/lobby"
)

// Type tags every envelope on the wire.
type Type string

// Client -> server intents.
const (
	TypeCreatePrivateLobby Type = "create_private_lobby"
	TypeJoinPrivateLobby   Type = "join_private_lobby"
	TypeMatchmake          Type = "matchmake"
	TypeExitLobby          Type = "exit_lobby"
	TypeValidateCode       Type = "validate_code"
	TypeFetchLobbies       Type = "fetch_lobbies"
)

// Server -> client replication and replies.
const (
	TypeWelcome          Type = "welcome"
	TypeLobbyState       Type = "lobby_state"
	TypeExitedLobby      Type = "exited_lobby"
	TypeValidationResult Type = "validation_result"
	TypeLobbiesSnapshot  Type = "lobbies_snapshot"
)

// Envelope is the framing for every message exchanged between authority and
// participants. Data holds the JSON-encoded payload struct for the type, or
// is empty for payload-free messages.
type Envelope struct {
	Type Type            `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals the payload into an envelope of the given type.
// A nil payload produces an envelope with no data.
func NewEnvelope(t Type, payload any) (Envelope, error) {
	env := Envelope{Type: t}
	if payload == nil {
		return env, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	env.Data = data
	return env, nil
}

// MustEnvelope is NewEnvelope for payloads that cannot fail to marshal
// (plain structs of integers and strings). It panics otherwise.
func MustEnvelope(t Type, payload any) Envelope {
	env, err := NewEnvelope(t, payload)
	if err != nil {
		panic(err)
	}
	return env
}

// Payload unmarshals the envelope data into v.
func (e Envelope) Payload(v any) error {
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

// Encode renders the envelope to its wire bytes.
func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Decode parses wire bytes into an envelope.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("decode envelope: missing type")
	}
	return env, nil
}

// CreatePrivateLobby asks the authority to create a private lobby and move
// the sender into it. The sender's connection id, not the payload, determines
// the player identity; the payload only supplies the display name.
type CreatePrivateLobby struct {
	Name string `json:"name"`
}

// JoinPrivateLobby asks to join the lobby with the given code.
type JoinPrivateLobby struct {
	Name string `json:"name"`
	Code int    `json:"code"`
}

// Matchmake asks to join the first open public lobby, or create one.
type Matchmake struct {
	Name string `json:"name"`
}

// ValidateCode asks whether the given lobby code currently refers to a
// joinable lobby.
type ValidateCode struct {
	Code int `json:"code"`
}

// Welcome is the first message a participant receives after the handshake.
type Welcome struct {
	ClientID lobby.ClientID `json:"client_id"`
	Token    string         `json:"token"`
}

// LobbyState replaces the recipient's local lobby view.
type LobbyState struct {
	Lobby lobby.Lobby `json:"lobby"`
}

// ValidationResult answers a ValidateCode request. It is unicast to the
// requester only.
type ValidationResult struct {
	Code   int              `json:"code"`
	Status ValidationStatus `json:"status"`
}

// LobbiesSnapshot carries the full diagnostic mirror of the authoritative
// lobby set.
type LobbiesSnapshot struct {
	Lobbies []lobby.Lobby `json:"lobbies"`
}
