// internal/transport/codes.go
package transport

import "github.com/coder/websocket"

// Custom WebSocket close codes used by the hub. These give clients a more
// specific reason for closure than the standard codes.
const (
	BadSubprotocolError  websocket.StatusCode = 3000 // client did not speak the lobby subprotocol
	InvalidAuthTokenErr  websocket.StatusCode = 3001 // presented session token failed verification
	HandshakeFailedError websocket.StatusCode = 3002 // welcome message could not be delivered
)
