// internal/transport/hub.go
package transport

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"lobbyd/internal/auth"
	"lobbyd/internal/lobby"
	"lobbyd/internal/protocol"
)

const (
	// Subprotocol is the WebSocket subprotocol both ends must agree on.
	Subprotocol = "lobby"

	writeTimeout = 3 * time.Second

	// outBuffer is the per-connection outbound queue depth. A participant
	// that cannot drain this many envelopes is dropped.
	outBuffer = 16
)

// ErrAlreadyBound is returned when a second authority tries to bind the hub.
var ErrAlreadyBound = errors.New("transport: hub already bound to an authority")

// Hub is the server-side transport: it upgrades HTTP requests to WebSocket
// connections, performs the session-token handshake, assigns connection ids
// and fans envelopes in and out. It implements AuthoritySession for exactly
// one bound authority.
type Hub struct {
	logger *logrus.Logger
	keys   *auth.Keys

	mu     sync.Mutex
	bound  bool
	nextID lobby.ClientID
	conns  map[lobby.ClientID]*hubConn

	onMessage    MessageHandler
	onDisconnect DisconnectHandler
}

type hubConn struct {
	id      lobby.ClientID
	subject string
	out     chan protocol.Envelope
	cancel  context.CancelFunc
}

// NewHub creates a hub that signs handshakes with the given keys.
func NewHub(logger *logrus.Logger, keys *auth.Keys) *Hub {
	return &Hub{
		logger: logger,
		keys:   keys,
		nextID: lobby.AuthorityID + 1,
		conns:  make(map[lobby.ClientID]*hubConn),
	}
}

func (h *Hub) LocalID() lobby.ClientID { return lobby.AuthorityID }
func (h *Hub) IsAuthority() bool       { return true }

// Bind reserves the hub for a single authority. A second bind in the same
// process is a fatal configuration error for the caller to surface.
func (h *Hub) Bind() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.bound {
		return ErrAlreadyBound
	}
	h.bound = true
	return nil
}

func (h *Hub) OnMessage(fn MessageHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onMessage = fn
}

func (h *Hub) OnDisconnect(fn DisconnectHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onDisconnect = fn
}

// SendToAll delivers the envelope to every connected participant.
func (h *Hub) SendToAll(env protocol.Envelope) {
	h.mu.Lock()
	conns := make([]*hubConn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()
	for _, c := range conns {
		h.push(c, env)
	}
}

// SendTo delivers the envelope to one participant. Unknown ids are dropped.
func (h *Hub) SendTo(id lobby.ClientID, env protocol.Envelope) {
	h.mu.Lock()
	c := h.conns[id]
	h.mu.Unlock()
	if c != nil {
		h.push(c, env)
	}
}

// SendToSet delivers the envelope to each listed participant.
func (h *Hub) SendToSet(ids []lobby.ClientID, env protocol.Envelope) {
	for _, id := range ids {
		h.SendTo(id, env)
	}
}

// push enqueues without blocking; a participant with a full queue is cut
// loose rather than stalling the authority.
func (h *Hub) push(c *hubConn, env protocol.Envelope) {
	select {
	case c.out <- env:
	default:
		h.logger.WithFields(logrus.Fields{
			"client_id": c.id,
			"type":      env.Type,
		}).Warn("outbound queue full, dropping connection")
		c.cancel()
	}
}

// ServeHTTP upgrades the request and runs the connection until it closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	remoteAddr := r.RemoteAddr

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{Subprotocol},
		OriginPatterns: []string{"*"}, // adjust in production
	})
	if err != nil {
		h.logger.Warnf("websocket accept error: %v", err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "handler finished")

	if c.Subprotocol() != Subprotocol {
		c.Close(BadSubprotocolError, "client must speak the lobby subprotocol")
		return
	}

	// A presented token must verify, but grants no session resume: every
	// connection gets a fresh id. The subject only ties log lines together.
	subject := ""
	if presented := r.URL.Query().Get("token"); presented != "" {
		subject, err = h.keys.Verify(presented)
		if err != nil {
			h.logger.Warnf("rejecting connection from %s: %v", remoteAddr, err)
			c.Close(InvalidAuthTokenErr, "invalid session token")
			return
		}
	}

	token, err := h.keys.NewSessionToken()
	if err != nil {
		h.logger.Errorf("failed to mint session token: %v", err)
		c.Close(HandshakeFailedError, "handshake failed")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	conn := &hubConn{
		subject: subject,
		out:     make(chan protocol.Envelope, outBuffer),
		cancel:  cancel,
	}

	h.mu.Lock()
	conn.id = h.nextID
	h.nextID++
	h.conns[conn.id] = conn
	h.mu.Unlock()

	welcome := protocol.MustEnvelope(protocol.TypeWelcome, protocol.Welcome{
		ClientID: conn.id,
		Token:    token,
	})
	if err := writeEnvelope(ctx, c, welcome); err != nil {
		h.logger.Warnf("failed to send welcome to %s: %v", remoteAddr, err)
		h.drop(conn, false)
		c.Close(HandshakeFailedError, "handshake failed")
		return
	}

	fields := logrus.Fields{
		"client_id": conn.id,
		"remote":    remoteAddr,
	}
	if conn.subject != "" {
		fields["subject"] = conn.subject
	}
	h.logger.WithFields(fields).Info("participant connected")

	go h.writePump(ctx, c, conn)
	h.readPump(ctx, c, conn)

	h.drop(conn, true)
	h.logger.WithFields(logrus.Fields{
		"client_id": conn.id,
		"remote":    remoteAddr,
	}).Info("participant disconnected")
}

func (h *Hub) readPump(ctx context.Context, c *websocket.Conn, conn *hubConn) {
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && ctx.Err() == nil {
				h.logger.Warnf("read error for client %d: %v", conn.id, err)
			}
			return
		}
		if typ != websocket.MessageText {
			h.logger.Warnf("ignoring non-text frame from client %d", conn.id)
			continue
		}
		env, err := protocol.Decode(data)
		if err != nil {
			h.logger.Warnf("bad envelope from client %d: %v", conn.id, err)
			continue
		}

		h.mu.Lock()
		fn := h.onMessage
		h.mu.Unlock()
		if fn != nil {
			fn(conn.id, env)
		}
	}
}

func (h *Hub) writePump(ctx context.Context, c *websocket.Conn, conn *hubConn) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-conn.out:
			if err := writeEnvelope(ctx, c, env); err != nil {
				conn.cancel()
				return
			}
		}
	}
}

// drop removes the connection from the routing table and, when notify is
// set, raises the disconnect callback exactly once.
func (h *Hub) drop(conn *hubConn, notify bool) {
	conn.cancel()

	h.mu.Lock()
	_, present := h.conns[conn.id]
	delete(h.conns, conn.id)
	fn := h.onDisconnect
	h.mu.Unlock()

	if notify && present && fn != nil {
		fn(conn.id)
	}
}

func writeEnvelope(ctx context.Context, c *websocket.Conn, env protocol.Envelope) error {
	data, err := env.Encode()
	if err != nil {
		return err
	}
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.Write(wctx, websocket.MessageText, data)
}
