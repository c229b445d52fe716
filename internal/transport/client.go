// internal/transport/client.go
package transport

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"lobbyd/internal/lobby"
	"lobbyd/internal/protocol"
)

// Client is the participant-side transport: a single WebSocket connection to
// the hub. Dial performs the handshake synchronously; register handlers, then
// call Run to start consuming inbound envelopes.
type Client struct {
	logger *logrus.Logger
	conn   *websocket.Conn

	localID lobby.ClientID
	token   string

	mu           sync.Mutex
	onMessage    MessageHandler
	onDisconnect DisconnectHandler
	closed       bool
}

// Dial connects to the hub at rawURL (ws:// or wss://). A previously issued
// session token may be passed to tag the connection in server logs; it does
// not resume any prior session.
func Dial(ctx context.Context, rawURL, token string, logger *logrus.Logger) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse hub url: %w", err)
	}
	if token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}

	conn, _, err := websocket.Dial(ctx, u.String(), &websocket.DialOptions{
		Subprotocols: []string{Subprotocol},
	})
	if err != nil {
		return nil, fmt.Errorf("dial hub: %w", err)
	}

	// The welcome frame carries our assigned connection id.
	hctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	typ, data, err := conn.Read(hctx)
	if err != nil {
		conn.Close(websocket.StatusProtocolError, "no welcome")
		return nil, fmt.Errorf("read welcome: %w", err)
	}
	if typ != websocket.MessageText {
		conn.Close(websocket.StatusProtocolError, "bad welcome")
		return nil, fmt.Errorf("read welcome: unexpected frame type")
	}
	env, err := protocol.Decode(data)
	if err != nil || env.Type != protocol.TypeWelcome {
		conn.Close(websocket.StatusProtocolError, "bad welcome")
		return nil, fmt.Errorf("expected welcome, got %q", env.Type)
	}
	var welcome protocol.Welcome
	if err := env.Payload(&welcome); err != nil {
		conn.Close(websocket.StatusProtocolError, "bad welcome")
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"client_id": welcome.ClientID,
		"hub":       u.Host,
	}).Info("connected to hub")

	return &Client{
		logger:  logger,
		conn:    conn,
		localID: welcome.ClientID,
		token:   welcome.Token,
	}, nil
}

func (c *Client) LocalID() lobby.ClientID { return c.localID }
func (c *Client) IsAuthority() bool       { return false }

// Token returns the session token issued during the handshake.
func (c *Client) Token() string { return c.token }

func (c *Client) OnMessage(fn MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onMessage = fn
}

func (c *Client) OnDisconnect(fn DisconnectHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onDisconnect = fn
}

// Send delivers one envelope to the authority.
func (c *Client) Send(env protocol.Envelope) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return writeEnvelope(ctx, c.conn, env)
}

// Run reads inbound envelopes until the connection closes, then raises the
// disconnect handler. It blocks; callers usually run it in a goroutine.
func (c *Client) Run(ctx context.Context) {
	defer c.notifyDisconnect()

	for {
		typ, data, err := c.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && ctx.Err() == nil {
				c.logger.Warnf("hub connection lost: %v", err)
			}
			return
		}
		if typ != websocket.MessageText {
			continue
		}
		env, err := protocol.Decode(data)
		if err != nil {
			c.logger.Warnf("bad envelope from hub: %v", err)
			continue
		}

		c.mu.Lock()
		fn := c.onMessage
		c.mu.Unlock()
		if fn != nil {
			// All server->client envelopes originate from the authority.
			fn(lobby.AuthorityID, env)
		}
	}
}

func (c *Client) notifyDisconnect() {
	c.mu.Lock()
	fn := c.onDisconnect
	already := c.closed
	c.closed = true
	c.mu.Unlock()
	if !already && fn != nil {
		fn(c.localID)
	}
}

// Close tears the connection down with a normal closure.
func (c *Client) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "bye")
}
