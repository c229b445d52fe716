// internal/transport/hub_test.go
package transport

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lobbyd/internal/auth"
	"lobbyd/internal/lobby"
	"lobbyd/internal/protocol"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newHubServer(t *testing.T) (*Hub, string) {
	keys, err := auth.NewKeys(0)
	require.NoError(t, err)
	hub := NewHub(testLogger(), keys)

	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestHubHandshake(t *testing.T) {
	_, url := newHubServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a, err := Dial(ctx, url, "", testLogger())
	require.NoError(t, err)
	defer a.Close()

	b, err := Dial(ctx, url, "", testLogger())
	require.NoError(t, err)
	defer b.Close()

	assert.NotEqual(t, lobby.AuthorityID, a.LocalID())
	assert.NotEqual(t, a.LocalID(), b.LocalID())
	assert.NotEmpty(t, a.Token())
	assert.False(t, a.IsAuthority())
}

func TestHubRejectsBadToken(t *testing.T) {
	_, url := newHubServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := Dial(ctx, url, "not-a-jwt", testLogger())
	assert.Error(t, err)
}

func TestHubAcceptsIssuedToken(t *testing.T) {
	_, url := newHubServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	first, err := Dial(ctx, url, "", testLogger())
	require.NoError(t, err)
	token := first.Token()
	require.NoError(t, first.Close())

	// The token is accepted but grants a fresh connection id: no resume.
	second, err := Dial(ctx, url, token, testLogger())
	require.NoError(t, err)
	defer second.Close()
	assert.NotEqual(t, first.LocalID(), second.LocalID())
}

func TestHubRoundTrip(t *testing.T) {
	hub, url := newHubServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var mu sync.Mutex
	var inbound []lobby.ClientID
	hub.OnMessage(func(from lobby.ClientID, env protocol.Envelope) {
		mu.Lock()
		defer mu.Unlock()
		if env.Type == protocol.TypeMatchmake {
			inbound = append(inbound, from)
		}
	})

	client, err := Dial(ctx, url, "", testLogger())
	require.NoError(t, err)
	defer client.Close()

	received := make(chan protocol.Envelope, 1)
	client.OnMessage(func(_ lobby.ClientID, env protocol.Envelope) {
		received <- env
	})
	go client.Run(ctx)

	require.NoError(t, client.Send(protocol.Envelope{Type: protocol.TypeMatchmake}))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(inbound) == 1 && inbound[0] == client.LocalID()
	}, 3*time.Second, 10*time.Millisecond)

	hub.SendTo(client.LocalID(), protocol.Envelope{Type: protocol.TypeExitedLobby})
	select {
	case env := <-received:
		assert.Equal(t, protocol.TypeExitedLobby, env.Type)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for unicast")
	}
}

func TestHubDisconnectNotification(t *testing.T) {
	hub, url := newHubServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	gone := make(chan lobby.ClientID, 1)
	hub.OnDisconnect(func(id lobby.ClientID) {
		gone <- id
	})

	client, err := Dial(ctx, url, "", testLogger())
	require.NoError(t, err)
	go client.Run(ctx)

	id := client.LocalID()
	require.NoError(t, client.Close())

	select {
	case got := <-gone:
		assert.Equal(t, id, got)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for disconnect notification")
	}
}

func TestHubBindOnce(t *testing.T) {
	keys, err := auth.NewKeys(0)
	require.NoError(t, err)
	hub := NewHub(testLogger(), keys)

	require.NoError(t, hub.Bind())
	assert.Error(t, hub.Bind())
}
