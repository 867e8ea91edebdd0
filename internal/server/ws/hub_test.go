package ws

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(snapshot func() *Message) (*Hub, *httptest.Server) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	hub := NewHub(func(r *http.Request) bool { return true }, snapshot, logger)
	return hub, httptest.NewServer(http.HandlerFunc(hub.HandleWS))
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.ClientCount() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestHubSendsSnapshotOnConnect(t *testing.T) {
	hub, srv := newTestHub(func() *Message { return &Message{Type: "analysis", ID: "snap"} })
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()

	var msg Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "analysis", msg.Type)
	assert.Equal(t, "snap", msg.ID)
	waitForClients(t, hub, 1)
}

func TestHubBroadcastAndPing(t *testing.T) {
	hub, srv := newTestHub(nil)
	defer srv.Close()

	a := dial(t, srv)
	defer a.Close()
	b := dial(t, srv)
	defer b.Close()
	waitForClients(t, hub, 2)

	hub.Broadcast(Message{Type: "analysis", ID: "a-1", Payload: map[string]int{"n": 1}})

	for _, conn := range []*websocket.Conn{a, b} {
		var msg Message
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, "a-1", msg.ID)
	}

	require.NoError(t, a.WriteJSON(ClientMsg{Type: "ping"}))
	var pong Message
	require.NoError(t, a.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, a.ReadJSON(&pong))
	assert.Equal(t, "pong", pong.Type)
}

func TestHubDropsDisconnectedClients(t *testing.T) {
	hub, srv := newTestHub(nil)
	defer srv.Close()

	conn := dial(t, srv)
	waitForClients(t, hub, 1)

	require.NoError(t, conn.Close())
	waitForClients(t, hub, 0)
}
