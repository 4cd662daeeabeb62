package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/event-radar/backend/internal/model"
)

type stubAuth struct {
	err error
}

func (s stubAuth) Validate(_ context.Context, hs model.Handshake) (*model.Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	if hs.Token == "" {
		return nil, model.ErrAuthRejected
	}
	return &model.Identity{ID: hs.Token}, nil
}

// echoEvents welcomes each client, acks every frame with true, and records
// disconnects.
type echoEvents struct {
	hub          *Hub
	mu           sync.Mutex
	disconnected []string
}

func (e *echoEvents) OnConnect(c *Client) {
	c.Emit(EventWelcome, "hi "+c.UserID())
}

func (e *echoEvents) OnEvent(c *Client, f *Frame) {
	c.Ack(f, true)
}

func (e *echoEvents) OnDisconnect(c *Client) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.disconnected = append(e.disconnected, c.UserID())
}

func (e *echoEvents) disconnects() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.disconnected...)
}

func newTestServer(t *testing.T, a Authenticator) (*httptest.Server, *Hub, *echoEvents, *Handler) {
	t.Helper()
	hub := NewHub(zap.NewNop())
	events := &echoEvents{hub: hub}
	h := NewHandler(hub, a, events, Options{PingInterval: time.Second, PingTimeout: time.Second}, zap.NewNop())
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv, hub, events, h
}

func wsURL(srv *httptest.Server, query string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHandler_RejectsBeforeUpgrade(t *testing.T) {
	tests := []struct {
		name     string
		auth     stubAuth
		query    string
		status   int
		wantCode string
	}{
		{name: "no session", query: "", status: http.StatusUnauthorized, wantCode: "unauthorized"},
		{name: "store failure", auth: stubAuth{err: errors.New("boom")}, query: "?sessionToken=x",
			status: http.StatusInternalServerError, wantCode: "internal_auth_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, hub, _, _ := newTestServer(t, tt.auth)

			_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, tt.query), nil)
			require.Error(t, err)
			require.NotNil(t, resp)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)

			var body errorBody
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.Equal(t, 0, hub.ClientCount())
		})
	}
}

func TestHandler_ConnectEventDisconnect(t *testing.T) {
	srv, hub, events, h := newTestServer(t, stubAuth{})

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "?sessionToken=u1"), nil)
	require.NoError(t, err)

	welcome := readMessage(t, conn)
	assert.Equal(t, EventWelcome, welcome.Event)
	assert.Equal(t, []any{"hi u1"}, welcome.Args)
	assert.Equal(t, 1, hub.ClientCount())

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"chat:join","data":{"roomId":"r1"},"ackId":3}`)))
	ack := readMessage(t, conn)
	assert.Equal(t, EventAck, ack.Event)
	require.NotNil(t, ack.AckID)
	assert.Equal(t, int64(3), *ack.AckID)
	assert.Equal(t, []any{true}, ack.Args)

	// Malformed frames are dropped without closing the connection.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"x","ackId":4}`)))
	ack = readMessage(t, conn)
	assert.Equal(t, int64(4), *ack.AckID)

	conn.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.Wait(ctx))
	assert.Equal(t, []string{"u1"}, events.disconnects())
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHandler_ShutdownCloseFrame(t *testing.T) {
	srv, hub, events, h := newTestServer(t, stubAuth{})

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "?sessionToken=u1"), nil)
	require.NoError(t, err)
	defer conn.Close()
	readMessage(t, conn)

	hub.Close("server shutdown")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.CloseGoingAway, closeErr.Code)
	assert.Equal(t, "server shutdown", closeErr.Text)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.Wait(ctx))
	assert.Equal(t, []string{"u1"}, events.disconnects())
}
