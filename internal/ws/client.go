package ws

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/event-radar/backend/internal/model"
)

// DefaultSendBuffer is the number of outbound messages queued per client
// before the client is considered too slow and dropped.
const DefaultSendBuffer = 256

// Client represents one live WebSocket connection.
type Client struct {
	id       string
	conn     *websocket.Conn
	identity *model.Identity
	send     chan []byte

	mu          sync.Mutex
	closed      bool
	closeCode   int
	closeReason string
}

// NewClient creates a client with a fresh connection ID. identity may be nil
// for an unauthenticated connection.
func NewClient(conn *websocket.Conn, identity *model.Identity, sendBuffer int) *Client {
	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBuffer
	}
	return &Client{
		id:        uuid.NewString(),
		conn:      conn,
		identity:  identity,
		send:      make(chan []byte, sendBuffer),
		closeCode: websocket.CloseNormalClosure,
	}
}

// ID returns the connection ID.
func (c *Client) ID() string {
	return c.id
}

// Identity returns the authenticated identity, or nil.
func (c *Client) Identity() *model.Identity {
	return c.identity
}

// UserID returns the identity's user ID, or "" when unauthenticated.
func (c *Client) UserID() string {
	if c.identity == nil {
		return ""
	}
	return c.identity.ID
}

// Send queues data for the client without blocking. It reports false when
// the client is closed or its buffer is full; a full buffer closes the client.
func (c *Client) Send(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- data:
		return true
	default:
		c.closeLocked(websocket.ClosePolicyViolation, "send buffer full")
		return false
	}
}

// Emit encodes and queues an event for this client only.
func (c *Client) Emit(event string, args ...any) bool {
	data, err := Encode(event, args...)
	if err != nil {
		return false
	}
	return c.Send(data)
}

// Ack answers the frame's acknowledgement request, if any.
func (c *Client) Ack(f *Frame, ok bool) {
	if f == nil || !f.WantsAck() {
		return
	}
	data, err := encodeAck(*f.AckID, ok)
	if err != nil {
		return
	}
	c.Send(data)
}

// Close closes the client with a normal closure.
func (c *Client) Close() {
	c.CloseWithReason(websocket.CloseNormalClosure, "")
}

// CloseWithReason closes the client; the write pump sends code and reason in
// the close frame.
func (c *Client) CloseWithReason(code int, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked(code, reason)
}

func (c *Client) closeLocked(code int, reason string) {
	if c.closed {
		return
	}
	c.closed = true
	c.closeCode = code
	c.closeReason = reason
	close(c.send)
}

// IsClosed returns true if the client is closed.
func (c *Client) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Client) closeMessage() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return websocket.FormatCloseMessage(c.closeCode, c.closeReason)
}

// SendChan returns the send channel for the client.
func (c *Client) SendChan() <-chan []byte {
	return c.send
}
