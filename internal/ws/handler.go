package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/event-radar/backend/internal/auth"
	"github.com/event-radar/backend/internal/model"
)

const (
	defaultWriteWait      = 10 * time.Second
	defaultPingInterval   = 25 * time.Second
	defaultPingTimeout    = 30 * time.Second
	defaultMaxMessageSize = 64 * 1024
)

// Authenticator validates a handshake before the connection is upgraded.
type Authenticator interface {
	Validate(ctx context.Context, hs model.Handshake) (*model.Identity, error)
}

// EventHandler receives the lifecycle and inbound frames of every
// connection. OnEvent calls for one connection are sequential.
type EventHandler interface {
	OnConnect(c *Client)
	OnEvent(c *Client, f *Frame)
	OnDisconnect(c *Client)
}

// Options tunes keepalive and buffering. Zero values select defaults.
type Options struct {
	PingInterval    time.Duration
	PingTimeout     time.Duration
	WriteTimeout    time.Duration
	MaxMessageBytes int64
	SendBuffer      int
	CheckOrigin     func(r *http.Request) bool
}

func (o Options) withDefaults() Options {
	if o.PingInterval <= 0 {
		o.PingInterval = defaultPingInterval
	}
	if o.PingTimeout <= 0 {
		o.PingTimeout = defaultPingTimeout
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = defaultWriteWait
	}
	if o.MaxMessageBytes <= 0 {
		o.MaxMessageBytes = defaultMaxMessageSize
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = DefaultSendBuffer
	}
	return o
}

// Handler authenticates, upgrades, and pumps WebSocket connections.
type Handler struct {
	hub      *Hub
	auth     Authenticator
	events   EventHandler
	opts     Options
	upgrader websocket.Upgrader
	logger   *zap.Logger

	// pumps tracks live read loops so shutdown can wait for disconnect handling.
	pumps sync.WaitGroup
}

// NewHandler creates a new WebSocket handler.
func NewHandler(hub *Hub, authenticator Authenticator, events EventHandler, opts Options, logger *zap.Logger) *Handler {
	opts = opts.withDefaults()
	checkOrigin := opts.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &Handler{
		hub:    hub,
		auth:   authenticator,
		events: events,
		opts:   opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		logger: logger.Named("ws"),
	}
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	var body errorBody
	body.Error.Code = code
	body.Error.Message = message
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(&body)
}

// ServeHTTP validates the handshake and, on success, upgrades the request.
// Rejected handshakes never reach the upgrade.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, err := h.auth.Validate(r.Context(), auth.HandshakeFromRequest(r))
	if err != nil {
		if errors.Is(err, model.ErrAuthRejected) {
			writeError(w, http.StatusUnauthorized, model.CodeUnauthorized, "Authentication required")
			return
		}
		writeError(w, http.StatusInternalServerError, model.CodeInternalAuthError, "Authentication failed")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(conn, identity, h.opts.SendBuffer)
	h.hub.Register(client)
	h.logger.Info("client connected",
		zap.String("connId", client.ID()),
		zap.String("userId", client.UserID()))

	h.events.OnConnect(client)

	h.pumps.Add(1)
	go h.writePump(client)
	go h.readPump(client)
}

// Wait blocks until every connection's disconnect handling has run or ctx
// is done.
func (h *Handler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.pumps.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// readPump pumps frames from the connection to the event handler.
func (h *Handler) readPump(client *Client) {
	defer h.pumps.Done()
	defer func() {
		h.hub.Unregister(client)
		h.events.OnDisconnect(client)
		client.conn.Close()
		h.logger.Info("client disconnected", zap.String("connId", client.ID()))
	}()

	pongWait := h.opts.PingInterval + h.opts.PingTimeout
	client.conn.SetReadLimit(h.opts.MaxMessageBytes)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket error", zap.String("connId", client.ID()), zap.Error(err))
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(message, &frame); err != nil || frame.Event == "" {
			h.logger.Debug("dropping malformed frame", zap.String("connId", client.ID()))
			continue
		}

		h.events.OnEvent(client, &frame)
	}
}

// writePump pumps queued messages to the connection and keeps it alive
// with pings.
func (h *Handler) writePump(client *Client) {
	ticker := time.NewTicker(h.opts.PingInterval)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.SendChan():
			client.conn.SetWriteDeadline(time.Now().Add(h.opts.WriteTimeout))
			if !ok {
				// Client closed; say why before hanging up.
				client.conn.WriteMessage(websocket.CloseMessage, client.closeMessage())
				return
			}

			// One frame per message so the client can parse each independently.
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(h.opts.WriteTimeout))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
