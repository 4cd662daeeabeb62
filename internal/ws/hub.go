package ws

import (
	"sort"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Hub tracks the live clients of this process and their room memberships.
// Rooms exist only while at least one client is joined.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[string]*Client
	// joined maps connID to the rooms it belongs to, for cleanup on unregister.
	joined map[string]map[string]struct{}

	logger *zap.Logger
}

// NewHub creates an empty Hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
		joined:  make(map[string]map[string]struct{}),
		logger:  logger.Named("hub"),
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID()] = client
}

// Unregister removes a client from the hub and every room it joined, then
// closes it.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	id := client.ID()
	for room := range h.joined[id] {
		h.leaveLocked(id, room)
	}
	delete(h.joined, id)
	delete(h.clients, id)
	h.mu.Unlock()

	client.Close()
}

// Join adds the connection to room. Joining twice is a no-op. It reports
// false when the connection is not registered.
func (h *Hub) Join(connID, room string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[connID]
	if !ok {
		return false
	}

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]*Client)
		h.rooms[room] = members
	}
	members[connID] = client

	rooms, ok := h.joined[connID]
	if !ok {
		rooms = make(map[string]struct{})
		h.joined[connID] = rooms
	}
	rooms[room] = struct{}{}
	return true
}

// Leave removes the connection from room; a no-op when it is not a member.
func (h *Hub) Leave(connID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(connID, room)
}

func (h *Hub) leaveLocked(connID, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	if rooms, ok := h.joined[connID]; ok {
		delete(rooms, room)
	}
}

// Members returns the sorted connection IDs joined to room.
func (h *Hub) Members(room string) []string {
	h.mu.RLock()
	ids := make([]string, 0, len(h.rooms[room]))
	for id := range h.rooms[room] {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// Broadcast delivers event to every client in room except excludeConnID and
// returns how many sends were queued.
func (h *Hub) Broadcast(room, excludeConnID string, event string, args ...any) int {
	return h.deliver(event, args, h.roomTargets(room, func(c *Client) bool {
		return c.ID() != excludeConnID
	}))
}

// BroadcastExceptUser delivers event to every client in room whose identity
// is not userID. An empty userID excludes no one.
func (h *Hub) BroadcastExceptUser(room, userID string, event string, args ...any) int {
	return h.deliver(event, args, h.roomTargets(room, func(c *Client) bool {
		return userID == "" || c.UserID() != userID
	}))
}

// BroadcastAll delivers event to every client on this process regardless of
// room membership.
func (h *Hub) BroadcastAll(event string, args ...any) int {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	return h.deliver(event, args, targets)
}

// Emit delivers event to a single connection.
func (h *Hub) Emit(connID string, event string, args ...any) bool {
	h.mu.RLock()
	client, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	return h.deliver(event, args, []*Client{client}) == 1
}

func (h *Hub) roomTargets(room string, keep func(*Client) bool) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	targets := make([]*Client, 0, len(h.rooms[room]))
	for _, c := range h.rooms[room] {
		if keep(c) {
			targets = append(targets, c)
		}
	}
	return targets
}

// deliver encodes once and queues to each target. A closed or slow client
// only loses its own copy.
func (h *Hub) deliver(event string, args []any, targets []*Client) int {
	if len(targets) == 0 {
		return 0
	}

	data, err := Encode(event, args...)
	if err != nil {
		h.logger.Error("failed to encode event", zap.String("event", event), zap.Error(err))
		return 0
	}

	sent := 0
	for _, c := range targets {
		if c.Send(data) {
			sent++
			continue
		}
		h.logger.Debug("dropped delivery", zap.String("event", event), zap.String("connId", c.ID()))
	}
	return sent
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close closes every client with a going-away close frame carrying reason.
func (h *Hub) Close(reason string) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.CloseWithReason(websocket.CloseGoingAway, reason)
	}
}
