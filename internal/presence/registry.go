// Package presence tracks which users hold live connections on this process.
package presence

import (
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/event-radar/backend/internal/model"
)

const shardCount = 32

type shard struct {
	mu    sync.Mutex
	users map[string]map[string]struct{}
}

// Registry maps user IDs to their set of connection IDs. Mutations for one
// user are serialized by that user's shard lock; different users proceed
// independently.
type Registry struct {
	shards [shardCount]*shard

	// owners maps connID to the userID it is registered under.
	owners sync.Map
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i] = &shard{users: make(map[string]map[string]struct{})}
	}
	return r
}

func (r *Registry) shardFor(userID string) *shard {
	return r.shards[xxhash.Sum64String(userID)%shardCount]
}

// Register adds connID to userID's connection set. Registering the same pair
// again is a no-op. A connID already held by another user is refused.
func (r *Registry) Register(userID, connID string) error {
	if owner, loaded := r.owners.LoadOrStore(connID, userID); loaded && owner.(string) != userID {
		return model.ErrConnectionOwned
	}

	s := r.shardFor(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	conns, ok := s.users[userID]
	if !ok {
		conns = make(map[string]struct{})
		s.users[userID] = conns
	}
	conns[connID] = struct{}{}
	return nil
}

// Unregister removes connID from userID's set and reports whether the user
// has no connections left. Unknown pairs leave the registry untouched.
func (r *Registry) Unregister(connID, userID string) bool {
	s := r.shardFor(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	conns, ok := s.users[userID]
	if !ok {
		return true
	}
	if _, ok := conns[connID]; ok {
		delete(conns, connID)
		r.owners.CompareAndDelete(connID, userID)
	}
	if len(conns) == 0 {
		delete(s.users, userID)
		return true
	}
	return false
}

// IsOnline reports whether userID has at least one live connection.
func (r *Registry) IsOnline(userID string) bool {
	s := r.shardFor(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users[userID]) > 0
}

// ConnectionsFor returns a sorted snapshot of userID's connection IDs.
func (r *Registry) ConnectionsFor(userID string) []string {
	s := r.shardFor(userID)
	s.mu.Lock()
	conns := make([]string, 0, len(s.users[userID]))
	for id := range s.users[userID] {
		conns = append(conns, id)
	}
	s.mu.Unlock()

	sort.Strings(conns)
	return conns
}

// OnlineUsers returns a sorted snapshot of every user with a live connection.
func (r *Registry) OnlineUsers() []string {
	var users []string
	for _, s := range r.shards {
		s.mu.Lock()
		for id := range s.users {
			users = append(users, id)
		}
		s.mu.Unlock()
	}
	sort.Strings(users)
	return users
}

// Len returns the number of online users.
func (r *Registry) Len() int {
	n := 0
	for _, s := range r.shards {
		s.mu.Lock()
		n += len(s.users)
		s.mu.Unlock()
	}
	return n
}
