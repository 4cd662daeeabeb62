// Package model holds the data types shared by the realtime components.
package model

import (
	"net/http"
	"time"
)

// Identity is the authenticated principal attached to a connection.
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// Handshake is the metadata a client presents when opening a connection.
// Token is the out-of-band session token for clients that cannot send cookies.
type Handshake struct {
	Headers http.Header
	Token   string
}

// PresenceStatus is the status carried by user:presence events.
type PresenceStatus string

const (
	PresenceOnline  PresenceStatus = "online"
	PresenceOffline PresenceStatus = "offline"
	PresenceAway    PresenceStatus = "away"
)

// Valid reports whether s is one of the known statuses.
func (s PresenceStatus) Valid() bool {
	switch s {
	case PresenceOnline, PresenceOffline, PresenceAway:
		return true
	}
	return false
}

// PresencePayload is the body of user:presence and user:presence:update.
type PresencePayload struct {
	Status PresenceStatus `json:"status"`
}

// LocationPayload is the body of user:location:update.
type LocationPayload struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Validate checks that both coordinates are present and in range.
func (p *LocationPayload) Validate() error {
	if p.Latitude == nil || p.Longitude == nil {
		return ErrValidation
	}
	if *p.Latitude < -90 || *p.Latitude > 90 || *p.Longitude < -180 || *p.Longitude > 180 {
		return ErrValidation
	}
	return nil
}

// UserPatch is a partial update applied through the user store.
// Nil fields are left untouched.
type UserPatch struct {
	Latitude     *float64
	Longitude    *float64
	LastActiveAt *time.Time
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.Latitude == nil && p.Longitude == nil && p.LastActiveAt == nil
}
