package model

import (
	"encoding/json"
	"time"
)

// NotificationTypeEventCreated is the type of notifications produced by event:new.
const NotificationTypeEventCreated = "event-created"

// NotificationMessage is the payload of notification:new and the bus wire format.
// Data is kept as raw JSON so a message relayed through the bus is byte-for-byte
// what the publisher produced, including fields this process does not know about.
type NotificationMessage struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Body      string          `json:"body,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// CreatorID returns data.creatorId, or "" when absent or unreadable.
func (n *NotificationMessage) CreatorID() string {
	if len(n.Data) == 0 {
		return ""
	}
	var d struct {
		CreatorID string `json:"creatorId"`
	}
	if err := json.Unmarshal(n.Data, &d); err != nil {
		return ""
	}
	return d.CreatorID
}

// EventCreatedPayload is the body of event:new.
type EventCreatedPayload struct {
	ID           json.RawMessage `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	StartTimeISO string          `json:"startTimeIso,omitempty"`
	EndTimeISO   string          `json:"endTimeIso,omitempty"`
	Latitude     *float64        `json:"latitude,omitempty"`
	Longitude    *float64        `json:"longitude,omitempty"`
}

// Validate checks the fields needed to build a notification.
func (p *EventCreatedPayload) Validate() error {
	if p.Title == "" {
		return ErrValidation
	}
	return nil
}

// EventCreatedData is the data section of an event-created notification.
type EventCreatedData struct {
	Event     EventCreatedPayload `json:"event"`
	CreatorID string              `json:"creatorId"`
}

// SubscribePayload is the body of notification:subscribe.
// Channels stays raw so a non-list value can be told apart and ignored.
type SubscribePayload struct {
	Channels json.RawMessage `json:"channels"`
}

// ChannelList decodes Channels, reporting false when it is not a list of strings.
func (p *SubscribePayload) ChannelList() ([]string, bool) {
	var channels []string
	if len(p.Channels) == 0 || json.Unmarshal(p.Channels, &channels) != nil {
		return nil, false
	}
	return channels, true
}
