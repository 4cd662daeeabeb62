package ws

import "encoding/json"

// Inbound event names (client -> server).
const (
	EventPresence              = "user:presence"
	EventLocationUpdate        = "user:location:update"
	EventNotificationSubscribe = "notification:subscribe"
	EventNotificationAck       = "notification:ack"
	EventCreated               = "event:new"
	EventChatJoin              = "chat:join"
	EventChatLeave             = "chat:leave"
	EventChatMessage           = "chat:message"
)

// Outbound event names (server -> client).
const (
	EventWelcome         = "system:welcome"
	EventError           = "system:error"
	EventPresenceUpdate  = "user:presence:update"
	EventNotificationNew = "notification:new"
	EventChatJoined      = "chat:joined"
	EventChatLeft        = "chat:left"
	EventChatMessageNew  = "chat:message:new"
	EventAck             = "ack"
)

// Frame is an inbound message. AckID is set when the client expects an
// acknowledgement.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
	AckID *int64          `json:"ackId,omitempty"`
}

// WantsAck reports whether the client asked for an acknowledgement.
func (f *Frame) WantsAck() bool {
	return f.AckID != nil
}

// Message is an outbound message.
type Message struct {
	Event string `json:"event"`
	Args  []any  `json:"args"`
	AckID *int64 `json:"ackId,omitempty"`
}

// Encode serializes an outbound event with its positional arguments.
func Encode(event string, args ...any) ([]byte, error) {
	if args == nil {
		args = []any{}
	}
	return json.Marshal(&Message{Event: event, Args: args})
}

func encodeAck(id int64, ok bool) ([]byte, error) {
	return json.Marshal(&Message{Event: EventAck, Args: []any{ok}, AckID: &id})
}
