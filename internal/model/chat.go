package model

// MaxChatMessageLength is the longest chat message accepted, in characters, after trimming.
const MaxChatMessageLength = 2000

// ChatRoomPayload is the body of chat:join and chat:leave.
type ChatRoomPayload struct {
	RoomID string `json:"roomId"`
}

// ChatMessagePayload is the body of chat:message.
type ChatMessagePayload struct {
	RoomID      string `json:"roomId"`
	Message     string `json:"message"`
	ClientMsgID string `json:"clientMsgId,omitempty"`
}

// ChatMessage is an ephemeral chat message as delivered by chat:message:new.
type ChatMessage struct {
	RoomID      string `json:"roomId"`
	Message     string `json:"message"`
	ClientMsgID string `json:"clientMsgId,omitempty"`
	ServerMsgID string `json:"serverMsgId"`
}
