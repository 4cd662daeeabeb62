package dispatch

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/event-radar/backend/internal/model"
	"github.com/event-radar/backend/internal/ws"
)

const chatRoomPrefix = "chat:"

func chatRoom(roomID string) string {
	return chatRoomPrefix + roomID
}

func (d *Dispatcher) handleChatJoin(c *ws.Client, f *ws.Frame) {
	var payload model.ChatRoomPayload
	if c.UserID() == "" || decode(f, &payload) != nil || payload.RoomID == "" {
		c.Ack(f, false)
		return
	}

	d.hub.Join(c.ID(), chatRoom(payload.RoomID))
	c.Emit(ws.EventChatJoined, payload.RoomID)
	c.Ack(f, true)
}

func (d *Dispatcher) handleChatLeave(c *ws.Client, f *ws.Frame) {
	var payload model.ChatRoomPayload
	if decode(f, &payload) != nil || payload.RoomID == "" {
		return
	}

	d.hub.Leave(c.ID(), chatRoom(payload.RoomID))
	c.Emit(ws.EventChatLeft, payload.RoomID)
}

// handleChatMessage relays a trimmed message to everyone in the room,
// sender included.
func (d *Dispatcher) handleChatMessage(c *ws.Client, f *ws.Frame) {
	if c.UserID() == "" {
		c.Ack(f, false)
		return
	}

	var payload model.ChatMessagePayload
	if err := decode(f, &payload); err != nil || payload.RoomID == "" {
		d.reject(c, f, model.CodeChatValidation, "Invalid chat message")
		return
	}

	text := strings.TrimSpace(payload.Message)
	if n := utf8.RuneCountInString(text); n == 0 || n > model.MaxChatMessageLength {
		d.reject(c, f, model.CodeChatValidation, "Invalid message length")
		return
	}

	msg := model.ChatMessage{
		RoomID:      payload.RoomID,
		Message:     text,
		ClientMsgID: payload.ClientMsgID,
		ServerMsgID: uuid.NewString(),
	}
	d.logger.Debug("chat message broadcast", zap.String("room", chatRoom(payload.RoomID)), zap.String("userId", c.UserID()))
	d.hub.Broadcast(chatRoom(payload.RoomID), "", ws.EventChatMessageNew, msg)
	c.Ack(f, true)
}
