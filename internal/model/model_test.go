package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(f float64) *float64 { return &f }

func TestLocationPayloadValidate(t *testing.T) {
	tests := []struct {
		name    string
		payload LocationPayload
		wantErr bool
	}{
		{"valid", LocationPayload{Latitude: ptr(52.52), Longitude: ptr(13.405)}, false},
		{"bounds inclusive", LocationPayload{Latitude: ptr(-90), Longitude: ptr(180)}, false},
		{"missing latitude", LocationPayload{Longitude: ptr(1)}, true},
		{"missing longitude", LocationPayload{Latitude: ptr(1)}, true},
		{"latitude out of range", LocationPayload{Latitude: ptr(90.1), Longitude: ptr(0)}, true},
		{"longitude out of range", LocationPayload{Latitude: ptr(0), Longitude: ptr(-180.5)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPresenceStatusValid(t *testing.T) {
	for _, s := range []PresenceStatus{PresenceOnline, PresenceOffline, PresenceAway} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, PresenceStatus("busy").Valid())
	assert.False(t, PresenceStatus("").Valid())
}

func TestNotificationCreatorID(t *testing.T) {
	n := &NotificationMessage{Data: json.RawMessage(`{"creatorId":"u1","event":{"id":7}}`)}
	assert.Equal(t, "u1", n.CreatorID())

	assert.Empty(t, (&NotificationMessage{}).CreatorID())
	assert.Empty(t, (&NotificationMessage{Data: json.RawMessage(`[1,2]`)}).CreatorID())
	assert.Empty(t, (&NotificationMessage{Data: json.RawMessage(`{"creatorId":5}`)}).CreatorID())
}

func TestSubscribeChannelList(t *testing.T) {
	var p SubscribePayload
	assert.NoError(t, json.Unmarshal([]byte(`{"channels":["a","b"]}`), &p))
	channels, ok := p.ChannelList()
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, channels)

	for _, body := range []string{`{}`, `{"channels":"a"}`, `{"channels":[1]}`, `{"channels":{"a":1}}`} {
		var p SubscribePayload
		assert.NoError(t, json.Unmarshal([]byte(body), &p))
		_, ok := p.ChannelList()
		assert.False(t, ok, body)
	}
}

func TestUserPatchEmpty(t *testing.T) {
	assert.True(t, UserPatch{}.Empty())
	assert.False(t, UserPatch{Latitude: ptr(1)}.Empty())
}
