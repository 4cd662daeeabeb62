package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/event-radar/backend/internal/model"
)

// fakeStore accepts a single cookie value and records every lookup.
type fakeStore struct {
	token string
	err   error
	calls []http.Header
}

func (f *fakeStore) ValidateSession(_ context.Context, headers http.Header) (*model.Identity, error) {
	f.calls = append(f.calls, headers)
	if f.err != nil {
		return nil, f.err
	}
	req := http.Request{Header: headers}
	c, err := req.Cookie("session_token")
	if err != nil || c.Value != f.token {
		return nil, nil
	}
	return &model.Identity{ID: "u1", Email: "u1@example.com"}, nil
}

func cookieHeaders(value string) http.Header {
	h := http.Header{}
	h.Set("Cookie", "session_token="+value)
	return h
}

func TestValidator_Validate(t *testing.T) {
	ctx := context.Background()

	t.Run("cookie accepted on first attempt", func(t *testing.T) {
		store := &fakeStore{token: "good"}
		v := NewValidator(store, "session_token", zap.NewNop())

		id, err := v.Validate(ctx, model.Handshake{Headers: cookieHeaders("good"), Token: "ignored"})
		require.NoError(t, err)
		assert.Equal(t, "u1", id.ID)
		assert.Len(t, store.calls, 1)
	})

	t.Run("token retried as cookie", func(t *testing.T) {
		store := &fakeStore{token: "good"}
		v := NewValidator(store, "session_token", zap.NewNop())

		orig := cookieHeaders("stale")
		id, err := v.Validate(ctx, model.Handshake{Headers: orig, Token: "good"})
		require.NoError(t, err)
		assert.Equal(t, "u1", id.ID)
		assert.Len(t, store.calls, 2)
		assert.Equal(t, "session_token=stale", orig.Get("Cookie"), "original headers untouched")
	})

	t.Run("both attempts fail", func(t *testing.T) {
		store := &fakeStore{token: "good"}
		v := NewValidator(store, "session_token", zap.NewNop())

		_, err := v.Validate(ctx, model.Handshake{Headers: cookieHeaders("bad"), Token: "worse"})
		assert.ErrorIs(t, err, model.ErrAuthRejected)
		assert.Len(t, store.calls, 2)
	})

	t.Run("no token means a single attempt", func(t *testing.T) {
		store := &fakeStore{token: "good"}
		v := NewValidator(store, "session_token", zap.NewNop())

		_, err := v.Validate(ctx, model.Handshake{})
		assert.ErrorIs(t, err, model.ErrAuthRejected)
		assert.Len(t, store.calls, 1)
	})

	t.Run("store failure is internal", func(t *testing.T) {
		store := &fakeStore{err: errors.New("db down")}
		v := NewValidator(store, "session_token", zap.NewNop())

		_, err := v.Validate(ctx, model.Handshake{Token: "x"})
		assert.ErrorIs(t, err, model.ErrAuthInternal)
		assert.False(t, errors.Is(err, model.ErrAuthRejected))
	})
}

func TestHandshakeFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ws?sessionToken=abc", nil)
	assert.Equal(t, "abc", HandshakeFromRequest(r).Token)

	r = httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.Header.Set(TokenHeader, "def")
	assert.Equal(t, "def", HandshakeFromRequest(r).Token)

	r = httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.Empty(t, HandshakeFromRequest(r).Token)
}

func TestJWTStore(t *testing.T) {
	ctx := context.Background()
	store := NewJWTStore("secret", "session_token")

	token, err := store.Sign(model.Identity{ID: "u1", Email: "a@example.com", DisplayName: "Ada"}, time.Hour)
	require.NoError(t, err)

	id, err := store.ValidateSession(ctx, cookieHeaders(token))
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, model.Identity{ID: "u1", Email: "a@example.com", DisplayName: "Ada"}, *id)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTStore("other", "session_token")
		id, err := other.ValidateSession(ctx, cookieHeaders(token))
		require.NoError(t, err)
		assert.Nil(t, id)
	})

	t.Run("expired", func(t *testing.T) {
		expired, err := store.Sign(model.Identity{ID: "u1"}, -time.Minute)
		require.NoError(t, err)
		id, err := store.ValidateSession(ctx, cookieHeaders(expired))
		require.NoError(t, err)
		assert.Nil(t, id)
	})

	t.Run("garbage", func(t *testing.T) {
		id, err := store.ValidateSession(ctx, cookieHeaders("not-a-jwt"))
		require.NoError(t, err)
		assert.Nil(t, id)
	})

	t.Run("through validator with query token", func(t *testing.T) {
		v := NewValidator(store, "session_token", zap.NewNop())
		id, err := v.Validate(ctx, model.Handshake{Headers: http.Header{}, Token: token})
		require.NoError(t, err)
		assert.Equal(t, "u1", id.ID)
	})
}
