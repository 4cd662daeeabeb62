// Package auth validates connection handshakes against a session store.
package auth

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/event-radar/backend/internal/model"
)

const (
	// TokenQueryParam carries the session token for clients that cannot set cookies.
	TokenQueryParam = "sessionToken"
	// TokenHeader is the header form of TokenQueryParam.
	TokenHeader = "X-Session-Token"
)

// SessionStore resolves request headers to the identity owning the session.
// A nil identity with a nil error means there is no valid session.
type SessionStore interface {
	ValidateSession(ctx context.Context, headers http.Header) (*model.Identity, error)
}

// Validator turns handshake metadata into an authenticated identity.
type Validator struct {
	store      SessionStore
	cookieName string
	logger     *zap.Logger
}

// NewValidator creates a Validator. cookieName is the cookie synthesized from
// an out-of-band token.
func NewValidator(store SessionStore, cookieName string, logger *zap.Logger) *Validator {
	return &Validator{
		store:      store,
		cookieName: cookieName,
		logger:     logger.Named("auth"),
	}
}

// Validate returns the identity for hs. It returns an error wrapping
// model.ErrAuthRejected when no valid session is found and
// model.ErrAuthInternal when the store fails.
func (v *Validator) Validate(ctx context.Context, hs model.Handshake) (*model.Identity, error) {
	headers := hs.Headers
	if headers == nil {
		headers = http.Header{}
	}

	id, err := v.store.ValidateSession(ctx, headers)
	if err != nil {
		return nil, v.internal(err)
	}
	if id != nil {
		return id, nil
	}

	if hs.Token != "" {
		retry := headers.Clone()
		retry.Set("Cookie", v.cookieName+"="+hs.Token)

		id, err = v.store.ValidateSession(ctx, retry)
		if err != nil {
			return nil, v.internal(err)
		}
		if id != nil {
			return id, nil
		}
	}

	v.logger.Warn("handshake rejected", zap.Bool("hadToken", hs.Token != ""))
	return nil, model.ErrAuthRejected
}

func (v *Validator) internal(err error) error {
	v.logger.Error("session validation failed", zap.Error(err))
	return fmt.Errorf("%w: %v", model.ErrAuthInternal, err)
}

// HandshakeFromRequest collects the handshake metadata from an upgrade request.
func HandshakeFromRequest(r *http.Request) model.Handshake {
	token := r.URL.Query().Get(TokenQueryParam)
	if token == "" {
		token = r.Header.Get(TokenHeader)
	}
	return model.Handshake{Headers: r.Header, Token: token}
}
