package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/event-radar/backend/internal/model"
)

// SessionClaims is the payload of a signed session cookie.
type SessionClaims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// JWTStore validates sessions carried as HMAC-signed JWT cookies.
type JWTStore struct {
	secret     []byte
	cookieName string
}

// NewJWTStore creates a JWTStore.
func NewJWTStore(secret, cookieName string) *JWTStore {
	return &JWTStore{secret: []byte(secret), cookieName: cookieName}
}

// ValidateSession implements SessionStore. Malformed, expired, or
// badly signed tokens yield no identity rather than an error.
func (s *JWTStore) ValidateSession(_ context.Context, headers http.Header) (*model.Identity, error) {
	req := http.Request{Header: headers}
	cookie, err := req.Cookie(s.cookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	token, err := jwt.ParseWithClaims(cookie.Value, &SessionClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, nil
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || claims.Subject == "" {
		return nil, nil
	}

	return &model.Identity{
		ID:          claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.Name,
	}, nil
}

// Sign issues a session token for id valid for ttl.
func (s *JWTStore) Sign(id model.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		Email: id.Email,
		Name:  id.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}
