package repository

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/event-radar/backend/internal/model"
)

// SessionStore resolves session cookies against the sessions table of a
// database/sql store.
type SessionStore struct {
	db         *sql.DB
	cookieName string
	now        func() time.Time
}

// NewSessionStore creates a SessionStore reading the given cookie.
func NewSessionStore(db *sql.DB, cookieName string) *SessionStore {
	return &SessionStore{db: db, cookieName: cookieName, now: time.Now}
}

// ValidateSession returns the identity owning the session cookie in headers,
// or nil when there is no cookie, no matching session, or it has expired.
func (s *SessionStore) ValidateSession(ctx context.Context, headers http.Header) (*model.Identity, error) {
	token := sessionCookie(headers, s.cookieName)
	if token == "" {
		return nil, nil
	}

	query := `
		SELECT u.id, u.email, u.name, s.expires_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token = ?
	`

	var (
		id        model.Identity
		email     sql.NullString
		name      sql.NullString
		expiresAt time.Time
	)
	err := s.db.QueryRowContext(ctx, query, token).Scan(&id.ID, &email, &name, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	if !expiresAt.After(s.now()) {
		return nil, nil
	}

	id.Email = email.String
	id.DisplayName = name.String
	return &id, nil
}
