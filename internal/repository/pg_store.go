package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/event-radar/backend/internal/model"
)

// PGStore implements the user and session collaborators over a pgx pool.
type PGStore struct {
	pool       *pgxpool.Pool
	cookieName string
}

// NewPGStore creates a PGStore reading the given session cookie.
func NewPGStore(pool *pgxpool.Pool, cookieName string) *PGStore {
	return &PGStore{pool: pool, cookieName: cookieName}
}

// UpdateUser applies patch to the user. Empty patches are a no-op.
func (s *PGStore) UpdateUser(ctx context.Context, userID string, patch model.UserPatch) error {
	if patch.Empty() {
		return nil
	}

	set, args := buildUserUpdate(patch, func(n int) string { return "$" + strconv.Itoa(n) })
	args = append(args, userID)
	query := `UPDATE users SET ` + set + ` WHERE id = $` + strconv.Itoa(len(args))

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

// ValidateSession returns the identity owning the session cookie in headers,
// or nil when there is no valid session.
func (s *PGStore) ValidateSession(ctx context.Context, headers http.Header) (*model.Identity, error) {
	token := sessionCookie(headers, s.cookieName)
	if token == "" {
		return nil, nil
	}

	query := `
		SELECT u.id, coalesce(u.email, ''), coalesce(u.name, '')
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token = $1 AND s.expires_at > $2
	`

	var id model.Identity
	err := s.pool.QueryRow(ctx, query, token, time.Now()).Scan(&id.ID, &id.Email, &id.DisplayName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("look up session: %w", err)
	}
	return &id, nil
}
