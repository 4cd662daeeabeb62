// Package repository provides the narrow user and session persistence the
// realtime service depends on.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/event-radar/backend/internal/model"
)

// UserRepository updates user rows in a database/sql store.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// UpdateUser applies patch to the user. Empty patches are a no-op.
func (r *UserRepository) UpdateUser(ctx context.Context, userID string, patch model.UserPatch) error {
	if patch.Empty() {
		return nil
	}

	set, args := buildUserUpdate(patch, func(int) string { return "?" })
	query := `UPDATE users SET ` + set + ` WHERE id = ?`
	args = append(args, userID)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

// User is the subset of the user record the realtime service reads back.
type User struct {
	ID           string
	Email        string
	Name         string
	Latitude     *float64
	Longitude    *float64
	LastActiveAt *time.Time
}

// GetUser retrieves a user by ID.
func (r *UserRepository) GetUser(ctx context.Context, userID string) (*User, error) {
	query := `
		SELECT id, email, name, latitude, longitude, last_active_at
		FROM users
		WHERE id = ?
	`

	var (
		u          User
		email      sql.NullString
		name       sql.NullString
		lat, lng   sql.NullFloat64
		lastActive sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&u.ID, &email, &name, &lat, &lng, &lastActive)
	if err == sql.ErrNoRows {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u.Email = email.String
	u.Name = name.String
	if lat.Valid {
		u.Latitude = &lat.Float64
	}
	if lng.Valid {
		u.Longitude = &lng.Float64
	}
	if lastActive.Valid {
		u.LastActiveAt = &lastActive.Time
	}
	return &u, nil
}

// buildUserUpdate renders the SET clause for patch. placeholder returns the
// bind marker for the n-th argument (1-based) in the target dialect.
func buildUserUpdate(patch model.UserPatch, placeholder func(n int) string) (string, []any) {
	var (
		cols []string
		args []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		cols = append(cols, col+" = "+placeholder(len(args)))
	}

	if patch.Latitude != nil {
		add("latitude", *patch.Latitude)
	}
	if patch.Longitude != nil {
		add("longitude", *patch.Longitude)
	}
	if patch.LastActiveAt != nil {
		add("last_active_at", patch.LastActiveAt.UTC())
	}
	add("updated_at", time.Now().UTC())

	return strings.Join(cols, ", "), args
}

// sessionCookie extracts the named cookie from headers.
func sessionCookie(headers http.Header, name string) string {
	req := http.Request{Header: headers}
	c, err := req.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
