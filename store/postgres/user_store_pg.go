package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/caliper-tracking/caliper-tracking-backend/store"
	"github.com/jackc/pgx/v5"
)

// Ensure UserStore implements store.UserStore.
var _ store.UserStore = (*UserStore)(nil)

// UserStore reads usernames from the LMS auth_user table.
type UserStore struct {
	db Querier
}

// NewUserStore creates a new PostgreSQL user store.
func NewUserStore(db Querier) *UserStore {
	return &UserStore{db: db}
}

// GetUsernameByID returns the username of the user with the given id.
func (s *UserStore) GetUsernameByID(ctx context.Context, userID int64) (string, error) {
	const query = `SELECT username FROM auth_user WHERE id = $1`

	var username string
	if err := s.db.QueryRow(ctx, query, userID).Scan(&username); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("user with id %d not found: %w", userID, store.ErrNotFound)
		}
		return "", fmt.Errorf("failed to get username by id: %w", err)
	}
	return username, nil
}
