// Package store defines the read-only directory lookups the tracking helpers
// need from the LMS.
package store

import (
	"context"
	"errors"
)

// Error Handling Guidelines:
// - Stores: wrap with fmt.Errorf("context: %w", err)
// - Handlers: translate to apperrors.* for HTTP responses

// ErrNotFound indicates that a requested row does not exist.
var ErrNotFound = errors.New("resource not found")

// UserStore resolves LMS user ids.
type UserStore interface {
	GetUsernameByID(ctx context.Context, userID int64) (string, error)
}

// TeamStore resolves LMS course teams.
type TeamStore interface {
	GetTopicIDByTeamID(ctx context.Context, teamID string) (string, error)
}
