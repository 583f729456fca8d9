package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/caliper-tracking/caliper-tracking-backend/store"
	"github.com/jackc/pgx/v5"
)

// Ensure TeamStore implements store.TeamStore.
var _ store.TeamStore = (*TeamStore)(nil)

// TeamStore reads course teams from the LMS teams_courseteam table.
type TeamStore struct {
	db Querier
}

// NewTeamStore creates a new PostgreSQL team store.
func NewTeamStore(db Querier) *TeamStore {
	return &TeamStore{db: db}
}

// GetTopicIDByTeamID returns the topic a team belongs to.
func (s *TeamStore) GetTopicIDByTeamID(ctx context.Context, teamID string) (string, error) {
	const query = `SELECT topic_id FROM teams_courseteam WHERE team_id = $1`

	var topicID string
	if err := s.db.QueryRow(ctx, query, teamID).Scan(&topicID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("team with id %s not found: %w", teamID, store.ErrNotFound)
		}
		return "", fmt.Errorf("failed to get topic by team id: %w", err)
	}
	return topicID, nil
}
