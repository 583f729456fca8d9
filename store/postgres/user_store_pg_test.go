package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/caliper-tracking/caliper-tracking-backend/store"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createMockPool creates a mock pool for testing
func createMockPool(t *testing.T) (pgxmock.PgxPoolIface, func()) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	cleanup := func() {
		mock.Close()
	}

	return mock, cleanup
}

func TestUserStore_GetUsernameByID(t *testing.T) {
	ctx := context.Background()

	t.Run("successful retrieval", func(t *testing.T) {
		mock, cleanup := createMockPool(t)
		defer cleanup()

		mock.ExpectQuery("SELECT username FROM auth_user WHERE id = \\$1").
			WithArgs(int64(42)).
			WillReturnRows(pgxmock.NewRows([]string{"username"}).AddRow("edx_learner"))

		username, err := NewUserStore(mock).GetUsernameByID(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, "edx_learner", username)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("user not found", func(t *testing.T) {
		mock, cleanup := createMockPool(t)
		defer cleanup()

		mock.ExpectQuery("SELECT username FROM auth_user WHERE id = \\$1").
			WithArgs(int64(7)).
			WillReturnError(pgx.ErrNoRows)

		_, err := NewUserStore(mock).GetUsernameByID(ctx, 7)
		require.Error(t, err)
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.Contains(t, err.Error(), "user with id 7 not found")
	})

	t.Run("database error", func(t *testing.T) {
		mock, cleanup := createMockPool(t)
		defer cleanup()

		dbErr := errors.New("database connection failed")
		mock.ExpectQuery("SELECT username FROM auth_user WHERE id = \\$1").
			WithArgs(int64(42)).
			WillReturnError(dbErr)

		_, err := NewUserStore(mock).GetUsernameByID(ctx, 42)
		require.Error(t, err)
		assert.ErrorIs(t, err, dbErr)
		assert.NotErrorIs(t, err, store.ErrNotFound)
	})
}
