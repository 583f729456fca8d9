// Package postgres implements the directory lookups against the LMS tables
// using pgx.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Querier is the subset of *pgxpool.Pool the stores use. pgxmock pools
// satisfy it in tests.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
