package store

import (
	"context"
	"database/sql"
)

// DBTX is the minimal database surface the postgres stores run on.
// Both *sql.DB and *sql.Tx satisfy it, so the same store can execute
// its queries standalone or inside a caller-managed transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
