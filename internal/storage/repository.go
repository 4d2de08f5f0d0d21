package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// Queryable represents a database connection that can execute queries.
// *sql.DB, *sql.Tx and *DB all implement this interface.
type Queryable interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// BaseRepository provides common functionality for all repositories.
type BaseRepository struct {
	q Queryable
}

// NewBaseRepository creates a new base repository over the given connection.
func NewBaseRepository(q Queryable) BaseRepository {
	return BaseRepository{q: q}
}

// DB returns the underlying connection.
func (r *BaseRepository) DB() Queryable {
	return r.q
}

// Now returns the current time in UTC for database timestamps.
func (r *BaseRepository) Now() time.Time {
	return time.Now().UTC()
}

// Transaction executes fn within a transaction when the underlying connection
// can start one. When the repository is already bound to a transaction, fn
// runs directly on it.
func (r *BaseRepository) Transaction(ctx context.Context, fn func(q Queryable) error) error {
	if b, ok := r.q.(txBeginner); ok {
		return runInTx(ctx, b, fn)
	}
	return fn(r.q)
}

// likePattern escapes LIKE wildcards in s and wraps it for a substring match.
// Queries using it must declare ESCAPE '\'.
func likePattern(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return "%" + s + "%"
}
