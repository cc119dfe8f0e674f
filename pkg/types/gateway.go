package types

import (
	"context"
	"database/sql"
)

// Filters selects records by field value. Keys are field names or "id".
// A text value containing the wildcard "%" matches with LIKE; a nil value
// matches NULL; a *Record value on a foreign key matches its id.
type Filters map[string]any

// Wildcard is the pattern marker that turns an equality filter into LIKE.
const Wildcard = "%"

// Gateway persists and loads records of declared schemas. Each mutating
// call commits before returning. A Gateway serializes its calls over a
// single backend handle.
type Gateway interface {
	// Create creates the schema's table if it does not exist.
	Create(ctx context.Context, s *Schema) error

	// Save inserts r and assigns its backend-generated id.
	// Returns ErrIDAssigned if r was already saved.
	Save(ctx context.Context, r *Record) error

	// Get loads the record of s with the given id, resolving foreign keys.
	// Returns ErrNotFound if no row exists.
	Get(ctx context.Context, s *Schema, id int64) (*Record, error)

	// All loads every record of s in backend order.
	All(ctx context.Context, s *Schema) ([]*Record, error)

	// Query loads records of s matching filters. A limit <= 0 means no limit.
	Query(ctx context.Context, s *Schema, filters Filters, limit int) ([]*Record, error)

	// QueryOne loads the first record of s matching filters.
	// Returns ErrNotFound if nothing matches.
	QueryOne(ctx context.Context, s *Schema, filters Filters) (*Record, error)

	// Update writes every field of a saved record.
	// Returns ErrUnboundInstance if r has no id, ErrNotFound if its row is gone.
	Update(ctx context.Context, r *Record) error

	// Delete removes the record of s with the given id.
	// Returns ErrNotFound if no row was deleted.
	Delete(ctx context.Context, s *Schema, id int64) error

	// Tables lists the tables known to the backend.
	Tables(ctx context.Context) ([]string, error)

	// Close releases the backend connection.
	Close() error
}

// Conn is the backend capability a Gateway runs on. *sql.DB satisfies it.
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	Close() error
}
