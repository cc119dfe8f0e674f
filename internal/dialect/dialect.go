// Package dialect holds the per-backend knowledge the SQL synthesizer and
// the store need: column type names, placeholder syntax, primary key
// declaration, id retrieval, table listing, error classification and how to
// open a connection.
package dialect

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/mesh-intelligence/shelf/pkg/types"
)

// Dialect describes one relational backend.
type Dialect interface {
	types.TypeMapper

	// Name is the backend name used in configuration.
	Name() string

	// DriverName is the database/sql driver backing the dialect.
	DriverName() string

	// Placeholder returns the bind marker for the n-th argument, counting
	// from 1.
	Placeholder(n int) string

	// PrimaryKey returns the declaration of the auto-assigned id column.
	PrimaryKey() string

	// ReturningID reports whether inserts return the new id with
	// RETURNING id instead of through LastInsertId.
	ReturningID() bool

	// EmptyInsert returns an insert of a row with every column defaulted.
	EmptyInsert(table string) string

	// TablesQuery lists user tables, one name per row.
	TablesQuery() string

	// Classify maps a driver error to a persistence failure kind.
	Classify(err error) types.PersistenceKind

	// Open returns a handle for the backend described by cfg. It does not
	// verify connectivity.
	Open(cfg types.Config) (*sql.DB, error)
}

// ByName returns the dialect for a configured backend name.
func ByName(name string) (Dialect, error) {
	switch name {
	case types.BackendSQLite:
		return SQLite{}, nil
	case types.BackendPostgres:
		return Postgres{}, nil
	case types.BackendMySQL:
		return MySQL{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrBackendUnknown, name)
	}
}

type typeTable map[types.SemanticType]string

func (tt typeTable) lookup(t types.SemanticType) (string, error) {
	name, ok := tt[t]
	if !ok {
		return "", fmt.Errorf("%w: %v", types.ErrUnsupportedType, t)
	}
	return name, nil
}

// connectionFailure reports errors every driver surfaces for a lost or
// unusable connection.
func connectionFailure(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}
