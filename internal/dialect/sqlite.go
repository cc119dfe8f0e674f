package dialect

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mesh-intelligence/shelf/pkg/types"
)

// DatabaseFile is the SQLite database file created inside the data
// directory.
const DatabaseFile = "shelf.db"

var sqliteTypes = typeTable{
	types.TypeInteger: "INTEGER",
	types.TypeReal:    "REAL",
	types.TypeText:    "TEXT",
	types.TypeBinary:  "BLOB",
	types.TypeBoolean: "INTEGER",
}

// SQLite is the embedded backend provided by modernc.org/sqlite.
type SQLite struct{}

func (SQLite) Name() string       { return types.BackendSQLite }
func (SQLite) DriverName() string { return "sqlite" }

func (SQLite) Placeholder(int) string { return "?" }

func (SQLite) PrimaryKey() string { return "id INTEGER PRIMARY KEY AUTOINCREMENT" }

func (SQLite) TypeName(t types.SemanticType) (string, error) { return sqliteTypes.lookup(t) }

func (SQLite) ReturningID() bool { return false }

func (SQLite) EmptyInsert(table string) string {
	return "INSERT INTO " + table + " DEFAULT VALUES"
}

func (SQLite) TablesQuery() string {
	return `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite\_%' ESCAPE '\' ORDER BY name`
}

func (SQLite) Classify(err error) types.PersistenceKind {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_CONSTRAINT:
			return types.KindConstraint
		case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_NOTADB:
			return types.KindConnection
		}
		return types.KindOther
	}
	if connectionFailure(err) {
		return types.KindConnection
	}
	return types.KindOther
}

// Open opens DataDir/shelf.db, creating the directory if needed. A DataDir
// of ":memory:" opens a fresh in-memory database private to the returned
// handle. The pool is capped at one connection.
func (SQLite) Open(cfg types.Config) (*sql.DB, error) {
	var dsn string
	switch cfg.DataDir {
	case types.MemoryDataDir:
		dsn = "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	default:
		dir := cfg.DataDir
		if dir == "" {
			dir = "."
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		dsn = "file:" + filepath.Join(dir, DatabaseFile) + "?_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
