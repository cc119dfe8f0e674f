package dialect

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/mesh-intelligence/shelf/pkg/types"
)

var postgresTypes = typeTable{
	types.TypeInteger: "INTEGER",
	types.TypeReal:    "DOUBLE PRECISION",
	types.TypeText:    "TEXT",
	types.TypeBinary:  "BYTEA",
	types.TypeBoolean: "BOOL",
}

// Postgres is the client-server backend provided by pgx.
type Postgres struct{}

func (Postgres) Name() string       { return types.BackendPostgres }
func (Postgres) DriverName() string { return "pgx" }

func (Postgres) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (Postgres) PrimaryKey() string { return "id BIGSERIAL PRIMARY KEY" }

func (Postgres) TypeName(t types.SemanticType) (string, error) { return postgresTypes.lookup(t) }

func (Postgres) ReturningID() bool { return true }

func (Postgres) EmptyInsert(table string) string {
	return "INSERT INTO " + table + " DEFAULT VALUES"
}

func (Postgres) TablesQuery() string {
	return "SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() AND table_type = 'BASE TABLE' ORDER BY table_name"
}

// Classify uses the SQLSTATE class: 23 is an integrity constraint
// violation, 08 a connection exception.
func (Postgres) Classify(err error) types.PersistenceKind {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "23"):
			return types.KindConstraint
		case strings.HasPrefix(pgErr.Code, "08"), strings.HasPrefix(pgErr.Code, "57P"):
			return types.KindConnection
		}
		return types.KindOther
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || connectionFailure(err) {
		return types.KindConnection
	}
	return types.KindOther
}

func (Postgres) Open(cfg types.Config) (*sql.DB, error) {
	connConfig, err := pgx.ParseConfig(postgresDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	return stdlib.OpenDB(*connConfig), nil
}

// postgresDSN returns cfg.DSN, or a keyword/value connection string built
// from the individual fields.
func postgresDSN(cfg types.Config) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	parts := []string{
		"host=" + quoteValue(host),
		"port=" + strconv.Itoa(port),
		"dbname=" + quoteValue(cfg.Database),
	}
	if cfg.User != "" {
		parts = append(parts, "user="+quoteValue(cfg.User))
	}
	if cfg.Password != "" {
		parts = append(parts, "password="+quoteValue(cfg.Password))
	}
	if cfg.SSLMode != "" {
		parts = append(parts, "sslmode="+quoteValue(cfg.SSLMode))
	}
	return strings.Join(parts, " ")
}

var valueEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func quoteValue(v string) string {
	return "'" + valueEscaper.Replace(v) + "'"
}
