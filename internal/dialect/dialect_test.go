package dialect

import (
	"context"
	"database/sql/driver"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/shelf/pkg/types"
)

func TestByName(t *testing.T) {
	for _, name := range []string{types.BackendSQLite, types.BackendPostgres, types.BackendMySQL} {
		d, err := ByName(name)
		require.NoError(t, err)
		assert.Equal(t, name, d.Name())
	}

	_, err := ByName("oracle")
	assert.ErrorIs(t, err, types.ErrBackendUnknown)
}

func TestTypeName(t *testing.T) {
	tests := []struct {
		dialect Dialect
		want    map[types.SemanticType]string
	}{
		{SQLite{}, map[types.SemanticType]string{
			types.TypeInteger: "INTEGER",
			types.TypeReal:    "REAL",
			types.TypeText:    "TEXT",
			types.TypeBinary:  "BLOB",
			types.TypeBoolean: "INTEGER",
		}},
		{Postgres{}, map[types.SemanticType]string{
			types.TypeInteger: "INTEGER",
			types.TypeReal:    "DOUBLE PRECISION",
			types.TypeText:    "TEXT",
			types.TypeBinary:  "BYTEA",
			types.TypeBoolean: "BOOL",
		}},
		{MySQL{}, map[types.SemanticType]string{
			types.TypeInteger: "BIGINT",
			types.TypeReal:    "DOUBLE",
			types.TypeText:    "TEXT",
			types.TypeBinary:  "BLOB",
			types.TypeBoolean: "BOOLEAN",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.dialect.Name(), func(t *testing.T) {
			for st, want := range tt.want {
				got, err := tt.dialect.TypeName(st)
				require.NoError(t, err)
				assert.Equal(t, want, got, st.String())
			}
			_, err := tt.dialect.TypeName(types.SemanticType(0))
			assert.ErrorIs(t, err, types.ErrUnsupportedType)
		})
	}
}

func TestPlaceholder(t *testing.T) {
	assert.Equal(t, "?", SQLite{}.Placeholder(3))
	assert.Equal(t, "?", MySQL{}.Placeholder(3))
	assert.Equal(t, "$1", Postgres{}.Placeholder(1))
	assert.Equal(t, "$12", Postgres{}.Placeholder(12))
}

func TestEmptyInsert(t *testing.T) {
	assert.Equal(t, "INSERT INTO tag DEFAULT VALUES", SQLite{}.EmptyInsert("tag"))
	assert.Equal(t, "INSERT INTO tag DEFAULT VALUES", Postgres{}.EmptyInsert("tag"))
	assert.Equal(t, "INSERT INTO tag () VALUES ()", MySQL{}.EmptyInsert("tag"))
}

func TestClassifyPostgres(t *testing.T) {
	d := Postgres{}
	assert.Equal(t, types.KindConstraint, d.Classify(&pgconn.PgError{Code: "23505"}))
	assert.Equal(t, types.KindConstraint, d.Classify(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"})))
	assert.Equal(t, types.KindConnection, d.Classify(&pgconn.PgError{Code: "08006"}))
	assert.Equal(t, types.KindOther, d.Classify(&pgconn.PgError{Code: "42P01"}))
	assert.Equal(t, types.KindConnection, d.Classify(driver.ErrBadConn))
	assert.Equal(t, types.KindOther, d.Classify(assert.AnError))
}

func TestClassifyMySQL(t *testing.T) {
	d := MySQL{}
	assert.Equal(t, types.KindConstraint, d.Classify(&mysql.MySQLError{Number: 1062}))
	assert.Equal(t, types.KindConstraint, d.Classify(&mysql.MySQLError{Number: 1452}))
	assert.Equal(t, types.KindConnection, d.Classify(&mysql.MySQLError{Number: 2006}))
	assert.Equal(t, types.KindOther, d.Classify(&mysql.MySQLError{Number: 1146}))
	assert.Equal(t, types.KindConnection, d.Classify(mysql.ErrInvalidConn))
	assert.Equal(t, types.KindOther, d.Classify(assert.AnError))
}

func TestSQLiteOpenAndClassify(t *testing.T) {
	ctx := context.Background()
	d := SQLite{}

	db, err := d.Open(types.Config{Backend: types.BackendSQLite, DataDir: types.MemoryDataDir})
	require.NoError(t, err)
	defer db.Close()

	_, err = db.ExecContext(ctx, "CREATE TABLE tag (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT UNIQUE)")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, "INSERT INTO tag (name) VALUES (?)", "go")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, "INSERT INTO tag (name) VALUES (?)", "go")
	require.Error(t, err)
	assert.Equal(t, types.KindConstraint, d.Classify(err))

	_, err = db.ExecContext(ctx, "SELECT * FROM missing")
	require.Error(t, err)
	assert.Equal(t, types.KindOther, d.Classify(err))

	rows, err := db.QueryContext(ctx, d.TablesQuery())
	require.NoError(t, err)
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"tag"}, names)
}

func TestSQLiteOpenCreatesDataDir(t *testing.T) {
	if testing.Short() {
		t.Skip("writes a database file")
	}
	dir := filepath.Join(t.TempDir(), "nested", "data")

	db, err := SQLite{}.Open(types.Config{Backend: types.BackendSQLite, DataDir: dir})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.PingContext(context.Background()))
	assert.FileExists(t, filepath.Join(dir, DatabaseFile))
}

func TestPostgresDSN(t *testing.T) {
	got := postgresDSN(types.Config{Host: "db", Port: 6543, Database: "shelf", User: "app", Password: "it's", SSLMode: "disable"})
	assert.Equal(t, `host='db' port=6543 dbname='shelf' user='app' password='it\'s' sslmode='disable'`, got)

	got = postgresDSN(types.Config{Database: "shelf"})
	assert.Equal(t, "host='localhost' port=5432 dbname='shelf'", got)

	assert.Equal(t, "postgres://x", postgresDSN(types.Config{DSN: "postgres://x", Host: "ignored"}))
}

func TestPostgresOpen(t *testing.T) {
	db, err := Postgres{}.Open(types.Config{Backend: types.BackendPostgres, Database: "shelf"})
	require.NoError(t, err)
	assert.NoError(t, db.Close())

	_, err = Postgres{}.Open(types.Config{Backend: types.BackendPostgres, DSN: "postgres://%zz"})
	assert.Error(t, err)
}

func TestMySQLConfig(t *testing.T) {
	cfg, err := mysqlConfig(types.Config{Host: "db", Database: "shelf", User: "app", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "db:3306", cfg.Addr)
	assert.Equal(t, "tcp", cfg.Net)
	assert.Equal(t, "shelf", cfg.DBName)
	assert.Equal(t, "app", cfg.User)
	assert.Equal(t, "secret", cfg.Passwd)
	assert.True(t, cfg.ClientFoundRows)
	assert.True(t, cfg.ParseTime)

	cfg, err = mysqlConfig(types.Config{DSN: "app:pw@tcp(10.0.0.1:3307)/other"})
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1:3307", cfg.Addr)
	assert.Equal(t, "other", cfg.DBName)
	assert.True(t, cfg.ClientFoundRows)

	_, err = mysqlConfig(types.Config{DSN: "not a dsn"})
	assert.Error(t, err)
}
