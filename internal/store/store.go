// Package store implements types.Gateway over database/sql.
//
// A Store runs every generated statement through one Conn. Mutations run in
// a transaction that commits before the call returns. Reads collect and
// close their rows before resolving foreign keys, so a pool capped at one
// connection never waits on itself.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/shelf/internal/dialect"
	"github.com/mesh-intelligence/shelf/internal/materialize"
	"github.com/mesh-intelligence/shelf/internal/sqlgen"
	"github.com/mesh-intelligence/shelf/pkg/types"
)

// Store is a types.Gateway bound to one backend handle.
type Store struct {
	mu      sync.Mutex
	conn    types.Conn
	dialect dialect.Dialect
	gen     *sqlgen.Synthesizer
	mat     *materialize.Materializer
	logger  *zap.SugaredLogger
	timeout time.Duration

	maxDepth  int
	cacheSize int
}

var _ types.Gateway = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Statements are logged at debug level.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTimeout bounds each call. Zero leaves deadlines to the caller.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

// WithMaxDepth bounds foreign key resolution depth.
func WithMaxDepth(n int) Option {
	return func(s *Store) { s.maxDepth = n }
}

// WithCacheSize sets the per-call resolution cache size.
func WithCacheSize(n int) Option {
	return func(s *Store) { s.cacheSize = n }
}

// New returns a Store issuing d's SQL on conn.
func New(conn types.Conn, d dialect.Dialect, opts ...Option) *Store {
	s := &Store{
		conn:    conn,
		dialect: d,
		gen:     sqlgen.New(d),
		logger:  zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mat = materialize.New(resolver{s},
		materialize.WithMaxDepth(s.maxDepth),
		materialize.WithCacheSize(s.cacheSize),
	)
	return s
}

// Dialect returns the backend dialect.
func (s *Store) Dialect() dialect.Dialect { return s.dialect }

// Create creates the table of sc if it does not exist.
func (s *Store) Create(ctx context.Context, sc *types.Schema) error {
	st, err := s.gen.CreateTable(sc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	s.logStatement("create", sc.Table(), st)
	if _, err := s.conn.ExecContext(ctx, st.SQL, st.Args...); err != nil {
		return s.fail("create", sc.Table(), err)
	}
	return nil
}

// Save inserts r and assigns the id generated by the backend.
func (s *Store) Save(ctx context.Context, r *types.Record) error {
	table := r.Schema().Table()
	if id, ok := r.ID(); ok {
		return fmt.Errorf("save %s: %w: %d", table, types.ErrIDAssigned, id)
	}
	st, err := s.gen.Insert(r)
	if err != nil {
		return fmt.Errorf("save %s: %w", table, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return s.fail("save", table, err)
	}
	defer tx.Rollback()

	s.logStatement("save", table, st)
	var id int64
	if s.dialect.ReturningID() {
		if err := tx.QueryRowContext(ctx, st.SQL, st.Args...).Scan(&id); err != nil {
			return s.fail("save", table, err)
		}
	} else {
		res, err := tx.ExecContext(ctx, st.SQL, st.Args...)
		if err != nil {
			return s.fail("save", table, err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return s.fail("save", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return s.fail("save", table, err)
	}
	return r.AssignID(id)
}

// Get loads the record of sc with the given id.
func (s *Store) Get(ctx context.Context, sc *types.Schema, id int64) (*types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	st := s.gen.SelectByID(sc, id)
	rows, err := s.queryRows(ctx, "get", sc.Table(), st)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("get %s %d: %w", sc.Table(), id, types.ErrNotFound)
	}
	return s.mat.Materialize(ctx, sc, st.Columns, rows[0])
}

// All loads every record of sc.
func (s *Store) All(ctx context.Context, sc *types.Schema) ([]*types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	st := s.gen.SelectAll(sc)
	rows, err := s.queryRows(ctx, "all", sc.Table(), st)
	if err != nil {
		return nil, err
	}
	return s.mat.MaterializeAll(ctx, sc, st.Columns, rows)
}

// Query loads the records of sc matching filters.
func (s *Store) Query(ctx context.Context, sc *types.Schema, filters types.Filters, limit int) ([]*types.Record, error) {
	st, err := s.gen.Query(sc, filters, limit)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.queryRows(ctx, "query", sc.Table(), st)
	if err != nil {
		return nil, err
	}
	return s.mat.MaterializeAll(ctx, sc, st.Columns, rows)
}

// QueryOne loads the first record of sc matching filters.
func (s *Store) QueryOne(ctx context.Context, sc *types.Schema, filters types.Filters) (*types.Record, error) {
	recs, err := s.Query(ctx, sc, filters, 1)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("query %s: %w", sc.Table(), types.ErrNotFound)
	}
	return recs[0], nil
}

// Update writes every field of a saved record.
func (s *Store) Update(ctx context.Context, r *types.Record) error {
	table := r.Schema().Table()
	st, err := s.gen.Update(r)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	id, _ := r.ID()
	return s.execAffecting(ctx, "update", table, id, st)
}

// Delete removes the record of sc with the given id.
func (s *Store) Delete(ctx context.Context, sc *types.Schema, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.execAffecting(ctx, "delete", sc.Table(), id, s.gen.Delete(sc, id))
}

// Tables lists the tables in the backend.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.queryRows(ctx, "tables", "", s.gen.Tables())
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		v, err := types.Decode(types.TypeText, row[0])
		if err != nil {
			return nil, fmt.Errorf("tables: %w", err)
		}
		name, _ := v.(string)
		names = append(names, name)
	}
	return names, nil
}

// Close closes the backend handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}

// execAffecting runs st in a transaction and fails with ErrNotFound when it
// touched no row.
func (s *Store) execAffecting(ctx context.Context, op, table string, id int64, st sqlgen.Statement) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return s.fail(op, table, err)
	}
	defer tx.Rollback()

	s.logStatement(op, table, st)
	res, err := tx.ExecContext(ctx, st.SQL, st.Args...)
	if err != nil {
		return s.fail(op, table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return s.fail(op, table, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s %d: %w", op, table, id, types.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return s.fail(op, table, err)
	}
	return nil
}

// queryRows runs st and returns every row as raw driver values. The rows
// are closed before it returns.
func (s *Store) queryRows(ctx context.Context, op, table string, st sqlgen.Statement) ([][]any, error) {
	s.logStatement(op, table, st)
	rows, err := s.conn.QueryContext(ctx, st.SQL, st.Args...)
	if err != nil {
		return nil, s.fail(op, table, err)
	}
	defer rows.Close()

	width := len(st.Columns) + 1
	var out [][]any
	for rows.Next() {
		vals := make([]any, width)
		ptrs := make([]any, width)
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, s.fail(op, table, err)
		}
		out = append(out, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(op, table, err)
	}
	return out, nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}

func (s *Store) logStatement(op, table string, st sqlgen.Statement) {
	s.logger.Debugf("%s %s: %s (%d args)", op, table, st.SQL, len(st.Args))
}

// fail wraps a backend error as a PersistenceError.
func (s *Store) fail(op, table string, err error) error {
	kind := s.dialect.Classify(err)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		kind = types.KindConnection
	}
	s.logger.Warnf("%s %s failed (%s): %s", op, table, kind, err)
	return &types.PersistenceError{Op: op, Table: table, Kind: kind, Err: err}
}

// resolver loads referenced rows for the materializer. It runs inside a
// Store call that already holds the mutex.
type resolver struct {
	s *Store
}

func (r resolver) Resolve(ctx context.Context, sc *types.Schema, id int64) ([]any, error) {
	rows, err := r.s.queryRows(ctx, "resolve", sc.Table(), r.s.gen.SelectByID(sc, id))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("resolve %s %d: %w", sc.Table(), id, types.ErrNotFound)
	}
	return rows[0], nil
}
