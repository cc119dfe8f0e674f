// Package materialize builds records from raw rows, loading referenced
// records through a Resolver.
package materialize

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"github.com/mesh-intelligence/shelf/internal/sqlgen"
	"github.com/mesh-intelligence/shelf/pkg/types"
)

// Defaults applied when an option is zero.
const (
	DefaultMaxDepth  = 16
	DefaultCacheSize = 128
)

// Resolver loads the raw row of s with the given id, laid out as id followed
// by the columns of sqlgen.Introspect(s). It returns types.ErrNotFound when
// no such row exists.
type Resolver interface {
	Resolve(ctx context.Context, s *types.Schema, id int64) ([]any, error)
}

// Materializer converts rows into records.
type Materializer struct {
	resolver  Resolver
	maxDepth  int
	cacheSize int
}

// Option configures a Materializer.
type Option func(*Materializer)

// WithMaxDepth bounds how many foreign keys deep resolution may go.
func WithMaxDepth(n int) Option {
	return func(m *Materializer) {
		if n > 0 {
			m.maxDepth = n
		}
	}
}

// WithCacheSize sets how many resolved records one call keeps for reuse.
func WithCacheSize(n int) Option {
	return func(m *Materializer) {
		if n > 0 {
			m.cacheSize = n
		}
	}
}

// New returns a Materializer resolving references through r.
func New(r Resolver, opts ...Option) *Materializer {
	m := &Materializer{
		resolver:  r,
		maxDepth:  DefaultMaxDepth,
		cacheSize: DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MaxDepth returns the resolution depth limit.
func (m *Materializer) MaxDepth() int { return m.maxDepth }

// Materialize builds one record of s from row, which holds the id followed
// by one value per column in cols.
func (m *Materializer) Materialize(ctx context.Context, s *types.Schema, cols []sqlgen.Column, row []any) (*types.Record, error) {
	p, err := m.newPass()
	if err != nil {
		return nil, err
	}
	return p.build(ctx, s, cols, row, 0)
}

// MaterializeAll builds one record per row. References shared between rows
// are loaded once.
func (m *Materializer) MaterializeAll(ctx context.Context, s *types.Schema, cols []sqlgen.Column, rows [][]any) ([]*types.Record, error) {
	p, err := m.newPass()
	if err != nil {
		return nil, err
	}
	out := make([]*types.Record, 0, len(rows))
	for _, row := range rows {
		r, err := p.build(ctx, s, cols, row, 0)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

type cacheKey struct {
	table string
	id    int64
}

// pass holds the state of one Materialize or MaterializeAll call.
type pass struct {
	m     *Materializer
	cache *lru.Cache
}

func (m *Materializer) newPass() (*pass, error) {
	cache, err := lru.New(m.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("resolution cache: %w", err)
	}
	return &pass{m: m, cache: cache}, nil
}

func (p *pass) build(ctx context.Context, s *types.Schema, cols []sqlgen.Column, row []any, depth int) (*types.Record, error) {
	if len(row) != len(cols)+1 {
		return nil, fmt.Errorf("materialize %s: row has %d values, want %d", s.Table(), len(row), len(cols)+1)
	}
	id, err := decodeID(row[0])
	if err != nil {
		return nil, fmt.Errorf("materialize %s: id: %w", s.Table(), err)
	}

	r, err := types.NewRecord(s, nil)
	if err != nil {
		return nil, err
	}
	if err := r.AssignID(id); err != nil {
		return nil, fmt.Errorf("materialize %s: %w", s.Table(), err)
	}

	for i, c := range cols {
		raw := row[i+1]
		if raw == nil {
			continue
		}
		var v any
		switch c.Field.Kind {
		case types.KindColumn:
			v, err = types.Decode(c.Field.Type, raw)
			if err != nil {
				return nil, fmt.Errorf("materialize %s.%s: %w", s.Table(), c.Field.Name, err)
			}
		case types.KindForeignKey:
			refID, err := decodeID(raw)
			if err != nil {
				return nil, fmt.Errorf("materialize %s.%s: %w", s.Table(), c.Field.Name, err)
			}
			ref, err := p.resolve(ctx, c.Field.Ref, refID, depth+1)
			if err != nil {
				return nil, fmt.Errorf("materialize %s.%s: %w", s.Table(), c.Field.Name, err)
			}
			v = ref
		}
		if err := r.Set(c.Field.Name, v); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (p *pass) resolve(ctx context.Context, s *types.Schema, id int64, depth int) (*types.Record, error) {
	if depth > p.m.maxDepth {
		return nil, fmt.Errorf("%w: %s %d at depth %d", types.ErrResolutionDepth, s.Table(), id, depth)
	}
	key := cacheKey{table: s.Table(), id: id}
	if v, ok := p.cache.Get(key); ok {
		return v.(*types.Record).Clone(), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	row, err := p.m.resolver.Resolve(ctx, s, id)
	if err != nil {
		return nil, err
	}
	r, err := p.build(ctx, s, sqlgen.Introspect(s), row, depth)
	if err != nil {
		return nil, err
	}
	p.cache.Add(key, r)
	return r, nil
}

func decodeID(raw any) (int64, error) {
	v, err := types.Decode(types.TypeInteger, raw)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, types.ErrInvalidID
	}
	return v.(int64), nil
}
