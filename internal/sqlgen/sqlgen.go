// Package sqlgen turns schemas and records into parameterized SQL for a
// dialect. It never executes anything.
package sqlgen

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/shelf/internal/dialect"
	"github.com/mesh-intelligence/shelf/pkg/types"
)

// Column is one storage column of a schema, excluding id.
type Column struct {
	Name  string
	Field types.Field
}

// Introspect lists the storage columns of s in declaration order.
func Introspect(s *types.Schema) []Column {
	fields := s.Fields()
	cols := make([]Column, len(fields))
	for i, f := range fields {
		cols[i] = Column{Name: f.ColumnName(), Field: f}
	}
	return cols
}

// Statement is a SQL string with its bind arguments. Columns lists the
// selected columns after id for statements that return rows of a schema.
type Statement struct {
	SQL     string
	Args    []any
	Columns []Column
}

// Synthesizer generates statements for one dialect.
type Synthesizer struct {
	d dialect.Dialect
}

// New returns a synthesizer for d.
func New(d dialect.Dialect) *Synthesizer {
	return &Synthesizer{d: d}
}

// CreateTable declares the table of s with an auto-assigned id.
func (g *Synthesizer) CreateTable(s *types.Schema) (Statement, error) {
	cols := Introspect(s)
	defs := make([]string, 0, len(cols)+1)
	defs = append(defs, g.d.PrimaryKey())
	for _, c := range cols {
		typ, err := c.Field.SQLType(g.d)
		if err != nil {
			return Statement{}, fmt.Errorf("create table %s: %w", s.Table(), err)
		}
		defs = append(defs, c.Name+" "+typ)
	}
	return Statement{
		SQL: "CREATE TABLE IF NOT EXISTS " + s.Table() + " (" + strings.Join(defs, ", ") + ")",
	}, nil
}

// Insert writes every field of r. Unset fields are inserted as NULL.
// A foreign key holding an unsaved record fails with ErrUnboundForeignKey.
func (g *Synthesizer) Insert(r *types.Record) (Statement, error) {
	s := r.Schema()
	cols := Introspect(s)

	var sql string
	args := make([]any, 0, len(cols))
	if len(cols) == 0 {
		sql = g.d.EmptyInsert(s.Table())
	} else {
		names := make([]string, len(cols))
		marks := make([]string, len(cols))
		for i, c := range cols {
			v, err := storedValue(r, c)
			if err != nil {
				return Statement{}, err
			}
			names[i] = c.Name
			marks[i] = g.d.Placeholder(i + 1)
			args = append(args, v)
		}
		sql = "INSERT INTO " + s.Table() + " (" + strings.Join(names, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")"
	}
	if g.d.ReturningID() {
		sql += " RETURNING " + types.IDField
	}
	return Statement{SQL: sql, Args: args}, nil
}

// SelectAll reads every row of s.
func (g *Synthesizer) SelectAll(s *types.Schema) Statement {
	cols := Introspect(s)
	return Statement{SQL: selectFrom(s, cols), Columns: cols}
}

// SelectByID reads the row of s with the given id.
func (g *Synthesizer) SelectByID(s *types.Schema, id int64) Statement {
	cols := Introspect(s)
	return Statement{
		SQL:     selectFrom(s, cols) + " WHERE " + types.IDField + " = " + g.d.Placeholder(1),
		Args:    []any{id},
		Columns: cols,
	}
}

// Update rewrites every field of a saved record.
func (g *Synthesizer) Update(r *types.Record) (Statement, error) {
	s := r.Schema()
	id, ok := r.ID()
	if !ok {
		return Statement{}, fmt.Errorf("update %s: %w", s.Table(), types.ErrUnboundInstance)
	}
	cols := Introspect(s)

	sets := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, c := range cols {
		v, err := storedValue(r, c)
		if err != nil {
			return Statement{}, err
		}
		sets = append(sets, c.Name+" = "+g.d.Placeholder(i+1))
		args = append(args, v)
	}
	if len(sets) == 0 {
		sets = append(sets, types.IDField+" = "+types.IDField)
	}
	args = append(args, id)

	return Statement{
		SQL:  "UPDATE " + s.Table() + " SET " + strings.Join(sets, ", ") + " WHERE " + types.IDField + " = " + g.d.Placeholder(len(args)),
		Args: args,
	}, nil
}

// Delete removes the row of s with the given id.
func (g *Synthesizer) Delete(s *types.Schema, id int64) Statement {
	return Statement{
		SQL:  "DELETE FROM " + s.Table() + " WHERE " + types.IDField + " = " + g.d.Placeholder(1),
		Args: []any{id},
	}
}

// Query reads the rows of s matching filters, conditions joined by AND in
// declaration order with id first. A limit <= 0 means no limit.
func (g *Synthesizer) Query(s *types.Schema, filters types.Filters, limit int) (Statement, error) {
	if err := checkFilterKeys(s, filters); err != nil {
		return Statement{}, err
	}
	cols := Introspect(s)

	var (
		conds []string
		args  []any
	)
	add := func(col, op string, v any) {
		args = append(args, v)
		conds = append(conds, col+" "+op+" "+g.d.Placeholder(len(args)))
	}

	if v, ok := filters[types.IDField]; ok {
		if v == nil {
			conds = append(conds, types.IDField+" IS NULL")
		} else {
			id, err := types.Normalize(types.TypeInteger, v)
			if err != nil {
				return Statement{}, fmt.Errorf("query %s.%s: %w", s.Table(), types.IDField, err)
			}
			add(types.IDField, "=", id)
		}
	}

	for _, c := range cols {
		v, ok := filters[c.Field.Name]
		if !ok {
			continue
		}
		if v == nil {
			conds = append(conds, c.Name+" IS NULL")
			continue
		}
		switch c.Field.Kind {
		case types.KindColumn:
			if str, isText := v.(string); isText && c.Field.Type == types.TypeText && strings.Contains(str, types.Wildcard) {
				add(c.Name, "LIKE", str)
				continue
			}
			nv, err := types.Normalize(c.Field.Type, v)
			if err != nil {
				return Statement{}, fmt.Errorf("query %s.%s: %w", s.Table(), c.Field.Name, err)
			}
			add(c.Name, "=", nv)
		case types.KindForeignKey:
			id, err := filterID(s, c, v)
			if err != nil {
				return Statement{}, err
			}
			add(c.Name, "=", id)
		}
	}

	sql := selectFrom(s, cols)
	if len(conds) > 0 {
		sql += " WHERE " + strings.Join(conds, " AND ")
	}
	if limit > 0 {
		sql += " LIMIT " + strconv.Itoa(limit)
	}
	return Statement{SQL: sql, Args: args, Columns: cols}, nil
}

// Tables lists the backend's user tables.
func (g *Synthesizer) Tables() Statement {
	return Statement{SQL: g.d.TablesQuery()}
}

func selectFrom(s *types.Schema, cols []Column) string {
	names := make([]string, 0, len(cols)+1)
	names = append(names, types.IDField)
	for _, c := range cols {
		names = append(names, c.Name)
	}
	return "SELECT " + strings.Join(names, ", ") + " FROM " + s.Table()
}

// storedValue returns the bind value for column c of r.
func storedValue(r *types.Record, c Column) (any, error) {
	switch c.Field.Kind {
	case types.KindForeignKey:
		ref := r.Ref(c.Field.Name)
		if ref == nil {
			return nil, nil
		}
		id, ok := ref.ID()
		if !ok {
			return nil, fmt.Errorf("%s.%s: %w", r.Schema().Name(), c.Field.Name, types.ErrUnboundForeignKey)
		}
		return id, nil
	default:
		return r.Get(c.Field.Name), nil
	}
}

func filterID(s *types.Schema, c Column, v any) (int64, error) {
	if ref, ok := v.(*types.Record); ok {
		if ref.Schema() != c.Field.Ref {
			return 0, fmt.Errorf("query %s.%s: %w", s.Table(), c.Field.Name, types.ErrSchemaMismatch)
		}
		id, bound := ref.ID()
		if !bound {
			return 0, fmt.Errorf("query %s.%s: %w", s.Table(), c.Field.Name, types.ErrUnboundForeignKey)
		}
		return id, nil
	}
	id, err := types.Normalize(types.TypeInteger, v)
	if err != nil {
		return 0, fmt.Errorf("query %s.%s: %w", s.Table(), c.Field.Name, err)
	}
	return id.(int64), nil
}

func checkFilterKeys(s *types.Schema, filters types.Filters) error {
	var unknown []string
	for name := range filters {
		if name == types.IDField {
			continue
		}
		if _, ok := s.Field(name); !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("query %s: %w: %s", s.Table(), types.ErrUnknownField, strings.Join(unknown, ", "))
}
