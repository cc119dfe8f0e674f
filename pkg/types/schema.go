package types

import (
	"fmt"
	"regexp"
	"strings"
)

// IDField is the implicit primary key present on every schema.
const IDField = "id"

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Schema is an immutable, ordered set of fields backed by one table.
// Field order is the declaration order and drives column order in every
// generated statement.
type Schema struct {
	name   string
	fields []Field
	index  map[string]int
}

// NewSchema validates and builds a schema.
func NewSchema(name string, fields ...Field) (*Schema, error) {
	if !identifier.MatchString(name) {
		return nil, fmt.Errorf("%w: schema name %q is not an identifier", ErrInvalidSchema, name)
	}

	s := &Schema{
		name:   name,
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	columns := map[string]string{IDField: IDField}

	for _, f := range fields {
		if !identifier.MatchString(f.Name) {
			return nil, fmt.Errorf("%w: %s: field name %q is not an identifier", ErrInvalidSchema, name, f.Name)
		}
		if strings.EqualFold(f.Name, IDField) {
			return nil, fmt.Errorf("%w: %s: field name %q is reserved", ErrInvalidSchema, name, f.Name)
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate field %q", ErrInvalidSchema, name, f.Name)
		}

		switch f.Kind {
		case KindColumn:
			if !f.Type.Valid() {
				return nil, fmt.Errorf("%w: %s.%s: %v", ErrUnsupportedType, name, f.Name, f.Type)
			}
			f.Ref = nil
		case KindForeignKey:
			if f.self {
				f.Ref = s
			}
			if f.Ref == nil {
				return nil, fmt.Errorf("%w: %s.%s: foreign key without a referenced schema", ErrInvalidSchema, name, f.Name)
			}
			f.Type = 0
		default:
			return nil, fmt.Errorf("%w: %s.%s: unknown field kind", ErrInvalidSchema, name, f.Name)
		}

		col := strings.ToLower(f.ColumnName())
		if other, clash := columns[col]; clash {
			return nil, fmt.Errorf("%w: %s: column %q of field %q collides with %q", ErrInvalidSchema, name, col, f.Name, other)
		}
		columns[col] = f.Name

		s.index[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on error. It is intended for
// package-level schema declarations.
func MustSchema(name string, fields ...Field) *Schema {
	s, err := NewSchema(name, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the declared schema name.
func (s *Schema) Name() string { return s.name }

// Table returns the backing table name, the lower-cased schema name.
func (s *Schema) Table() string { return strings.ToLower(s.name) }

// Fields returns the declared fields in declaration order. The id field is
// not included.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field returns the field called name.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

func (s *Schema) String() string { return s.name }
