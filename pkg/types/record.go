package types

import (
	"bytes"
	"fmt"
)

// Values maps field names to values when building a record.
type Values map[string]any

// Record is one instance of a schema: an optional id plus one value per
// declared field. The id is absent until the record is saved and never
// changes afterwards.
type Record struct {
	schema *Schema
	id     int64
	bound  bool
	values map[string]any
}

// NewRecord builds a record of s with the given field values.
func NewRecord(s *Schema, values Values) (*Record, error) {
	r := &Record{schema: s, values: make(map[string]any, len(s.fields))}
	for _, f := range s.fields {
		v, ok := values[f.Name]
		if !ok {
			continue
		}
		if err := r.Set(f.Name, v); err != nil {
			return nil, err
		}
	}
	for name := range values {
		if _, ok := s.index[name]; !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, s.name, name)
		}
	}
	return r, nil
}

// MustRecord is like NewRecord but panics on error.
func MustRecord(s *Schema, values Values) *Record {
	r, err := NewRecord(s, values)
	if err != nil {
		panic(err)
	}
	return r
}

// Schema returns the record's schema.
func (r *Record) Schema() *Schema { return r.schema }

// ID returns the backend-assigned id and whether one has been assigned.
func (r *Record) ID() (int64, bool) { return r.id, r.bound }

// AssignID binds the backend-assigned id. It fails if an id is already set.
func (r *Record) AssignID(id int64) error {
	if r.bound {
		return fmt.Errorf("%w: %s id %d", ErrIDAssigned, r.schema.name, r.id)
	}
	if id <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	r.id = id
	r.bound = true
	return nil
}

// Set assigns a field. Column values are normalized to their canonical Go
// type; foreign key values must be records of the referenced schema. A nil
// value clears the field.
func (r *Record) Set(name string, v any) error {
	f, ok := r.schema.Field(name)
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownField, r.schema.name, name)
	}
	if v == nil {
		delete(r.values, name)
		return nil
	}

	switch f.Kind {
	case KindColumn:
		nv, err := Normalize(f.Type, v)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", r.schema.name, name, err)
		}
		r.values[name] = nv
	case KindForeignKey:
		ref, ok := v.(*Record)
		if !ok {
			return fmt.Errorf("%s.%s: %w: %T is not a record", r.schema.name, name, ErrTypeMismatch, v)
		}
		if ref == nil {
			delete(r.values, name)
			return nil
		}
		if ref.schema != f.Ref {
			return fmt.Errorf("%s.%s: %w: got %s, want %s", r.schema.name, name, ErrSchemaMismatch, ref.schema.name, f.Ref.name)
		}
		r.values[name] = ref
	}
	return nil
}

// Get returns the value of a field, or nil if it is unset.
func (r *Record) Get(name string) any { return r.values[name] }

// Int returns an integer field, or 0.
func (r *Record) Int(name string) int64 {
	v, _ := r.values[name].(int64)
	return v
}

// Float returns a real field, or 0.
func (r *Record) Float(name string) float64 {
	v, _ := r.values[name].(float64)
	return v
}

// String returns a text field, or "".
func (r *Record) String(name string) string {
	v, _ := r.values[name].(string)
	return v
}

// Bytes returns a binary field, or nil.
func (r *Record) Bytes(name string) []byte {
	v, _ := r.values[name].([]byte)
	return v
}

// Bool returns a boolean field, or false.
func (r *Record) Bool(name string) bool {
	v, _ := r.values[name].(bool)
	return v
}

// Ref returns a foreign key field, or nil.
func (r *Record) Ref(name string) *Record {
	v, _ := r.values[name].(*Record)
	return v
}

// Values returns a shallow copy of the set fields.
func (r *Record) Values() Values {
	out := make(Values, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// Clone returns a deep copy, including referenced records. Records loaded
// by a Gateway are trees; Clone and Equal do not terminate on records
// linked into a cycle in memory.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := &Record{schema: r.schema, id: r.id, bound: r.bound, values: make(map[string]any, len(r.values))}
	for k, v := range r.values {
		switch x := v.(type) {
		case []byte:
			c.values[k] = append([]byte(nil), x...)
		case *Record:
			c.values[k] = x.Clone()
		default:
			c.values[k] = v
		}
	}
	return c
}

// Equal reports whether r and o hold the same schema, id and field values.
// Referenced records are compared by value.
func (r *Record) Equal(o *Record) bool {
	if r == nil || o == nil {
		return r == o
	}
	if r.schema != o.schema || r.bound != o.bound || r.id != o.id {
		return false
	}
	for _, f := range r.schema.fields {
		a, b := r.values[f.Name], o.values[f.Name]
		switch x := a.(type) {
		case []byte:
			y, ok := b.([]byte)
			if !ok || !bytes.Equal(x, y) {
				return false
			}
		case *Record:
			y, ok := b.(*Record)
			if !ok || !x.Equal(y) {
				return false
			}
		default:
			if a != b {
				return false
			}
		}
	}
	return true
}
