package types

import "fmt"

// SemanticType is the primitive type of a column, independent of backend.
type SemanticType int

const (
	TypeInteger SemanticType = iota + 1
	TypeReal
	TypeText
	TypeBinary
	TypeBoolean
)

var semanticTypeNames = map[SemanticType]string{
	TypeInteger: "integer",
	TypeReal:    "real",
	TypeText:    "text",
	TypeBinary:  "binary",
	TypeBoolean: "boolean",
}

func (t SemanticType) String() string {
	if name, ok := semanticTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("SemanticType(%d)", int(t))
}

// Valid reports whether t is one of the supported semantic types.
func (t SemanticType) Valid() bool {
	_, ok := semanticTypeNames[t]
	return ok
}

// ParseSemanticType returns the semantic type named s.
func ParseSemanticType(s string) (SemanticType, error) {
	for t, name := range semanticTypeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedType, s)
}

// TypeMapper maps semantic types to backend column type names.
type TypeMapper interface {
	TypeName(t SemanticType) (string, error)
}

// FieldKind tags the variant held by a Field.
type FieldKind int

const (
	KindColumn FieldKind = iota + 1
	KindForeignKey
)

// ForeignKeySuffix is appended to a foreign key field name to form its
// storage column.
const ForeignKeySuffix = "_fk"

// foreignKeyColumnType is the storage type of every foreign key column.
const foreignKeyColumnType = "INTEGER"

// Field describes one declared attribute of a schema. Exactly one of Type
// (for KindColumn) or Ref (for KindForeignKey) is meaningful.
type Field struct {
	Name string
	Kind FieldKind
	Type SemanticType
	Ref  *Schema

	self bool
}

// Column declares a primitive-typed field.
func Column(name string, t SemanticType) Field {
	return Field{Name: name, Kind: KindColumn, Type: t}
}

// ForeignKey declares a field holding a record of schema ref.
func ForeignKey(name string, ref *Schema) Field {
	return Field{Name: name, Kind: KindForeignKey, Ref: ref}
}

// SelfForeignKey declares a foreign key to the schema it is declared on.
func SelfForeignKey(name string) Field {
	return Field{Name: name, Kind: KindForeignKey, self: true}
}

// ColumnName returns the storage column backing the field.
func (f Field) ColumnName() string {
	if f.Kind == KindForeignKey {
		return f.Name + ForeignKeySuffix
	}
	return f.Name
}

// SQLType returns the backend column type for the field.
func (f Field) SQLType(m TypeMapper) (string, error) {
	switch f.Kind {
	case KindColumn:
		return m.TypeName(f.Type)
	case KindForeignKey:
		return foreignKeyColumnType, nil
	default:
		return "", fmt.Errorf("%w: field %s has no kind", ErrInvalidSchema, f.Name)
	}
}
