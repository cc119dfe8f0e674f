package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchemas(t *testing.T) (author, book *Schema) {
	t.Helper()
	author = MustSchema("Author",
		Column("name", TypeText),
		Column("age", TypeInteger),
	)
	book = MustSchema("Book",
		Column("title", TypeText),
		Column("published", TypeBoolean),
		ForeignKey("author", author),
	)
	return author, book
}

func TestNewSchema(t *testing.T) {
	author, book := testSchemas(t)

	assert.Equal(t, "Author", author.Name())
	assert.Equal(t, "author", author.Table())
	assert.Equal(t, "book", book.Table())

	fields := book.Fields()
	require.Len(t, fields, 3)
	assert.Equal(t, "title", fields[0].Name)
	assert.Equal(t, "published", fields[1].Name)
	assert.Equal(t, "author", fields[2].Name)
	assert.Equal(t, KindForeignKey, fields[2].Kind)
	assert.Same(t, author, fields[2].Ref)
	assert.Equal(t, "author_fk", fields[2].ColumnName())
	assert.Equal(t, "title", fields[0].ColumnName())

	f, ok := author.Field("age")
	require.True(t, ok)
	assert.Equal(t, TypeInteger, f.Type)
	_, ok = author.Field("id")
	assert.False(t, ok)
}

func TestFieldsReturnsCopy(t *testing.T) {
	author, _ := testSchemas(t)

	fields := author.Fields()
	fields[0].Name = "changed"

	assert.Equal(t, "name", author.Fields()[0].Name)
}

func TestNewSchemaErrors(t *testing.T) {
	author, _ := testSchemas(t)

	tests := []struct {
		name    string
		schema  string
		fields  []Field
		wantErr error
	}{
		{"bad schema name", "my table", nil, ErrInvalidSchema},
		{"empty schema name", "", nil, ErrInvalidSchema},
		{"bad field name", "T", []Field{Column("a-b", TypeText)}, ErrInvalidSchema},
		{"reserved id", "T", []Field{Column("id", TypeInteger)}, ErrInvalidSchema},
		{"reserved ID any case", "T", []Field{Column("ID", TypeInteger)}, ErrInvalidSchema},
		{"duplicate field", "T", []Field{Column("a", TypeText), Column("a", TypeInteger)}, ErrInvalidSchema},
		{"unsupported type", "T", []Field{Column("a", SemanticType(42))}, ErrUnsupportedType},
		{"zero type", "T", []Field{{Name: "a", Kind: KindColumn}}, ErrUnsupportedType},
		{"nil reference", "T", []Field{ForeignKey("a", nil)}, ErrInvalidSchema},
		{"no kind", "T", []Field{{Name: "a"}}, ErrInvalidSchema},
		{
			"storage column collision",
			"T",
			[]Field{ForeignKey("author", author), Column("author_fk", TypeInteger)},
			ErrInvalidSchema,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSchema(tt.schema, tt.fields...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestMustSchemaPanics(t *testing.T) {
	assert.Panics(t, func() { MustSchema("bad name") })
}

func TestSelfForeignKey(t *testing.T) {
	employee := MustSchema("Employee",
		Column("name", TypeText),
		SelfForeignKey("manager"),
	)

	f, ok := employee.Field("manager")
	require.True(t, ok)
	assert.Same(t, employee, f.Ref)
	assert.Equal(t, "manager_fk", f.ColumnName())
}

type fixedMapper map[SemanticType]string

func (m fixedMapper) TypeName(t SemanticType) (string, error) {
	name, ok := m[t]
	if !ok {
		return "", ErrUnsupportedType
	}
	return name, nil
}

func TestFieldSQLType(t *testing.T) {
	author, _ := testSchemas(t)
	m := fixedMapper{TypeText: "TEXT", TypeInteger: "INTEGER"}

	got, err := Column("name", TypeText).SQLType(m)
	require.NoError(t, err)
	assert.Equal(t, "TEXT", got)

	got, err = ForeignKey("author", author).SQLType(m)
	require.NoError(t, err)
	assert.Equal(t, "INTEGER", got)

	_, err = Column("blob", TypeBinary).SQLType(m)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestParseSemanticType(t *testing.T) {
	for _, typ := range []SemanticType{TypeInteger, TypeReal, TypeText, TypeBinary, TypeBoolean} {
		got, err := ParseSemanticType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, got)
	}

	_, err := ParseSemanticType("decimal")
	assert.ErrorIs(t, err, ErrUnsupportedType)
	assert.False(t, SemanticType(0).Valid())
	assert.Equal(t, "SemanticType(9)", SemanticType(9).String())
}
