package schemafile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/shelf/pkg/types"
)

const library = `
schemas:
  - name: Author
    fields:
      - {name: name, type: text}
      - {name: age, type: integer}
  - name: Book
    fields:
      - {name: title, type: text}
      - {name: cover, type: binary}
      - {name: author, ref: Author}
  - name: Category
    fields:
      - {name: label, type: text}
      - {name: parent, ref: Category}
`

func TestLoad(t *testing.T) {
	set, err := Load(strings.NewReader(library))
	require.NoError(t, err)

	schemas := set.Schemas()
	require.Len(t, schemas, 3)
	assert.Equal(t, "Author", schemas[0].Name())
	assert.Equal(t, "Book", schemas[1].Name())

	author, ok := set.Lookup("Author")
	require.True(t, ok)
	book, ok := set.Lookup("Book")
	require.True(t, ok)

	f, ok := book.Field("author")
	require.True(t, ok)
	assert.Equal(t, types.KindForeignKey, f.Kind)
	assert.Same(t, author, f.Ref)

	f, ok = book.Field("cover")
	require.True(t, ok)
	assert.Equal(t, types.TypeBinary, f.Type)

	category, _ := set.Lookup("Category")
	f, ok = category.Field("parent")
	require.True(t, ok)
	assert.Same(t, category, f.Ref)

	_, ok = set.Lookup("Missing")
	assert.False(t, ok)
}

func TestLoadEmpty(t *testing.T) {
	set, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, set.Schemas())
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{
			name:    "forward reference",
			doc:     "schemas:\n  - name: Book\n    fields:\n      - {name: author, ref: Author}\n",
			wantErr: types.ErrInvalidSchema,
		},
		{
			name:    "unknown type",
			doc:     "schemas:\n  - name: A\n    fields:\n      - {name: x, type: decimal}\n",
			wantErr: types.ErrUnsupportedType,
		},
		{
			name:    "type and ref",
			doc:     "schemas:\n  - name: A\n    fields:\n      - {name: x, type: text, ref: A}\n",
			wantErr: types.ErrInvalidSchema,
		},
		{
			name:    "neither type nor ref",
			doc:     "schemas:\n  - name: A\n    fields:\n      - {name: x}\n",
			wantErr: types.ErrInvalidSchema,
		},
		{
			name:    "duplicate schema",
			doc:     "schemas:\n  - name: A\n  - name: A\n",
			wantErr: types.ErrInvalidSchema,
		},
		{
			name:    "reserved field",
			doc:     "schemas:\n  - name: A\n    fields:\n      - {name: id, type: integer}\n",
			wantErr: types.ErrInvalidSchema,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.doc))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(strings.NewReader("schemas:\n  - name: A\n    colour: red\n"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schemas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(library), 0o644))

	set, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, set.Schemas(), 3)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
