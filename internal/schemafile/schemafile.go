// Package schemafile declares schemas in YAML.
//
//	schemas:
//	  - name: Author
//	    fields:
//	      - {name: name, type: text}
//	      - {name: age, type: integer}
//	  - name: Book
//	    fields:
//	      - {name: title, type: text}
//	      - {name: author, ref: Author}
//
// A field carries either a type or a ref. A ref names a schema declared
// earlier in the file, or the schema itself.
package schemafile

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/shelf/pkg/types"
)

type fileDoc struct {
	Schemas []schemaDoc `yaml:"schemas"`
}

type schemaDoc struct {
	Name   string     `yaml:"name"`
	Fields []fieldDoc `yaml:"fields"`
}

type fieldDoc struct {
	Name string `yaml:"name"`
	Type string `yaml:"type,omitempty"`
	Ref  string `yaml:"ref,omitempty"`
}

// Set is the ordered collection of schemas declared in one file.
type Set struct {
	schemas []*types.Schema
	byName  map[string]*types.Schema
}

// Schemas returns the schemas in declaration order.
func (s *Set) Schemas() []*types.Schema {
	return append([]*types.Schema(nil), s.schemas...)
}

// Lookup returns the schema with the given name.
func (s *Set) Lookup(name string) (*types.Schema, bool) {
	sc, ok := s.byName[name]
	return sc, ok
}

// LoadFile reads a schema file from disk.
func LoadFile(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open schema file: %w", err)
	}
	defer f.Close()

	set, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// Load parses schema declarations. Unknown keys are rejected.
func Load(r io.Reader) (*Set, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc fileDoc
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode schema file: %w", err)
	}

	set := &Set{byName: make(map[string]*types.Schema, len(doc.Schemas))}
	for _, sd := range doc.Schemas {
		if _, dup := set.byName[sd.Name]; dup {
			return nil, fmt.Errorf("%w: schema %q declared twice", types.ErrInvalidSchema, sd.Name)
		}
		fields := make([]types.Field, 0, len(sd.Fields))
		for _, fd := range sd.Fields {
			f, err := set.field(sd.Name, fd)
			if err != nil {
				return nil, err
			}
			fields = append(fields, f)
		}
		sc, err := types.NewSchema(sd.Name, fields...)
		if err != nil {
			return nil, err
		}
		set.schemas = append(set.schemas, sc)
		set.byName[sd.Name] = sc
	}
	return set, nil
}

func (s *Set) field(schema string, fd fieldDoc) (types.Field, error) {
	switch {
	case fd.Type != "" && fd.Ref != "":
		return types.Field{}, fmt.Errorf("%w: %s.%s: both type and ref given", types.ErrInvalidSchema, schema, fd.Name)
	case fd.Type != "":
		t, err := types.ParseSemanticType(fd.Type)
		if err != nil {
			return types.Field{}, fmt.Errorf("%s.%s: %w", schema, fd.Name, err)
		}
		return types.Column(fd.Name, t), nil
	case fd.Ref == schema:
		return types.SelfForeignKey(fd.Name), nil
	case fd.Ref != "":
		ref, ok := s.byName[fd.Ref]
		if !ok {
			return types.Field{}, fmt.Errorf("%w: %s.%s: unknown schema %q", types.ErrInvalidSchema, schema, fd.Name, fd.Ref)
		}
		return types.ForeignKey(fd.Name, ref), nil
	default:
		return types.Field{}, fmt.Errorf("%w: %s.%s: neither type nor ref given", types.ErrInvalidSchema, schema, fd.Name)
	}
}
