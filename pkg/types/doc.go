// Package types defines record schemas, field descriptors, records, the
// Gateway interface, configuration, and the standard error values shared by
// every shelf backend.
//
// A schema is declared once, as an explicit ordered list of fields:
//
//	author := types.MustSchema("Author",
//	    types.Column("name", types.TypeText),
//	    types.Column("age", types.TypeInteger),
//	)
//	book := types.MustSchema("Book",
//	    types.Column("title", types.TypeText),
//	    types.Column("published", types.TypeBoolean),
//	    types.ForeignKey("author", author),
//	)
//
// Records are created against a schema and persisted through a Gateway.
package types
