package types

import (
	"errors"
	"fmt"
)

// Schema definition errors.
var (
	ErrUnsupportedType = errors.New("unsupported semantic type")
	ErrInvalidSchema   = errors.New("invalid schema")
)

// Record errors.
var (
	ErrUnknownField   = errors.New("unknown field")
	ErrTypeMismatch   = errors.New("value does not match field type")
	ErrSchemaMismatch = errors.New("record belongs to a different schema")
	ErrIDAssigned     = errors.New("record id already assigned")
	ErrInvalidID      = errors.New("invalid record id")
)

// Gateway operation errors.
var (
	ErrUnboundForeignKey = errors.New("foreign key references an unsaved record")
	ErrUnboundInstance   = errors.New("record has not been saved")
	ErrNotFound          = errors.New("record not found")
	ErrPersistence       = errors.New("persistence failure")
	ErrResolutionDepth   = errors.New("foreign key resolution too deep")
)

// PersistenceKind classifies a backend failure.
type PersistenceKind int

const (
	KindOther PersistenceKind = iota
	KindConstraint
	KindConnection
)

func (k PersistenceKind) String() string {
	switch k {
	case KindConstraint:
		return "constraint"
	case KindConnection:
		return "connection"
	default:
		return "other"
	}
}

// PersistenceError reports a statement the backend rejected. It matches
// ErrPersistence with errors.Is and unwraps to the driver error.
type PersistenceError struct {
	Op    string
	Table string
	Kind  PersistenceKind
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %s failure: %v", e.Op, e.Table, e.Kind, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Is reports whether target is ErrPersistence.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
