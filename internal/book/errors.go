package book

import (
	"errors"
	"fmt"
)

// Error kinds. Every *Error unwraps to exactly one of them.
var (
	ErrValidation           = errors.New("validation failed")
	ErrUnknownFieldKind     = errors.New("unknown field kind")
	ErrDuplicateUniqueField = errors.New("duplicate unique field")
	ErrMissingArgument      = errors.New("missing argument")
	ErrInvalidName          = errors.New("invalid name")
	ErrNameCollision        = errors.New("name collision")
	ErrBadPattern           = errors.New("bad pattern")
	ErrAmbiguousTarget      = errors.New("ambiguous target")
	ErrUnknownName          = errors.New("unknown name")
)

// Scopes name the component that raised an Error.
const (
	ScopePhone       = "Phone"
	ScopeBirthday    = "Birthday"
	ScopeRecord      = "Record"
	ScopeAddressBook = "AddressBook"
	ScopeChange      = "Change"
)

// Error is a recoverable failure of a core operation.
// The command layer renders it as "<Scope> Error: <Reason>".
type Error struct {
	Scope  string
	Kind   error
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Scope, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(scope string, kind error, format string, args ...any) *Error {
	return &Error{Scope: scope, Kind: kind, Reason: fmt.Sprintf(format, args...)}
}
