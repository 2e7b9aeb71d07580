package demangle

import (
	"errors"
	"fmt"
)

// ErrNotASymbol is returned for names that are not entry points this
// package decodes. It is not a failure.
var ErrNotASymbol = errors.New("demangle: not a decodable symbol")

var (
	ErrUnexpectedEnd   = errors.New("unexpected end of mangled name")
	ErrUnexpectedChar  = errors.New("unexpected character")
	ErrInvalidOperator = errors.New("invalid operator character")
	ErrBadSubstitution = errors.New("bad substitution reference")
	ErrTrailing        = errors.New("trailing characters after symbol")
	ErrUnknownType     = errors.New("unknown type production")
	ErrNumberOverflow  = errors.New("number too large")
)

// Error reports where in Symbol decoding failed.
type Error struct {
	Symbol string
	Pos    int
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("demangle %q: %v at offset %d", e.Symbol, e.Err, e.Pos)
}

func (e *Error) Unwrap() error { return e.Err }
