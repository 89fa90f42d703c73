package gentypes

import (
	"errors"
	"fmt"

	"github.com/lytics/qlpredicate/predicate"
)

// ErrUnsupported is returned when a backend has no way to express a
// predicate.
var ErrUnsupported = errors.New("unsupported by backend")

type ErrorMissingField struct {
	err error
}

func (e *ErrorMissingField) Error() string {
	return e.err.Error()
}

// MissingField creates a new ErrorMissingField for the given field. They are
// returned when a predicate can't be translated because a referenced field
// has no backend column.
func MissingField(field string) error {
	return &ErrorMissingField{fmt.Errorf("missing field: %s", field)}
}

// Unsupported wraps ErrUnsupported with the backend and predicate.
func Unsupported(backend string, p predicate.Predicate) error {
	return fmt.Errorf("%s: cannot translate %s: %w", backend, p, ErrUnsupported)
}
