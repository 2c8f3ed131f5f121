package forecast

import (
	"errors"
	"fmt"
)

// ErrInvalidInput matches every InputError via errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// InputError reports a request the caller must fix. It maps to HTTP 400.
type InputError struct {
	// Field is the offending field, e.g. "historical[2]" or "periods".
	Field string
	Msg   string
}

func (e *InputError) Error() string {
	return e.Msg
}

// Is reports ErrInvalidInput as a match.
func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func inputErrorf(field, format string, args ...any) error {
	return &InputError{Field: field, Msg: fmt.Sprintf(format, args...)}
}
