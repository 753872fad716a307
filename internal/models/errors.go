package models

import (
	"errors"
	"fmt"
)

// ErrInvalid matches every input validation failure via errors.Is.
var ErrInvalid = errors.New("invalid input")

// ValidationError describes why a value was rejected.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

// Is reports whether target is ErrInvalid.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalid }

func invalidf(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}
