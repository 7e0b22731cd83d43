package abi

import (
	"errors"
	"fmt"
)

// ErrMissingField is matched by a MissingFieldError.
var ErrMissingField = errors.New("abi: missing tuple field")

// MissingFieldError reports a mapping tuple value that lacks a declared
// component.
type MissingFieldError struct {
	Tuple string
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("abi: value for %s has no field %q", e.Tuple, e.Field)
}

func (e *MissingFieldError) Is(target error) bool { return target == ErrMissingField }
