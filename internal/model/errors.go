package model

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyName     = errors.New("task name is required")
	ErrNoTasksParsed = errors.New("no tasks found in import")
)

// ValidationError rejects caller input before any state is touched.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e ValidationError) Unwrap() error { return e.Err }

func Invalid(field, reason string) error {
	return ValidationError{Field: field, Reason: reason}
}

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}

func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}
