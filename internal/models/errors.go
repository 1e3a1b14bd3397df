package models

import (
	"errors"
	"fmt"
)

var (
	// ErrPersistence matches any *PersistenceError via errors.Is.
	ErrPersistence = errors.New("persistence failure")
	// ErrInvalidInput marks malformed values such as negative weight or an empty name.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound marks a lookup that matched nothing.
	ErrNotFound = errors.New("not found")
)

// PersistenceError wraps a failure from the history or routine backend.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrPersistence) succeed for every PersistenceError.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// Persistence wraps err as a *PersistenceError, or returns nil for a nil err.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}
