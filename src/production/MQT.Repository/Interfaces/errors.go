package interfaces

import "errors"

var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when an insert violates a unique constraint
	ErrDuplicate = errors.New("duplicate key")

	// ErrNoRowsAffected is returned when a write that must touch rows touched none
	ErrNoRowsAffected = errors.New("no rows affected")
)
