package repository

import "errors"

var (
	// ErrNotFound is returned when no record matches the lookup, including
	// compare-and-set updates whose state assertion did not hold.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEmail is returned when an insert or update would violate
	// the unique email index.
	ErrDuplicateEmail = errors.New("email already registered")
)
