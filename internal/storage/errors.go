package storage

import "errors"

// Storage errors shared by every Store implementation.
var (
	// ErrNotFound is returned when a requested draft or orb does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when creating a record whose id is taken.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
