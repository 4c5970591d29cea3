package store

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when the unique email constraint is violated.
var ErrDuplicateEmail = errors.New("email already in use")
