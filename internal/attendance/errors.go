package attendance

import "errors"

var (
	// ErrValidation is returned when a registration field fails validation.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateEntry is returned when an entry id is already registered.
	ErrDuplicateEntry = errors.New("already registered")
	// ErrNotFound is returned when a scan references an unknown entry id.
	ErrNotFound = errors.New("not registered")
)
