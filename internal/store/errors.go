package store

import "errors"

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateKey   = errors.New("already exists")
	// ErrStaleVersion is returned when a versioned update matched no row.
	ErrStaleVersion = errors.New("record version is stale")
)
