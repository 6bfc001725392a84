package storage

import "errors"

var (
	// ErrNotFound is returned when a document has no file
	ErrNotFound = errors.New("document not found")
)
