package data

import "errors"

var (
	// ErrDataNotFound is returned when no document file exists for a name
	ErrDataNotFound = errors.New("data not found")

	// ErrDataExists is returned when creating a document whose file already exists
	ErrDataExists = errors.New("data already exists")

	// ErrInvalidName is returned for names that cannot be used as a file stem
	ErrInvalidName = errors.New("invalid data name")
)
