package extensions

import "errors"

var (
	// ErrExtensionNotFound is returned when no extension is registered under a name
	ErrExtensionNotFound = errors.New("extension not found")

	// ErrExtensionAlreadyRegistered is returned when a name is registered twice
	ErrExtensionAlreadyRegistered = errors.New("extension already registered")

	// ErrExtensionLoadFailed is returned when an extension cannot be registered or started
	ErrExtensionLoadFailed = errors.New("extension load failed")

	// ErrConfigNotFound is returned when no default config is known for an extension
	ErrConfigNotFound = errors.New("config not found")
)
