package omniverlay

import "errors"

var (
	// ErrBackendInitialization is returned when startup cannot load the
	// default profile or layout
	ErrBackendInitialization = errors.New("backend initialization failed")
)
