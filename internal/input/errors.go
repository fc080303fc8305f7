package input

import "errors"

// Domain errors for the input package.
var (
	// ErrUnsupportedOperation is returned when an action is read through an
	// API its declared kind does not support, e.g. ReadButton on a value
	// action.
	ErrUnsupportedOperation = errors.New("input: unsupported operation")

	// ErrNotReady is returned by mutating operations called before the
	// handler reached Ready.
	ErrNotReady = errors.New("input: not ready")

	// ErrAlreadyInitialised is returned when Initialise is called twice.
	ErrAlreadyInitialised = errors.New("input: already initialised")

	// ErrInvalidOptions is returned by New for missing collaborators.
	ErrInvalidOptions = errors.New("input: invalid options")
)
