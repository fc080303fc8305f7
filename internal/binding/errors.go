package binding

import "errors"

// Domain errors for the binding package.
var (
	// ErrInvalidSchema is returned when the schema file fails validation.
	ErrInvalidSchema = errors.New("binding: invalid schema")

	// ErrEmptyComposite is returned when a composite marker is not followed
	// by at least one part-of-composite binding.
	ErrEmptyComposite = errors.New("binding: composite has no parts")

	// ErrMapNotFound is returned when an action map name does not exist.
	ErrMapNotFound = errors.New("binding: action map not found")

	// ErrActionNotFound is returned when an action does not exist in the
	// requested map (or in any map when no map is given).
	ErrActionNotFound = errors.New("binding: action not found")

	// ErrPartNotFound is returned when a binding index does not address a
	// part of the action.
	ErrPartNotFound = errors.New("binding: binding index not found")
)
