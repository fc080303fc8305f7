package override

import (
	"errors"
	"fmt"
)

// Domain errors for the override package.
var (
	// ErrConfiguration is returned for a malformed override record or file.
	// It is scoped to the offending record; other records still apply.
	ErrConfiguration = errors.New("override: configuration error")

	// ErrNotRebindable is returned when a record targets a binding that the
	// schema marks as not rebindable.
	ErrNotRebindable = errors.New("override: binding is not rebindable")
)

// RecordError reports a failure scoped to one override record.
type RecordError struct {
	Action string
	Map    string
	Index  string
	Err    error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("override %s/%s[%s]: %v", e.Map, e.Action, e.Index, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
