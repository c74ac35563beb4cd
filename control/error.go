package control

import "fmt"

type constError string

const (
	// ErrFlowNotFound is returned when no live flow has the identifier.
	ErrFlowNotFound = constError("flow not found")
	// ErrInvalidFlow is returned for flows that cannot be probed.
	ErrInvalidFlow = constError("invalid flow")
	// ErrInvalidQuery is returned for malformed list queries.
	ErrInvalidQuery = constError("invalid query")
	// ErrUnknownCommand is reported for unrecognized command types.
	ErrUnknownCommand = constError("unknown command")
)

func (errStr constError) Error() string { return string(errStr) }

func notFoundError(id string) error {
	return fmt.Errorf("%w: %q", ErrFlowNotFound, id)
}

func invalidFlowError(id string, err error) error {
	return fmt.Errorf("%w %q: %w", ErrInvalidFlow, id, err)
}
