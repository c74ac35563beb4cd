package flowpool

import "fmt"

type constError string

const (
	// ErrNilPolicy may be returned from [New].
	ErrNilPolicy = constError("nil release policy")
	// ErrInvalidSizeHint may be returned from [New].
	ErrInvalidSizeHint = constError("invalid size hint")
	// ErrDuplicateFlow is returned from [Pool.Insert]
	// when the identifier already owns a live entry.
	// The rejected value was not taken by the pool.
	ErrDuplicateFlow = constError("duplicate flow")
)

func (errStr constError) Error() string { return string(errStr) }

func sizeHintError(sizeHint int) error {
	return fmt.Errorf(
		"%w: must be >=0 but %d was requested",
		ErrInvalidSizeHint, sizeHint)
}

func duplicateError(id string) error {
	return fmt.Errorf("%w: %q", ErrDuplicateFlow, id)
}
