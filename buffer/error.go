package buffer

import "fmt"

type constError string

const (
	// ErrInvalidGeometry may be returned from [NewArena].
	ErrInvalidGeometry = constError("invalid arena geometry")
	// ErrArenaExhausted is returned from [Arena.Acquire]
	// when every frame is in use.
	ErrArenaExhausted = constError("arena exhausted")
	// ErrFrameTooSmall is returned from [Arena.Acquire]
	// when a packet does not fit in one frame.
	ErrFrameTooSmall = constError("packet exceeds frame size")
	// ErrArenaClosed is returned from [Arena.Acquire] after [Arena.Close].
	ErrArenaClosed = constError("arena closed")
)

func (errStr constError) Error() string { return string(errStr) }

func geometryError(frames, frameSize int) error {
	return fmt.Errorf(
		"%w: frames and frame size must be >0 but got %d×%d",
		ErrInvalidGeometry, frames, frameSize)
}

func frameSizeError(packetSize, frameSize int) error {
	return fmt.Errorf(
		"%w: %d > %d",
		ErrFrameTooSmall, packetSize, frameSize)
}
