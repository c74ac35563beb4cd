package packet

import "fmt"

type constError string

const (
	// ErrNotIPv4 is returned when an [Endpoint] address is not IPv4.
	ErrNotIPv4 = constError("endpoint address is not IPv4")
	// ErrFlowIDTooLong is returned when a flow identifier
	// is longer than [MaxFlowIDLen].
	ErrFlowIDTooLong = constError("flow identifier too long")
	// ErrTruncated is returned from [Decode] and [Stamp]
	// for packets shorter than their headers claim.
	ErrTruncated = constError("truncated packet")
	// ErrNotProbe is returned from [Decode] and [Stamp]
	// for packets that do not carry a probe payload.
	ErrNotProbe = constError("not a probe packet")
	// ErrInvalidMAC is returned when parsing a malformed [MAC].
	ErrInvalidMAC = constError("invalid MAC address")
	// ErrInvalidDirection is returned when parsing an unknown [Direction].
	ErrInvalidDirection = constError("invalid direction")
)

func (errStr constError) Error() string { return string(errStr) }

func truncatedError(layer string, need, have int) error {
	return fmt.Errorf(
		"%w: %s needs %d bytes but %d remain",
		ErrTruncated, layer, need, have)
}
