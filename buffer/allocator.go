package buffer

type (
	// Allocator produces owned packet handles
	// and takes them back on release.
	Allocator[Handle any] interface {
		// Acquire copies packet into a newly owned handle.
		Acquire(packet []byte) (Handle, error)
		// Release returns the handle to the allocator.
		// The handle must not be used afterwards.
		Release(Handle)
		// Bytes returns the packet bytes held by handle.
		// The slice aliases the handle's storage.
		Bytes(Handle) []byte
		// Stats reports the allocator's accounting.
		Stats() Stats
	}
	// Stats reports allocator accounting.
	Stats struct {
		// Acquired and Released count successful calls.
		Acquired, Released uint64
		// Rejected counts releases of handles that were not in use.
		Rejected uint64
		// InUse is the number of handles currently owned by callers.
		InUse int
		// Frames is the fixed capacity of the allocator, or 0 if unbounded.
		Frames int
	}
)
