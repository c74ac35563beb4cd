package buffer

import "github.com/eapache/queue"

type (
	// Frame is a handle to one fixed-size frame of an [Arena].
	// The zero Frame refers to no frame.
	Frame struct {
		slot   int32 // Frame index + 1.
		length int32
	}
	// Arena carves one contiguous memory region into
	// equally sized frames, one packet per frame.
	// On Linux the region is an anonymous mapping
	// outside of the Go heap.
	// Constructed by [NewArena].
	Arena struct {
		region    []byte
		inUse     []bool
		free      *queue.Queue // Frame indices, oldest release first.
		frameSize int
		stats     Stats
		closed    bool
	}
)

var _ Allocator[Frame] = (*Arena)(nil)

// NewArena maps a region of frames×frameSize bytes.
// The arena must be closed to return the region.
func NewArena(frames, frameSize int) (*Arena, error) {
	if frames <= 0 || frameSize <= 0 {
		return nil, geometryError(frames, frameSize)
	}
	region, err := mapRegion(frames * frameSize)
	if err != nil {
		return nil, err
	}
	free := queue.New()
	for index := range frames {
		free.Add(index)
	}
	return &Arena{
		region:    region,
		inUse:     make([]bool, frames),
		free:      free,
		frameSize: frameSize,
		stats:     Stats{Frames: frames},
	}, nil
}

// FrameSize returns the capacity of a single frame.
func (a *Arena) FrameSize() int { return a.frameSize }

func (a *Arena) Acquire(packet []byte) (Frame, error) {
	switch {
	case a.closed:
		return Frame{}, ErrArenaClosed
	case len(packet) > a.frameSize:
		return Frame{}, frameSizeError(len(packet), a.frameSize)
	case a.free.Length() == 0:
		return Frame{}, ErrArenaExhausted
	}
	index := a.free.Remove().(int)
	a.inUse[index] = true
	offset := index * a.frameSize
	copy(a.region[offset:offset+a.frameSize], packet)
	a.stats.Acquired++
	a.stats.InUse++
	return Frame{
		slot:   int32(index + 1),
		length: int32(len(packet)),
	}, nil
}

// Release returns the frame to the free list.
// Frames that are not in use are counted as rejected and ignored.
func (a *Arena) Release(frame Frame) {
	index, ok := a.live(frame)
	if !ok {
		a.stats.Rejected++
		return
	}
	a.inUse[index] = false
	a.free.Add(index)
	a.stats.Released++
	a.stats.InUse--
}

// Bytes returns the packet held in frame,
// or nil if frame is not in use or the arena is closed.
func (a *Arena) Bytes(frame Frame) []byte {
	index, ok := a.live(frame)
	if !ok {
		return nil
	}
	var (
		offset = index * a.frameSize
		end    = offset + int(frame.length)
	)
	return a.region[offset:end:end]
}

func (a *Arena) live(frame Frame) (int, bool) {
	index := int(frame.slot) - 1
	return index, !a.closed &&
		index >= 0 && index < len(a.inUse) &&
		a.inUse[index]
}

func (a *Arena) Stats() Stats { return a.stats }

// Close unmaps the region. Handles still in use become invalid.
func (a *Arena) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	region := a.region
	a.region = nil
	return unmapRegion(region)
}
