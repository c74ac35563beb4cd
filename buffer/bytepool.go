package buffer

import "github.com/valyala/bytebufferpool"

// BytePool hands out [bytebufferpool.ByteBuffer] handles
// drawn from its own pool, which calibrates buffer sizes
// to the packets it has seen.
// The zero value is ready to use.
type BytePool struct {
	pool               bytebufferpool.Pool
	acquired, released uint64
}

var _ Allocator[*bytebufferpool.ByteBuffer] = (*BytePool)(nil)

func (bp *BytePool) Acquire(packet []byte) (*bytebufferpool.ByteBuffer, error) {
	buffer := bp.pool.Get()
	buffer.B = append(buffer.B[:0], packet...)
	bp.acquired++
	return buffer, nil
}

func (bp *BytePool) Release(buffer *bytebufferpool.ByteBuffer) {
	bp.released++
	bp.pool.Put(buffer)
}

func (*BytePool) Bytes(buffer *bytebufferpool.ByteBuffer) []byte {
	return buffer.B
}

func (bp *BytePool) Stats() Stats {
	return Stats{
		Acquired: bp.acquired,
		Released: bp.released,
		InUse:    int(bp.acquired - bp.released),
	}
}
