package midijack

import "sync/atomic"

// ringBuffer is a single-producer single-consumer byte ring with the
// jack_ringbuffer contract: fixed capacity, non-blocking reads and writes.
// Indices are monotonic and masked on access, so capacity is rounded up to a
// power of two. The producer's index store publishes the written bytes; the
// consumer's load acquires them.
type ringBuffer struct {
	buf  []byte
	mask uint64
	wpos atomic.Uint64 // written by the producer only
	rpos atomic.Uint64 // written by the consumer only
}

func newRingBuffer(capacity int) *ringBuffer {
	size := 1
	for size < capacity {
		size <<= 1
	}
	return &ringBuffer{buf: make([]byte, size), mask: uint64(size - 1)}
}

// Capacity returns the usable size in bytes.
func (r *ringBuffer) Capacity() int { return len(r.buf) }

// ReadSpace reports how many bytes the consumer can read.
func (r *ringBuffer) ReadSpace() int {
	return int(r.wpos.Load() - r.rpos.Load())
}

// WriteSpace reports how many bytes the producer can write.
func (r *ringBuffer) WriteSpace() int {
	return len(r.buf) - int(r.wpos.Load()-r.rpos.Load())
}

// Write copies as much of p as fits into the ring and returns the number of
// bytes written. It never blocks. Producer side only.
func (r *ringBuffer) Write(p []byte) int {
	w := r.wpos.Load()
	free := len(r.buf) - int(w-r.rpos.Load())
	n := len(p)
	if n > free {
		n = free
	}
	if n == 0 {
		return 0
	}
	start := int(w & r.mask)
	copied := copy(r.buf[start:], p[:n])
	copy(r.buf, p[copied:n])
	r.wpos.Store(w + uint64(n))
	return n
}

// Read copies up to len(p) readable bytes into p and returns the number of
// bytes read. It never blocks. Consumer side only.
func (r *ringBuffer) Read(p []byte) int {
	rd := r.rpos.Load()
	avail := int(r.wpos.Load() - rd)
	n := len(p)
	if n > avail {
		n = avail
	}
	if n == 0 {
		return 0
	}
	start := int(rd & r.mask)
	copied := copy(p[:n], r.buf[start:])
	copy(p[copied:n], r.buf)
	r.rpos.Store(rd + uint64(n))
	return n
}
