package uartmux

import "sync"

// ringBuffer is the print byte queue: a bounded ring any goroutine may
// write into, drained only by the print loop. Overflow policy is stop:
// a full buffer rejects further bytes rather than overwriting queued
// ones, so producers see a short accept count and a receipt is truncated
// instead of corrupted.
type ringBuffer struct {
	mu   sync.Mutex
	buf  []byte
	head int // next write position
	tail int // next read position
	used int
}

func newRingBuffer(size int) *ringBuffer {
	return &ringBuffer{buf: make([]byte, size)}
}

// Write copies as much of p as fits and returns the number of bytes
// accepted, which may be less than len(p).
func (r *ringBuffer) Write(p []byte) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	free := len(r.buf) - r.used
	n := len(p)
	if n > free {
		n = free
	}
	for i := 0; i < n; i++ {
		r.buf[r.head] = p[i]
		r.head = (r.head + 1) % len(r.buf)
	}
	r.used += n
	return n
}

// Read copies up to len(p) queued bytes into p and returns the count.
func (r *ringBuffer) Read(p []byte) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(p)
	if n > r.used {
		n = r.used
	}
	for i := 0; i < n; i++ {
		p[i] = r.buf[r.tail]
		r.tail = (r.tail + 1) % len(r.buf)
	}
	r.used -= n
	return n
}

// Used returns the number of queued bytes.
func (r *ringBuffer) Used() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.used
}
