package analysis

import "sync"

// RingBuffer is a thread-safe circular buffer of interleaved int16 samples.
// The audio player writes into it as it feeds the device; the render loop
// reads the most recent window without blocking on the producer.
type RingBuffer struct {
	buf  []int16
	size int
	w    int // write position
	len  int // current fill level
	mu   sync.Mutex
}

// NewRingBuffer creates a ring buffer holding up to size samples.
func NewRingBuffer(size int) *RingBuffer {
	if size < 1 {
		size = 1
	}
	return &RingBuffer{
		buf:  make([]int16, size),
		size: size,
	}
}

// Write appends samples, overwriting the oldest data if full.
func (rb *RingBuffer) Write(p []int16) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if len(p) > rb.size {
		p = p[len(p)-rb.size:]
	}
	for _, s := range p {
		rb.buf[rb.w] = s
		rb.w = (rb.w + 1) % rb.size
	}
	rb.len += len(p)
	if rb.len > rb.size {
		rb.len = rb.size
	}
}

// Latest copies up to len(dst) of the most recent samples into dst, oldest
// first, and returns the filled prefix.
func (rb *RingBuffer) Latest(dst []int16) []int16 {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	n := len(dst)
	if n > rb.len {
		n = rb.len
	}
	start := (rb.w - n + rb.size) % rb.size
	for i := range n {
		dst[i] = rb.buf[(start+i)%rb.size]
	}
	return dst[:n]
}

// Len returns the number of buffered samples.
func (rb *RingBuffer) Len() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.len
}

// Clear resets the buffer, e.g. after a seek or a track change.
func (rb *RingBuffer) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.w = 0
	rb.len = 0
}
