package audio

import (
	"sync"
)

// RingBuffer is a thread-safe byte ring buffer used to smooth paced
// playback toward the caller
type RingBuffer struct {
	buf   []byte
	size  int
	read  int
	write int
	count int
	mu    sync.Mutex
}

// NewRingBuffer creates a ring buffer holding up to size bytes
func NewRingBuffer(size int) *RingBuffer {
	return &RingBuffer{
		buf:  make([]byte, size),
		size: size,
	}
}

// Write copies data into the buffer.
// Returns the number of bytes written, which may be less than len(data)
// when the buffer fills up.
func (rb *RingBuffer) Write(data []byte) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	n := rb.size - rb.count
	if n > len(data) {
		n = len(data)
	}
	if n == 0 {
		return 0
	}

	first := rb.size - rb.write
	if first > n {
		first = n
	}
	copy(rb.buf[rb.write:], data[:first])
	copy(rb.buf, data[first:n])

	rb.write = (rb.write + n) % rb.size
	rb.count += n
	return n
}

// Read copies up to len(data) bytes out of the buffer.
// Returns the number of bytes read.
func (rb *RingBuffer) Read(data []byte) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	n := rb.count
	if n > len(data) {
		n = len(data)
	}
	if n == 0 {
		return 0
	}

	first := rb.size - rb.read
	if first > n {
		first = n
	}
	copy(data, rb.buf[rb.read:rb.read+first])
	copy(data[first:n], rb.buf)

	rb.read = (rb.read + n) % rb.size
	rb.count -= n
	return n
}

// Available returns the number of bytes ready to read
func (rb *RingBuffer) Available() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}

// Space returns the number of bytes that can be written without loss
func (rb *RingBuffer) Space() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.size - rb.count
}

// Clear discards all buffered bytes
func (rb *RingBuffer) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.read = 0
	rb.write = 0
	rb.count = 0
}

// IsEmpty returns true if no bytes are buffered
func (rb *RingBuffer) IsEmpty() bool {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count == 0
}

// IsFull returns true if the buffer has no space left
func (rb *RingBuffer) IsFull() bool {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count == rb.size
}
