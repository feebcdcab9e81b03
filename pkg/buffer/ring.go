package buffer

import "sync"

// Ring is a fixed-capacity circular buffer that overwrites the oldest
// data when full, keeping a sliding window of the most recent elements.
//
// The buffer uses monotonically increasing head and tail counters; the
// element index is the counter modulo the capacity. Push never fails and
// never blocks, which makes Ring safe to feed from a capture path that
// must not stall.
type Ring[T any] struct {
	mu         sync.Mutex
	buf        []T
	head, tail int64
}

// NewRing creates a Ring with the given capacity.
// The buffer overwrites the oldest data once this capacity is exceeded.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		panic("buffer: ring capacity must be positive")
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// Cap returns the fixed capacity of the ring.
func (r *Ring[T]) Cap() int { return len(r.buf) }

// Len returns the number of unread elements.
func (r *Ring[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int(r.tail - r.head)
}

// Push appends all of p to the ring, discarding the oldest unread
// elements when the ring is full. It never fails.
func (r *Ring[T]) Push(p []T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := int64(len(r.buf))
	if int64(len(p)) >= n {
		// Only the last capacity elements can survive.
		p = p[int64(len(p))-n:]
	}
	for _, v := range p {
		r.buf[r.tail%n] = v
		r.tail++
	}
	if r.tail-r.head > n {
		r.head = r.tail - n
	}
}

// Pop copies up to len(p) unread elements into p, oldest first, and
// returns the number copied. It returns 0 when the ring is empty.
func (r *Ring[T]) Pop(p []T) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	avail := int(r.tail - r.head)
	if avail == 0 || len(p) == 0 {
		return 0
	}
	if avail > len(p) {
		avail = len(p)
	}
	n := int64(len(r.buf))
	for i := 0; i < avail; i++ {
		p[i] = r.buf[r.head%n]
		r.head++
	}
	return avail
}

// PopExact copies exactly len(p) elements into p if that many are
// unread, and reports whether it did. The ring is left untouched when
// fewer elements are available, so a caller can poll for whole frames.
func (r *Ring[T]) PopExact(p []T) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if int(r.tail-r.head) < len(p) {
		return false
	}
	n := int64(len(r.buf))
	for i := range p {
		p[i] = r.buf[r.head%n]
		r.head++
	}
	return true
}

// Reset discards all unread elements.
func (r *Ring[T]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.head = r.tail
}
