package buffer

import (
	"encoding/binary"
	"sync"
)

// recordHeaderSize is the length prefix of each framed record:
// [len_lo][len_hi] little-endian u16.
const recordHeaderSize = 2

// PacketRing is a fixed-capacity byte ring holding length-framed
// records. Each record is stored as [len u16 LE][payload].
//
// Unlike Ring, PacketRing never overwrites: a record is admitted only
// when the entire framed record fits without the write position passing
// the unread region, and is dropped whole otherwise. A reader therefore
// never observes a partial or merged record.
type PacketRing struct {
	mu         sync.Mutex
	buf        []byte
	head, tail int64
	maxPayload int
	dropped    uint64
}

// NewPacketRing creates a PacketRing holding up to capacity bytes of
// framed records, rejecting payloads longer than maxPayload.
func NewPacketRing(capacity, maxPayload int) *PacketRing {
	if capacity <= 0 || maxPayload <= 0 {
		panic("buffer: packet ring capacity and max payload must be positive")
	}
	if maxPayload+recordHeaderSize > capacity {
		panic("buffer: packet ring capacity smaller than one record")
	}
	return &PacketRing{
		buf:        make([]byte, capacity),
		maxPayload: maxPayload,
	}
}

// MaxPayload returns the largest admissible payload size.
func (pr *PacketRing) MaxPayload() int { return pr.maxPayload }

// Publish frames payload and appends it to the ring. It reports whether
// the record was admitted. Oversized payloads and records that do not
// fit in the remaining space are dropped whole; no bytes are written on
// failure.
func (pr *PacketRing) Publish(payload []byte) bool {
	if len(payload) == 0 || len(payload) > pr.maxPayload {
		return false
	}

	pr.mu.Lock()
	defer pr.mu.Unlock()

	record := int64(recordHeaderSize + len(payload))
	free := int64(len(pr.buf)) - (pr.tail - pr.head)
	if record > free {
		pr.dropped++
		return false
	}

	n := int64(len(pr.buf))
	var hdr [recordHeaderSize]byte
	binary.LittleEndian.PutUint16(hdr[:], uint16(len(payload)))
	pr.buf[pr.tail%n] = hdr[0]
	pr.buf[(pr.tail+1)%n] = hdr[1]
	for i, b := range payload {
		pr.buf[(pr.tail+recordHeaderSize+int64(i))%n] = b
	}
	pr.tail += record
	return true
}

// Pending reports whether at least one record is unread.
func (pr *PacketRing) Pending() bool {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	return pr.tail != pr.head
}

// Pop reads the next record's payload into p and returns its length.
// It returns ok=false when the ring is empty. p must be at least
// MaxPayload bytes; a record that cannot fit in p is skipped as
// corrupt, which cannot happen through Publish.
func (pr *PacketRing) Pop(p []byte) (int, bool) {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	n := int64(len(pr.buf))
	for pr.head != pr.tail {
		var hdr [recordHeaderSize]byte
		hdr[0] = pr.buf[pr.head%n]
		hdr[1] = pr.buf[(pr.head+1)%n]
		plen := int(binary.LittleEndian.Uint16(hdr[:]))
		if plen == 0 || plen > pr.maxPayload {
			// Skip the bad length prefix and resync.
			pr.head += recordHeaderSize
			continue
		}
		if plen > len(p) {
			pr.head += recordHeaderSize + int64(plen)
			continue
		}
		for i := 0; i < plen; i++ {
			p[i] = pr.buf[(pr.head+recordHeaderSize+int64(i))%n]
		}
		pr.head += recordHeaderSize + int64(plen)
		return plen, true
	}
	return 0, false
}

// Dropped returns the number of records rejected for lack of space.
func (pr *PacketRing) Dropped() uint64 {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	return pr.dropped
}

// Reset discards all unread records.
func (pr *PacketRing) Reset() {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	pr.head = pr.tail
}
