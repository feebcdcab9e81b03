package glassgear

import "fmt"

// PhotoAssembler rebuilds one image from the photo chunk stream on the
// client side. Feed every photo notification payload to Add; when the
// terminator arrives Add returns done together with the assembled
// bytes. Lost chunks surface as a gap error since chunk indices are
// strictly sequential.
type PhotoAssembler struct {
	data        []byte
	next        int
	orientation byte
	started     bool
}

// NewPhotoAssembler creates an empty assembler. It can be reused after
// a completed or failed transfer by calling Reset.
func NewPhotoAssembler() *PhotoAssembler {
	return &PhotoAssembler{}
}

// Orientation returns the orientation byte from chunk 0 of the current
// or most recently completed transfer.
func (a *PhotoAssembler) Orientation() byte { return a.orientation }

// Reset discards any partial transfer.
func (a *PhotoAssembler) Reset() {
	a.data = a.data[:0]
	a.next = 0
	a.started = false
	a.orientation = 0
}

// Add consumes one photo notification payload. done is true when the
// payload was the terminator; data is the complete image.
func (a *PhotoAssembler) Add(payload []byte) (data []byte, done bool, err error) {
	if len(payload) < 2 {
		return nil, false, fmt.Errorf("glassgear: photo chunk too short (%d bytes)", len(payload))
	}
	if payload[0] == 0xFF && payload[1] == 0xFF {
		if !a.started {
			return nil, false, fmt.Errorf("glassgear: photo terminator without chunks")
		}
		out := a.data
		orientation := a.orientation
		a.data = nil
		a.Reset()
		a.orientation = orientation
		return out, true, nil
	}

	idx := int(payload[0]) | int(payload[1])<<8
	if idx != a.next {
		got := idx
		a.Reset()
		return nil, false, fmt.Errorf("glassgear: photo chunk gap: got %d, want %d", got, a.next)
	}
	if idx == 0 {
		if len(payload) < 3 {
			return nil, false, fmt.Errorf("glassgear: photo chunk 0 missing orientation")
		}
		a.orientation = payload[2]
		a.data = append(a.data[:0], payload[3:]...)
		a.started = true
	} else {
		a.data = append(a.data, payload[2:]...)
	}
	a.next++
	return nil, false, nil
}
