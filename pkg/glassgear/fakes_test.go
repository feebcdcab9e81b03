package glassgear

import (
	"errors"
	"sync"
	"time"
)

var errSensor = errors.New("sensor busy")

// fakeClock is a manually driven clock. Sleep advances it so loop
// pacing moves virtual time forward deterministically.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) { c.Advance(d) }

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// scriptedCapture replays queued sample batches, one per Read.
type scriptedCapture struct {
	batches [][]int16
	err     error
}

func (s *scriptedCapture) Read(p []int16, _ time.Duration) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	if len(s.batches) == 0 {
		return 0, nil
	}
	b := s.batches[0]
	s.batches = s.batches[1:]
	n := copy(p, b)
	return n, nil
}

// countEncoder emits one small packet per frame, tagged with the frame
// count so tests can tell packets apart.
type countEncoder struct {
	frameSize int
	count     byte
	err       error
}

func (e *countEncoder) Encode(frame []int16) ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.count++
	return []byte{e.count, byte(len(frame))}, nil
}

func (e *countEncoder) FrameSize() int { return e.frameSize }
func (e *countEncoder) CodecID() byte  { return CodecOpus }

// fakeSensor serves a fixed image payload and counts releases.
type fakeSensor struct {
	data        []byte
	orientation byte
	err         error

	captures int
	releases int
}

func (s *fakeSensor) Capture() (*Image, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.captures++
	data := append([]byte(nil), s.data...)
	return NewImage(data, s.orientation, func() { s.releases++ }), nil
}

// fakePowerHAL records every power action.
type fakePowerHAL struct {
	mu        sync.Mutex
	freqs     []int
	sleeps    []time.Duration
	deepSleep bool
}

func (h *fakePowerHAL) SetCPUFrequency(mhz int) {
	h.mu.Lock()
	h.freqs = append(h.freqs, mhz)
	h.mu.Unlock()
}

func (h *fakePowerHAL) LightSleep(d time.Duration) {
	h.mu.Lock()
	h.sleeps = append(h.sleeps, d)
	h.mu.Unlock()
}

func (h *fakePowerHAL) DeepSleep() {
	h.mu.Lock()
	h.deepSleep = true
	h.mu.Unlock()
}

func (h *fakePowerHAL) deepSlept() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.deepSleep
}

type fakeBattery struct {
	voltage float64
	err     error
	reads   int
}

func (b *fakeBattery) ReadVoltage() (float64, error) {
	b.reads++
	return b.voltage, b.err
}

type fakeButtonInput struct {
	mu      sync.Mutex
	pressed bool
}

func (b *fakeButtonInput) Pressed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pressed
}

func (b *fakeButtonInput) press(down bool) {
	b.mu.Lock()
	b.pressed = down
	b.mu.Unlock()
}

type fakeLED struct {
	mu      sync.Mutex
	on      bool
	changes int
}

func (l *fakeLED) Set(on bool) {
	l.mu.Lock()
	if on != l.on {
		l.changes++
	}
	l.on = on
	l.mu.Unlock()
}

func (l *fakeLED) lit() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.on
}

// drainNotifications empties the pipe client's queue without blocking.
func drainNotifications(c *PipeClient) []Notification {
	var out []Notification
	for {
		select {
		case n := <-c.Notifications():
			out = append(out, n)
		default:
			return out
		}
	}
}

// testConfig returns the default config with short timings so tests
// stay fast under virtual time.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.CaptureInterval = 10 * time.Second
	cfg.SendPacing = 0
	return cfg
}
