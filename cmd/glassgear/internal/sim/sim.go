// Package sim provides host-side stand-ins for the device drivers so
// the control plane can run as an ordinary process.
package sim

import (
	"math"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/haivivi/glassgear/pkg/glassgear"
)

// ToneCapture produces a continuous sine tone at the configured sample
// rate, paced by wall time like a real microphone DMA buffer.
type ToneCapture struct {
	rate int
	freq float64

	mu    sync.Mutex
	phase float64
	last  time.Time
}

// NewToneCapture creates a capture source producing a test tone.
func NewToneCapture(sampleRate int, freqHz float64) *ToneCapture {
	return &ToneCapture{rate: sampleRate, freq: freqHz}
}

// Read fills p with however many samples have elapsed since the last
// read, up to len(p).
func (c *ToneCapture) Read(p []int16, _ time.Duration) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if c.last.IsZero() {
		c.last = now
		return 0, nil
	}
	n := int(now.Sub(c.last).Seconds() * float64(c.rate))
	if n == 0 {
		return 0, nil
	}
	if n > len(p) {
		n = len(p)
	}
	c.last = now

	step := 2 * math.Pi * c.freq / float64(c.rate)
	for i := 0; i < n; i++ {
		p[i] = int16(12000 * math.Sin(c.phase))
		c.phase += step
	}
	if c.phase > 2*math.Pi {
		c.phase -= 2 * math.Pi * math.Floor(c.phase/(2*math.Pi))
	}
	return n, nil
}

// Encoder is a toy codec that squeezes one PCM frame into a bounded
// packet by keeping the high byte of every other sample. It identifies
// itself as Opus on the wire so clients exercise their real decode
// path selection.
type Encoder struct {
	frameSize int
	out       []byte
}

// NewEncoder creates an encoder for the given frame size.
func NewEncoder(frameSize int) *Encoder {
	return &Encoder{frameSize: frameSize, out: make([]byte, frameSize/2)}
}

func (e *Encoder) Encode(frame []int16) ([]byte, error) {
	for i := range e.out {
		e.out[i] = byte(frame[2*i] >> 8)
	}
	return e.out, nil
}

func (e *Encoder) FrameSize() int { return e.frameSize }
func (e *Encoder) CodecID() byte  { return glassgear.CodecOpus }

// Camera generates synthetic JPEG-framed payloads of varying size.
type Camera struct {
	mu  sync.Mutex
	rnd *rand.Rand
	n   int
}

// NewCamera creates a camera with a deterministic seed.
func NewCamera(seed int64) *Camera {
	return &Camera{rnd: rand.New(rand.NewSource(seed))}
}

func (c *Camera) Capture() (*glassgear.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++

	size := 2048 + c.rnd.Intn(6144)
	data := make([]byte, size)
	c.rnd.Read(data)
	// JPEG SOI and EOI markers so viewers recognise the framing.
	data[0], data[1] = 0xFF, 0xD8
	data[size-2], data[size-1] = 0xFF, 0xD9
	return glassgear.NewImage(data, byte(c.n%4), nil), nil
}

// Power implements the power HAL on the host: frequency changes are
// logged and light sleep is a plain sleep.
type Power struct {
	Log glassgear.Logger

	mu   sync.Mutex
	mhz  int
	deep bool
}

func (p *Power) SetCPUFrequency(mhz int) {
	p.mu.Lock()
	p.mhz = mhz
	p.mu.Unlock()
	if p.Log != nil {
		p.Log.InfoPrintf("sim: cpu frequency %d MHz", mhz)
	}
}

func (p *Power) LightSleep(d time.Duration) {
	if d > time.Second {
		d = time.Second
	}
	time.Sleep(d)
}

func (p *Power) DeepSleep() {
	p.mu.Lock()
	p.deep = true
	p.mu.Unlock()
	if p.Log != nil {
		p.Log.InfoPrintf("sim: deep sleep")
	}
}

// Battery drains linearly from full over the configured runtime.
type Battery struct {
	start   time.Time
	runtime time.Duration
}

// NewBattery creates a battery that runs from full to empty over rt.
func NewBattery(rt time.Duration) *Battery {
	return &Battery{start: time.Now(), runtime: rt}
}

func (b *Battery) ReadVoltage() (float64, error) {
	frac := float64(time.Since(b.start)) / float64(b.runtime)
	if frac > 1 {
		frac = 1
	}
	return 4.15 - frac*(4.15-3.2), nil
}

// FirmwareStore receives a downloaded firmware image into a file under
// the OS temp directory, standing in for the inactive flash partition.
type FirmwareStore struct {
	Log glassgear.Logger

	mu   sync.Mutex
	f    *os.File
	size int64
}

func (s *FirmwareStore) Begin(size int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.CreateTemp("", "glassgear-fw-*.bin")
	if err != nil {
		return err
	}
	s.f = f
	s.size = size
	return nil
}

func (s *FirmwareStore) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return 0, os.ErrClosed
	}
	return s.f.Write(p)
}

func (s *FirmwareStore) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return os.ErrClosed
	}
	name := s.f.Name()
	err := s.f.Close()
	s.f = nil
	if err != nil {
		return err
	}
	if s.Log != nil {
		s.Log.InfoPrintf("sim: firmware image (%d bytes) staged at %s", s.size, name)
	}
	return nil
}

func (s *FirmwareStore) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return
	}
	name := s.f.Name()
	s.f.Close()
	s.f = nil
	os.Remove(name)
}

// LED logs level changes.
type LED struct {
	Log glassgear.Logger

	mu sync.Mutex
	on bool
}

func (l *LED) Set(on bool) {
	l.mu.Lock()
	changed := on != l.on
	l.on = on
	l.mu.Unlock()
	if changed && l.Log != nil {
		l.Log.DebugPrintf("sim: led %v", on)
	}
}
