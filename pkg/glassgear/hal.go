package glassgear

import "time"

// Capture is the blocking audio capture driver. Read fills p with up to
// len(p) PCM samples and returns the number read. It must return within
// the timeout; returning 0 samples is not an error. Gain is applied by
// the driver before samples reach the core.
type Capture interface {
	Read(p []int16, timeout time.Duration) (int, error)
}

// Encoder compresses one fixed-size PCM frame into a bounded packet.
type Encoder interface {
	// Encode compresses exactly FrameSize samples. The returned slice
	// is valid until the next Encode call.
	Encode(frame []int16) ([]byte, error)

	// FrameSize returns the frame length in samples.
	FrameSize() int

	// CodecID identifies the codec on the wire (21 = Opus).
	CodecID() byte
}

// Image is one captured compressed image with single ownership. Whoever
// holds the Image must call Release exactly once when done.
type Image struct {
	Data        []byte
	Orientation byte

	release func()
}

// NewImage wraps a captured buffer. release may be nil.
func NewImage(data []byte, orientation byte, release func()) *Image {
	return &Image{Data: data, Orientation: orientation, release: release}
}

// Release returns the buffer to the sensor driver. Safe to call once.
func (im *Image) Release() {
	if im.release != nil {
		im.release()
		im.release = nil
	}
}

// ImageSensor captures one compressed image into an owned buffer.
type ImageSensor interface {
	Capture() (*Image, error)
}

// PowerHAL is the platform power surface.
type PowerHAL interface {
	// SetCPUFrequency switches the CPU clock rate.
	SetCPUFrequency(mhz int)

	// LightSleep pauses for at most d, waking early on external
	// events. State is preserved; execution resumes in place.
	LightSleep(d time.Duration)

	// DeepSleep powers the device down. It does not return on real
	// hardware; the loop exits after calling it.
	DeepSleep()
}

// BatteryReader reads the battery voltage from the ADC path.
type BatteryReader interface {
	ReadVoltage() (float64, error)
}

// ButtonInput is the debounced-at-the-core physical button. Pressed
// reports the current level; the edge interrupt only sets the signal
// flag on the Button state machine.
type ButtonInput interface {
	Pressed() bool
}

// LED is the status LED output.
type LED interface {
	Set(on bool)
}
