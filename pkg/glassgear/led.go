package glassgear

import "time"

// LEDMode is the status LED animation mode.
type LEDMode int

const (
	LEDBootSequence LEDMode = iota
	LEDNormal
	LEDShutdownSequence
)

// String returns the string representation of the mode.
func (m LEDMode) String() string {
	switch m {
	case LEDBootSequence:
		return "boot_sequence"
	case LEDNormal:
		return "normal"
	case LEDShutdownSequence:
		return "shutdown_sequence"
	default:
		return "unknown"
	}
}

// ledDriver animates the status LED.
//
// Boot plays a fast blink for a fixed duration then hands over to
// Normal. Normal is solid on while connected and a slow 50%-duty blink
// otherwise. Shutdown plays a distinct fast blink and then reports
// done, which is terminal for the session.
type ledDriver struct {
	cfg Config
	pin LED

	mode     LEDMode
	seqStart time.Time
}

func newLEDDriver(cfg Config, pin LED, now time.Time) *ledDriver {
	return &ledDriver{cfg: cfg, pin: pin, mode: LEDBootSequence, seqStart: now}
}

// Mode returns the current animation mode.
func (l *ledDriver) Mode() LEDMode { return l.mode }

// StartShutdown switches to the shutdown sequence. There is no way
// back.
func (l *ledDriver) StartShutdown(now time.Time) {
	if l.mode == LEDShutdownSequence {
		return
	}
	l.mode = LEDShutdownSequence
	l.seqStart = now
}

// Update advances the animation. It returns true exactly once, when the
// shutdown sequence has finished and the device must power off.
func (l *ledDriver) Update(now time.Time, connected bool) (shutdownDone bool) {
	switch l.mode {
	case LEDBootSequence:
		elapsed := now.Sub(l.seqStart)
		if elapsed < l.cfg.BootLEDDuration {
			phase := (elapsed / l.cfg.BootLEDHalfPeriod) % 2
			l.set(phase == 1)
			return false
		}
		l.set(false)
		l.mode = LEDNormal

	case LEDShutdownSequence:
		elapsed := now.Sub(l.seqStart)
		if elapsed < l.cfg.ShutdownLEDDuration {
			phase := (elapsed / l.cfg.ShutdownLEDHalfPeriod) % 2
			l.set(phase == 1)
			return false
		}
		l.set(false)
		return true
	}

	// Normal operation.
	if connected {
		l.set(true)
	} else {
		phase := (now.UnixMilli() / l.cfg.DisconnectedBlinkPeriod.Milliseconds()) % 2
		l.set(phase == 0)
	}
	return false
}

func (l *ledDriver) set(on bool) {
	if l.pin != nil {
		l.pin.Set(on)
	}
}
