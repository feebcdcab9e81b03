package glassgear

import (
	"sync/atomic"
	"time"
)

// ButtonEvent is the outcome of one button poll.
type ButtonEvent int

const (
	ButtonNone ButtonEvent = iota
	ButtonShortPress
	ButtonLongPress
)

// String returns the string representation of the event.
func (e ButtonEvent) String() string {
	switch e {
	case ButtonShortPress:
		return "short_press"
	case ButtonLongPress:
		return "long_press"
	default:
		return "none"
	}
}

// Button debounces the physical power button and detects short versus
// long presses. The edge interrupt only calls Signal; all logic runs in
// the loop via Poll. Edges closer than the debounce window to the
// previous accepted edge are ignored. A long press fires exactly once
// per press; the release after it is never a short press.
type Button struct {
	cfg   Config
	input ButtonInput

	signal atomic.Bool

	down       bool
	pressStart time.Time
	lastEdge   time.Time
	longFired  bool
}

// NewButton creates a button state machine over the given input.
func NewButton(cfg Config, input ButtonInput) *Button {
	return &Button{cfg: cfg, input: input}
}

// Signal is the interrupt-context entry point. It only sets a flag.
func (b *Button) Signal() { b.signal.Store(true) }

// Poll advances the state machine and returns at most one event.
func (b *Button) Poll(now time.Time) ButtonEvent {
	if b.input == nil {
		return ButtonNone
	}
	b.signal.Store(false)

	pressed := b.input.Pressed()

	switch {
	case pressed && !b.down:
		// Press edge.
		if now.Sub(b.lastEdge) < b.cfg.DebounceWindow {
			return ButtonNone
		}
		b.down = true
		b.longFired = false
		b.pressStart = now
		b.lastEdge = now

	case pressed && b.down && !b.longFired:
		if now.Sub(b.pressStart) >= b.cfg.LongPressThreshold {
			b.longFired = true
			return ButtonLongPress
		}

	case !pressed && b.down:
		// Release edge.
		if now.Sub(b.lastEdge) < b.cfg.DebounceWindow {
			return ButtonNone
		}
		held := now.Sub(b.pressStart)
		b.down = false
		b.lastEdge = now
		fired := b.longFired
		b.longFired = false
		if !fired && held >= b.cfg.DebounceWindow {
			return ButtonShortPress
		}
	}
	return ButtonNone
}
