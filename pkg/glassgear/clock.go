package glassgear

import "time"

// Clock abstracts time for the scheduler loop so tests can drive the
// loop deterministically. Sleep must return after at most d.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// SystemClock returns a Clock backed by the real time package.
func SystemClock() Clock { return systemClock{} }

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }
