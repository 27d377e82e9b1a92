package download

import (
	"time"

	"github.com/juju/clock"
)

// DefaultUpdateRate is the minimum interval between progress events.
const DefaultUpdateRate = time.Second

// Throttle limits how often progress is reported.
type Throttle struct {
	clock    clock.Clock
	interval time.Duration
	last     time.Time
	fired    bool
}

// NewThrottle creates a Throttle. The first call to Allow always passes.
func NewThrottle(c clock.Clock, interval time.Duration) *Throttle {
	if c == nil {
		c = clock.WallClock
	}
	if interval <= 0 {
		interval = DefaultUpdateRate
	}
	return &Throttle{clock: c, interval: interval}
}

// Allow reports whether an event may be emitted now, and records it if so.
func (t *Throttle) Allow() bool {
	now := t.clock.Now()
	if t.fired && now.Sub(t.last) < t.interval {
		return false
	}
	t.last = now
	t.fired = true
	return true
}
