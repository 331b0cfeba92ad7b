package helpers

import "time"

// Millis is a free-running 32-bit millisecond counter. It wraps around
// every ~49.7 days, so never compare two values with < or >.
type Millis uint32

func (m Millis) Add(d time.Duration) Millis { return m + Millis(d/time.Millisecond) }

// Sub returns signed distance m-o, correct across one wraparound.
func (m Millis) Sub(o Millis) time.Duration {
	return time.Duration(int32(uint32(m)-uint32(o))) * time.Millisecond
}

// Reached reports whether deadline is now or in the past.
func (m Millis) Reached(deadline Millis) bool { return int32(uint32(m)-uint32(deadline)) >= 0 }

// MillisClock produces Millis from the monotonic clock.
type MillisClock struct {
	start time.Time
	base  Millis
}

func NewMillisClock() *MillisClock { return &MillisClock{start: time.Now()} }

// NewMillisClockAt makes clock starting at given counter value, used to test rollover.
func NewMillisClockAt(base Millis) *MillisClock {
	return &MillisClock{start: time.Now(), base: base}
}

func (c *MillisClock) Now() Millis {
	return c.base + Millis(uint32(time.Since(c.start)/time.Millisecond))
}
