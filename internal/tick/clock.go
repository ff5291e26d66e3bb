package tick

import "sync/atomic"

// Clock is a monotonic tick counter.
//
// Only the tick goroutine advances it; Current may be read from anywhere.
type Clock struct {
	n atomic.Uint64
}

// NewClock creates a clock at tick 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock positioned at start.
func NewClockAt(start uint64) *Clock {
	c := &Clock{}
	c.n.Store(start)
	return c
}

// Next advances the clock and returns the new tick.
func (c *Clock) Next() uint64 {
	return c.n.Add(1)
}

// Current returns the current tick without advancing.
func (c *Clock) Current() uint64 {
	return c.n.Load()
}
