// Package tick provides the host side of the tick model: a logical tick
// clock, a repeating-task scheduler driven one tick at a time, and a loop
// that advances the scheduler on a fixed wall-clock period.
//
// All scheduled callbacks run on the goroutine that calls Advance. Other
// goroutines hand work to that goroutine through Loop.Post, which enqueues
// it into a FIFO drained at the start of every tick.
package tick
