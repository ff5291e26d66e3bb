package tick

import "sync"

// eventQueue is a thread-safe FIFO of work posted to the tick goroutine.
//
// The queue is unbounded so producers never block. The buffered signal
// channel (size 1) coalesces wake-ups for an idle loop.
type eventQueue struct {
	mu     sync.Mutex
	events []func()
	closed bool
	signal chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		events: make([]func(), 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue appends fn. Returns false if the queue is closed.
func (q *eventQueue) Enqueue(fn func()) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.events = append(q.events, fn)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// Drain removes and returns every queued function in FIFO order.
func (q *eventQueue) Drain() []func() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return nil
	}
	out := q.events
	q.events = make([]func(), 0, cap(out))
	return out
}

// Wait returns the wake-up channel. It is closed by Close.
func (q *eventQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of queued functions.
func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Close rejects further Enqueue calls and wakes waiters.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
