package engine

import "fmt"

// Event is anything dispatched through a Bus.
type Event interface {
	IsCancelled() bool
}

// Listener handles one event type. A returned error stops dispatch.
type Listener[T Event] func(ev T) error

// Bus runs listeners for one event type in registration order.
type Bus[T Event] struct {
	listeners []Listener[T]
}

// Subscribe appends l.
func (b *Bus[T]) Subscribe(l Listener[T]) {
	b.listeners = append(b.listeners, l)
}

// Len returns the number of listeners.
func (b *Bus[T]) Len() int {
	return len(b.listeners)
}

// Publish runs listeners in order. Once a listener cancels the event the
// remaining listeners are skipped. The first listener error stops dispatch
// and is returned.
func (b *Bus[T]) Publish(ev T) error {
	for i, l := range b.listeners {
		if ev.IsCancelled() {
			return nil
		}
		if err := l(ev); err != nil {
			return fmt.Errorf("listener %d: %w", i, err)
		}
	}
	return nil
}

// Dispatcher routes every inbound event type.
type Dispatcher struct {
	OpenCrate   Bus[*OpenCrateEvent]
	GiveKey     Bus[*GiveKeyEvent]
	GiveAllKeys Bus[*GiveAllKeysEvent]
	SpawnCrate  Bus[*SpawnCrateEvent]
	PlayerQuit  Bus[*PlayerQuitEvent]
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}
