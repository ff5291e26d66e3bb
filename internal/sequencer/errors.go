package sequencer

import "errors"

var (
	// ErrBusy is returned by Start when the owner already has an active
	// queue and the sequencer rejects concurrent queues.
	ErrBusy = errors.New("owner already has an active queue")

	// ErrAlreadyStarted is returned by Start for a queue that is not pending
	// or was already handed to a sequencer.
	ErrAlreadyStarted = errors.New("queue already started")
)
