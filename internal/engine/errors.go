package engine

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeUnknownCrate indicates a crate type that is not configured.
	ErrCodeUnknownCrate ErrorCode = "UNKNOWN_CRATE"

	// ErrCodeInvalidAmount indicates a non-positive key amount.
	ErrCodeInvalidAmount ErrorCode = "INVALID_AMOUNT"

	// ErrCodeSelection indicates the selector failed for a reason other
	// than an empty pool.
	ErrCodeSelection ErrorCode = "SELECTION_FAILED"

	// ErrCodeSpawn indicates the host could not spawn a crate entity.
	ErrCodeSpawn ErrorCode = "SPAWN_FAILED"

	// ErrCodeSchedule indicates the sequencer refused the reveal queue.
	ErrCodeSchedule ErrorCode = "SCHEDULE_FAILED"
)

// Error is returned by handlers for faults that are not user-facing
// outcomes. The triggering event is always cancelled as well.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op is the handler that failed ("open-crate", "give-key", ...).
	Op string

	// Player is the affected player, if any.
	Player string

	// Crate is the requested crate type, if any.
	Crate string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Player != "" {
		return fmt.Sprintf("%s: %s (player=%s, crate=%s): %v", e.Code, e.Op, e.Player, e.Crate, e.Err)
	}
	return fmt.Sprintf("%s: %s (crate=%s): %v", e.Code, e.Op, e.Crate, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err is a configuration fault: fixing it
// means correcting configuration, not retrying.
// Uses errors.As to handle wrapped errors.
func IsConfigError(err error) bool {
	var ee *Error
	if errors.As(err, &ee) {
		switch ee.Code {
		case ErrCodeUnknownCrate, ErrCodeInvalidAmount, ErrCodeSelection:
			return true
		}
	}
	return false
}

// CodeOf returns the code of an engine error, or "" for other errors.
func CodeOf(err error) ErrorCode {
	var ee *Error
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}
