package booking

import (
	"errors"
	"fmt"
)

const (
	MsgProfileIncomplete = "profile incomplete"
	MsgInvalidSlot       = "invalid slot"
	MsgPastDate          = "past date"
	MsgSlotBooked        = "slot already booked"
)

// ValidationError means the caller supplied input that can never succeed as-is.
// Msg is shown to the user verbatim; the request must not be retried unchanged.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// ConflictError means another booking won the slot. Re-resolve free slots and
// let the user choose again; never retry the same slot.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

// StorageError wraps a persistence failure. When OutcomeUnknown is set the write
// may or may not have happened and the caller must re-read before retrying.
type StorageError struct {
	Op             string
	Err            error
	OutcomeUnknown bool
}

func (e *StorageError) Error() string {
	if e.OutcomeUnknown {
		return fmt.Sprintf("storage: %s: outcome unknown: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrForbidden           = errors.New("forbidden")
)

func validationError(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func storageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}
