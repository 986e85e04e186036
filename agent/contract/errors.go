package contract

import "errors"

var (
	ErrAuth            = errors.New("invalid credentials")
	ErrSlotUnavailable = errors.New("timeslot is not available")
	ErrCalendar        = errors.New("calendar service failed")
	// ErrBookingPending marks the one window that must not be retried
	// automatically: the calendar event exists but the slot was never
	// marked consumed. An operator has to reconcile.
	ErrBookingPending  = errors.New("calendar event created but slot commit failed")
	ErrQueryRejected   = errors.New("query rejected")
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrValidation      = errors.New("validation failed")
)
