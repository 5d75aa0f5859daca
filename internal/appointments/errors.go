package appointments

import "errors"

var (
	// ErrNotFound means no appointment exists for the given id.
	ErrNotFound = errors.New("appointment not found")
	// ErrInvalidAppointment means the stored schedule data is unusable (e.g. zero start).
	ErrInvalidAppointment = errors.New("appointment has invalid schedule data")
	// ErrInvalidTransition means the requested status change is not allowed
	// from the current status for the requesting party. State is left unchanged.
	ErrInvalidTransition = errors.New("status transition not allowed")
	// ErrNotActionable means the appointment status does not permit the
	// requested operation (e.g. a call on a cancelled appointment).
	ErrNotActionable = errors.New("appointment status does not permit this operation")
)
