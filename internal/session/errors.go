package session

import "errors"

var (
	// ErrOutsideAccessWindow means now is outside the allowed join interval
	// around the appointment start. Expected and client-correctable.
	ErrOutsideAccessWindow = errors.New("appointment is not in valid time range to get token")
	// ErrNotParticipant means the caller is neither party of the appointment.
	ErrNotParticipant = errors.New("caller is not a party of this appointment")
	// ErrIssuanceFailed means the external credential mint failed or timed
	// out. The cached credential, if any, is left untouched; safe to retry.
	ErrIssuanceFailed = errors.New("call credential issuance failed")
)
