package models

import (
	"time"

	"github.com/google/uuid"
)

// CallSession is the cached call-room credential for one appointment.
// At most one row exists per appointment; a reissue replaces the row whole,
// never field by field, so room and tokens always come from the same mint.
type CallSession struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	Room          string    `json:"room"`
	ExpertToken   string    `json:"-"`
	ClientToken   string    `json:"-"`
	IssuedAt      time.Time `json:"issued_at"`
}

// Age returns how old the credential is at the given instant.
func (s *CallSession) Age(now time.Time) time.Duration {
	return now.Sub(s.IssuedAt)
}
