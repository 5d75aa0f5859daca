package models

import (
	"time"

	"github.com/google/uuid"
)

// EmailLog records a notification mail sent (or attempted) for an appointment.
type EmailLog struct {
	ID            uuid.UUID `json:"id"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	Recipient     string    `json:"recipient"`
	EmailType     string    `json:"email_type"` // booked, confirmed, declined, cancelled
	Status        string    `json:"status"`     // sent, failed
	Error         string    `json:"error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
