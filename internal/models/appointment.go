package models

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus is the ordered appointment lifecycle status. The numeric
// values are part of the API: list filters support exact match and
// "at least this status" comparison over them.
type AppointmentStatus int

const (
	StatusPending   AppointmentStatus = 1
	StatusConfirmed AppointmentStatus = 2
	StatusDeclined  AppointmentStatus = 3
	StatusCancelled AppointmentStatus = 4
	StatusCompleted AppointmentStatus = 5
)

// StatusClass groups statuses by whether the appointment can still move.
type StatusClass int

const (
	ClassActive StatusClass = iota
	ClassTerminalSuccess
	ClassTerminalFailure
)

// Class returns the lifecycle class of the status.
func (s AppointmentStatus) Class() StatusClass {
	switch s {
	case StatusCompleted:
		return ClassTerminalSuccess
	case StatusDeclined, StatusCancelled:
		return ClassTerminalFailure
	default:
		return ClassActive
	}
}

// Valid reports whether s is a known status value.
func (s AppointmentStatus) Valid() bool {
	return s >= StatusPending && s <= StatusCompleted
}

func (s AppointmentStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusConfirmed:
		return "confirmed"
	case StatusDeclined:
		return "declined"
	case StatusCancelled:
		return "cancelled"
	case StatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// AllStatuses lists every known status, for table construction and validation.
func AllStatuses() []AppointmentStatus {
	return []AppointmentStatus{StatusPending, StatusConfirmed, StatusDeclined, StatusCancelled, StatusCompleted}
}

// Appointment is a booked call between a client (user or guest) and an expert.
// Start is immutable after creation; only status and cancellation metadata
// change afterwards. Cancellation is a status, rows are never deleted.
type Appointment struct {
	ID            uuid.UUID         `json:"id"`
	Start         time.Time         `json:"start"`
	Status        AppointmentStatus `json:"status"`
	UserIDFrom    uuid.UUID         `json:"user_id_from"` // booking party (client side)
	UserIDTo      uuid.UUID         `json:"user_id_to"`   // receiving party (expert side)
	IsGuestOwned  bool              `json:"is_guest_owned"`
	ClientMessage string            `json:"client_message,omitempty"`
	Reason        string            `json:"reason,omitempty"` // set on decline/cancel
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}
