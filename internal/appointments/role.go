package appointments

import (
	"github.com/google/uuid"

	"github.com/expertcall/backend/internal/models"
)

// PartyRole is the caller's role on a specific appointment.
type PartyRole int

const (
	// PartyNone means the caller is not a party of the appointment.
	PartyNone PartyRole = iota
	// PartyClient is the booking side (user_id_from, user or guest).
	PartyClient
	// PartyExpert is the receiving side (user_id_to).
	PartyExpert
)

func (r PartyRole) String() string {
	switch r {
	case PartyClient:
		return "client"
	case PartyExpert:
		return "expert"
	default:
		return "none"
	}
}

// ResolveRole classifies the caller against the appointment's parties.
// The expert is the user_id_to party; the client is the user_id_from party
// (a guest id for guest-owned appointments). Anyone else is PartyNone.
func ResolveRole(a *models.Appointment, callerID uuid.UUID) PartyRole {
	switch callerID {
	case a.UserIDTo:
		return PartyExpert
	case a.UserIDFrom:
		return PartyClient
	default:
		return PartyNone
	}
}
