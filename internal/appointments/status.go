package appointments

import (
	"fmt"

	"github.com/expertcall/backend/internal/models"
)

// transitionKey addresses one cell of the status transition table.
type transitionKey struct {
	from models.AppointmentStatus
	to   models.AppointmentStatus
	role PartyRole
}

// TransitionPolicy is the dense (current, requested, role) -> allow/deny table
// governing appointment status changes. Every cell is defined at construction;
// NewTransitionPolicy refuses to build a partial table.
type TransitionPolicy struct {
	allow map[transitionKey]bool
}

// transitionRoles are the roles that may appear in the table. PartyNone is
// rejected before the table is ever consulted.
var transitionRoles = []PartyRole{PartyClient, PartyExpert}

// NewTransitionPolicy builds the transition table.
//
// Policy: the expert confirms, declines, or completes; either party may cancel
// while the appointment is still active (pending or confirmed). Nothing leaves
// a terminal status, and re-requesting the current status is rejected.
func NewTransitionPolicy() (*TransitionPolicy, error) {
	allowed := map[transitionKey]bool{
		{models.StatusPending, models.StatusConfirmed, PartyExpert}:   true,
		{models.StatusPending, models.StatusDeclined, PartyExpert}:    true,
		{models.StatusPending, models.StatusCancelled, PartyExpert}:   true,
		{models.StatusPending, models.StatusCancelled, PartyClient}:   true,
		{models.StatusConfirmed, models.StatusCancelled, PartyExpert}: true,
		{models.StatusConfirmed, models.StatusCancelled, PartyClient}: true,
		{models.StatusConfirmed, models.StatusCompleted, PartyExpert}: true,
	}

	statuses := models.AllStatuses()
	table := make(map[transitionKey]bool, len(statuses)*len(statuses)*len(transitionRoles))
	for _, from := range statuses {
		for _, to := range statuses {
			for _, role := range transitionRoles {
				key := transitionKey{from, to, role}
				verdict := allowed[key]
				if from.Class() != models.ClassActive {
					verdict = false // terminal statuses are final
				}
				if from == to {
					verdict = false
				}
				table[key] = verdict
			}
		}
	}

	if want := len(statuses) * len(statuses) * len(transitionRoles); len(table) != want {
		return nil, fmt.Errorf("transition table incomplete: %d cells, want %d", len(table), want)
	}
	for key := range allowed {
		if _, ok := table[key]; !ok {
			return nil, fmt.Errorf("transition rule references unknown cell %v", key)
		}
	}
	return &TransitionPolicy{allow: table}, nil
}

// Decide validates a status change request. It returns the new status when the
// change is allowed, or ErrInvalidTransition / ErrNotActionable otherwise.
// The caller's role must already be resolved against the appointment.
func (p *TransitionPolicy) Decide(current, requested models.AppointmentStatus, role PartyRole) (models.AppointmentStatus, error) {
	if !requested.Valid() {
		return current, fmt.Errorf("unknown status %d: %w", requested, ErrInvalidTransition)
	}
	if role != PartyClient && role != PartyExpert {
		return current, fmt.Errorf("caller is not a party: %w", ErrInvalidTransition)
	}
	verdict, ok := p.allow[transitionKey{current, requested, role}]
	if !ok || !verdict {
		return current, fmt.Errorf("%s -> %s by %s: %w", current, requested, role, ErrInvalidTransition)
	}
	return requested, nil
}

// SessionGate validates that the appointment status permits issuing a call
// credential. Only a confirmed appointment is callable.
func SessionGate(status models.AppointmentStatus) error {
	if status != models.StatusConfirmed {
		return fmt.Errorf("status %s: %w", status, ErrNotActionable)
	}
	return nil
}
