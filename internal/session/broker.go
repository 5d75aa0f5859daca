package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/expertcall/backend/internal/appointments"
	"github.com/expertcall/backend/internal/models"
)

// AppointmentGetter fetches appointments for session requests.
type AppointmentGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Appointment, error)
}

// Grant is the role-shaped answer to a session request: the caller's own
// token plus the shared room id.
type Grant struct {
	Token string `json:"token"`
	Room  string `json:"room"`
}

// Broker is the single entry point for "give me a usable call credential for
// appointment X". It validates timing and status, resolves the caller's role,
// and delegates credential freshness to the issuer.
type Broker struct {
	appts  AppointmentGetter
	issuer *Issuer
	window appointments.AccessWindow
	clock  func() time.Time
	logger *zap.Logger
}

// NewBroker creates a session token broker. clock may be nil, defaulting to time.Now.
func NewBroker(appts AppointmentGetter, issuer *Issuer, window appointments.AccessWindow, clock func() time.Time, logger *zap.Logger) *Broker {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broker{appts: appts, issuer: issuer, window: window, clock: clock, logger: logger}
}

// RequestSession validates the appointment and returns the caller's call
// credential. One clock read covers both the window check and the freshness
// check so a request never straddles a tick boundary.
func (b *Broker) RequestSession(ctx context.Context, appointmentID, callerID uuid.UUID) (Grant, error) {
	appt, err := b.appts.GetByID(ctx, appointmentID)
	if err != nil {
		return Grant{}, err
	}
	if appt.Start.IsZero() {
		b.logger.Error("appointment with zero start",
			zap.String("appointment_id", appointmentID.String()))
		return Grant{}, appointments.ErrInvalidAppointment
	}

	now := b.clock()
	if !b.window.Contains(now, appt.Start) {
		return Grant{}, ErrOutsideAccessWindow
	}
	if err := appointments.SessionGate(appt.Status); err != nil {
		return Grant{}, err
	}

	role := appointments.ResolveRole(appt, callerID)
	if role == appointments.PartyNone {
		return Grant{}, ErrNotParticipant
	}

	cred, err := b.issuer.GetOrRefresh(ctx, appointmentID, now)
	if err != nil {
		return Grant{}, fmt.Errorf("appointment %s: %w", appointmentID, err)
	}

	grant := Grant{Room: cred.Room, Token: cred.ClientToken}
	if role == appointments.PartyExpert {
		grant.Token = cred.ExpertToken
	}
	return grant, nil
}
