package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/expertcall/backend/internal/appointments"
	"github.com/expertcall/backend/internal/models"
)

type fakeAppointments struct {
	entries map[uuid.UUID]*models.Appointment
}

func (f *fakeAppointments) GetByID(_ context.Context, id uuid.UUID) (*models.Appointment, error) {
	a, ok := f.entries[id]
	if !ok {
		return nil, appointments.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

type brokerFixture struct {
	broker *Broker
	minter *fakeMinter
	store  *fakeStore
	appt   *models.Appointment
	expert uuid.UUID
	client uuid.UUID
	now    time.Time
}

// newBrokerFixture builds a broker around a confirmed appointment starting at
// 2024-01-01T10:00Z with a 10-before/30-after window, clock fixed at "now".
func newBrokerFixture(t *testing.T, now time.Time, status models.AppointmentStatus) *brokerFixture {
	t.Helper()

	expert := uuid.New()
	client := uuid.New()
	appt := &models.Appointment{
		ID:         uuid.New(),
		Start:      time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		Status:     status,
		UserIDFrom: client,
		UserIDTo:   expert,
	}

	store := newFakeStore()
	minter := &fakeMinter{}
	issuer := NewIssuer(store, minter, testTTL, time.Second, nil)
	window := appointments.AccessWindow{Before: 10 * time.Minute, After: 30 * time.Minute}
	getter := &fakeAppointments{entries: map[uuid.UUID]*models.Appointment{appt.ID: appt}}
	broker := NewBroker(getter, issuer, window, func() time.Time { return now }, nil)

	return &brokerFixture{broker: broker, minter: minter, store: store, appt: appt, expert: expert, client: client, now: now}
}

func TestBroker_UnknownAppointment(t *testing.T) {
	fx := newBrokerFixture(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), models.StatusConfirmed)

	_, err := fx.broker.RequestSession(context.Background(), uuid.New(), fx.client)
	if !errors.Is(err, appointments.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBroker_WindowScenario(t *testing.T) {
	cases := []struct {
		name    string
		now     time.Time
		allowed bool
	}{
		{"before window", time.Date(2024, 1, 1, 9, 49, 59, 0, time.UTC), false},
		{"window opens", time.Date(2024, 1, 1, 9, 50, 0, 0, time.UTC), true},
		{"window closes", time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC), true},
		{"after window", time.Date(2024, 1, 1, 10, 30, 1, 0, time.UTC), false},
	}
	for _, tc := range cases {
		fx := newBrokerFixture(t, tc.now, models.StatusConfirmed)
		_, err := fx.broker.RequestSession(context.Background(), fx.appt.ID, fx.client)
		if tc.allowed && err != nil {
			t.Fatalf("%s: expected grant, got %v", tc.name, err)
		}
		if !tc.allowed && !errors.Is(err, ErrOutsideAccessWindow) {
			t.Fatalf("%s: expected ErrOutsideAccessWindow, got %v", tc.name, err)
		}
	}
}

func TestBroker_StatusGate(t *testing.T) {
	inWindow := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	for _, status := range []models.AppointmentStatus{models.StatusPending, models.StatusDeclined, models.StatusCancelled, models.StatusCompleted} {
		fx := newBrokerFixture(t, inWindow, status)
		_, err := fx.broker.RequestSession(context.Background(), fx.appt.ID, fx.client)
		if !errors.Is(err, appointments.ErrNotActionable) {
			t.Fatalf("status %s: expected ErrNotActionable, got %v", status, err)
		}
	}
}

func TestBroker_RoleSelectsToken(t *testing.T) {
	fx := newBrokerFixture(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), models.StatusConfirmed)

	expertGrant, err := fx.broker.RequestSession(context.Background(), fx.appt.ID, fx.expert)
	if err != nil {
		t.Fatalf("expert request: %v", err)
	}
	clientGrant, err := fx.broker.RequestSession(context.Background(), fx.appt.ID, fx.client)
	if err != nil {
		t.Fatalf("client request: %v", err)
	}

	if expertGrant.Room != clientGrant.Room {
		t.Fatalf("parties got different rooms: %q vs %q", expertGrant.Room, clientGrant.Room)
	}
	if expertGrant.Token == clientGrant.Token {
		t.Fatalf("expert and client must get different tokens")
	}

	cached, err := fx.store.Get(context.Background(), fx.appt.ID)
	if err != nil || cached == nil {
		t.Fatalf("store get: %v", err)
	}
	if expertGrant.Token != cached.ExpertToken {
		t.Fatalf("expert got %q, want expert token %q", expertGrant.Token, cached.ExpertToken)
	}
	if clientGrant.Token != cached.ClientToken {
		t.Fatalf("client got %q, want client token %q", clientGrant.Token, cached.ClientToken)
	}
}

func TestBroker_StrangerRejected(t *testing.T) {
	fx := newBrokerFixture(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), models.StatusConfirmed)

	_, err := fx.broker.RequestSession(context.Background(), fx.appt.ID, uuid.New())
	if !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
	if fx.minter.callCount() != 0 {
		t.Fatalf("no credential may be minted for a stranger")
	}
}

func TestBroker_ReusesFreshCredential(t *testing.T) {
	fx := newBrokerFixture(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), models.StatusConfirmed)

	first, err := fx.broker.RequestSession(context.Background(), fx.appt.ID, fx.client)
	if err != nil {
		t.Fatalf("first request: %v", err)
	}
	second, err := fx.broker.RequestSession(context.Background(), fx.appt.ID, fx.client)
	if err != nil {
		t.Fatalf("second request: %v", err)
	}

	if fx.minter.callCount() != 1 {
		t.Fatalf("expected one mint across both requests, got %d", fx.minter.callCount())
	}
	if first != second {
		t.Fatalf("grants differ within the TTL: %+v vs %+v", first, second)
	}
}

func TestBroker_ZeroStartIsDataFault(t *testing.T) {
	fx := newBrokerFixture(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), models.StatusConfirmed)
	fx.appt.Start = time.Time{}

	_, err := fx.broker.RequestSession(context.Background(), fx.appt.ID, fx.client)
	if !errors.Is(err, appointments.ErrInvalidAppointment) {
		t.Fatalf("expected ErrInvalidAppointment, got %v", err)
	}
}
