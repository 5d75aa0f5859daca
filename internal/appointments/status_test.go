package appointments

import (
	"errors"
	"testing"

	"github.com/expertcall/backend/internal/models"
)

func mustPolicy(t *testing.T) *TransitionPolicy {
	t.Helper()
	p, err := NewTransitionPolicy()
	if err != nil {
		t.Fatalf("NewTransitionPolicy: %v", err)
	}
	return p
}

func TestTransitionPolicy_Totality(t *testing.T) {
	p := mustPolicy(t)

	for _, from := range models.AllStatuses() {
		for _, to := range models.AllStatuses() {
			for _, role := range []PartyRole{PartyClient, PartyExpert} {
				got1, err1 := p.Decide(from, to, role)
				got2, err2 := p.Decide(from, to, role)
				if (err1 == nil) != (err2 == nil) || got1 != got2 {
					t.Fatalf("nondeterministic verdict for (%s, %s, %s)", from, to, role)
				}
				if err1 != nil && !errors.Is(err1, ErrInvalidTransition) {
					t.Fatalf("unexpected error kind for (%s, %s, %s): %v", from, to, role, err1)
				}
				if err1 != nil && got1 != from {
					t.Fatalf("rejected transition must leave status unchanged, got %s", got1)
				}
			}
		}
	}
}

func TestTransitionPolicy_ExpertDecisions(t *testing.T) {
	p := mustPolicy(t)

	if _, err := p.Decide(models.StatusPending, models.StatusConfirmed, PartyExpert); err != nil {
		t.Fatalf("expert confirm: %v", err)
	}
	if _, err := p.Decide(models.StatusPending, models.StatusDeclined, PartyExpert); err != nil {
		t.Fatalf("expert decline: %v", err)
	}
	if _, err := p.Decide(models.StatusConfirmed, models.StatusCompleted, PartyExpert); err != nil {
		t.Fatalf("expert complete: %v", err)
	}

	if _, err := p.Decide(models.StatusPending, models.StatusConfirmed, PartyClient); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("client must not confirm, got %v", err)
	}
	if _, err := p.Decide(models.StatusConfirmed, models.StatusCompleted, PartyClient); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("client must not complete, got %v", err)
	}
}

func TestTransitionPolicy_EitherPartyCancelsWhileActive(t *testing.T) {
	p := mustPolicy(t)

	for _, from := range []models.AppointmentStatus{models.StatusPending, models.StatusConfirmed} {
		for _, role := range []PartyRole{PartyClient, PartyExpert} {
			got, err := p.Decide(from, models.StatusCancelled, role)
			if err != nil {
				t.Fatalf("cancel from %s by %s: %v", from, role, err)
			}
			if got != models.StatusCancelled {
				t.Fatalf("cancel from %s by %s: got %s", from, role, got)
			}
		}
	}
}

func TestTransitionPolicy_TerminalStatesAreFinal(t *testing.T) {
	p := mustPolicy(t)

	terminal := []models.AppointmentStatus{models.StatusDeclined, models.StatusCancelled, models.StatusCompleted}
	for _, from := range terminal {
		for _, to := range models.AllStatuses() {
			for _, role := range []PartyRole{PartyClient, PartyExpert} {
				if _, err := p.Decide(from, to, role); !errors.Is(err, ErrInvalidTransition) {
					t.Fatalf("transition out of %s must be rejected, got %v", from, err)
				}
			}
		}
	}
}

func TestTransitionPolicy_RejectsSameStatusAndUnknowns(t *testing.T) {
	p := mustPolicy(t)

	if _, err := p.Decide(models.StatusPending, models.StatusPending, PartyExpert); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("re-requesting current status must be rejected, got %v", err)
	}
	if _, err := p.Decide(models.StatusPending, models.AppointmentStatus(42), PartyExpert); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("unknown status must be rejected, got %v", err)
	}
	if _, err := p.Decide(models.StatusPending, models.StatusConfirmed, PartyNone); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("non-party must be rejected, got %v", err)
	}
}

func TestSessionGate(t *testing.T) {
	if err := SessionGate(models.StatusConfirmed); err != nil {
		t.Fatalf("confirmed must permit a call: %v", err)
	}
	for _, s := range []models.AppointmentStatus{models.StatusPending, models.StatusDeclined, models.StatusCancelled, models.StatusCompleted} {
		if err := SessionGate(s); !errors.Is(err, ErrNotActionable) {
			t.Fatalf("%s must not permit a call, got %v", s, err)
		}
	}
}
