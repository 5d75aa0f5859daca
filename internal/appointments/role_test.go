package appointments

import (
	"testing"

	"github.com/google/uuid"

	"github.com/expertcall/backend/internal/models"
)

func TestResolveRole(t *testing.T) {
	expert := uuid.New()
	client := uuid.New()
	stranger := uuid.New()

	a := &models.Appointment{UserIDFrom: client, UserIDTo: expert}

	if got := ResolveRole(a, expert); got != PartyExpert {
		t.Fatalf("expert caller: got %s", got)
	}
	if got := ResolveRole(a, client); got != PartyClient {
		t.Fatalf("client caller: got %s", got)
	}
	if got := ResolveRole(a, stranger); got != PartyNone {
		t.Fatalf("stranger caller: got %s", got)
	}
}
