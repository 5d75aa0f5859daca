package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/expertcall/backend/internal/models"
)

type fakeStore struct {
	mu          sync.Mutex
	entries     map[uuid.UUID]*models.CallSession
	failReplace bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[uuid.UUID]*models.CallSession)}
}

func (s *fakeStore) Get(_ context.Context, id uuid.UUID) (*models.CallSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (s *fakeStore) Replace(_ context.Context, cs *models.CallSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failReplace {
		return errors.New("store down")
	}
	cp := *cs
	s.entries[cs.AppointmentID] = &cp
	return nil
}

type fakeMinter struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (m *fakeMinter) Mint(_ context.Context, id uuid.UUID) (MintResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return MintResult{}, errors.New("provider unreachable")
	}
	m.calls++
	return MintResult{
		Room:        id.String(),
		ExpertToken: fmt.Sprintf("expert-%d", m.calls),
		ClientToken: fmt.Sprintf("client-%d", m.calls),
	}, nil
}

func (m *fakeMinter) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

const testTTL = 5 * time.Minute

func TestIssuer_FirstCallMints(t *testing.T) {
	store := newFakeStore()
	minter := &fakeMinter{}
	issuer := NewIssuer(store, minter, testTTL, time.Second, nil)

	id := uuid.New()
	now := time.Date(2024, 1, 1, 9, 55, 0, 0, time.UTC)

	cred, err := issuer.GetOrRefresh(context.Background(), id, now)
	if err != nil {
		t.Fatalf("GetOrRefresh: %v", err)
	}
	if minter.callCount() != 1 {
		t.Fatalf("expected one mint, got %d", minter.callCount())
	}
	if !cred.IssuedAt.Equal(now) {
		t.Fatalf("issuedAt = %v, want %v", cred.IssuedAt, now)
	}
	if cred.Room != id.String() {
		t.Fatalf("room = %q, want appointment id", cred.Room)
	}
}

func TestIssuer_FreshCredentialIsReused(t *testing.T) {
	store := newFakeStore()
	minter := &fakeMinter{}
	issuer := NewIssuer(store, minter, testTTL, time.Second, nil)

	id := uuid.New()
	now := time.Date(2024, 1, 1, 9, 55, 0, 0, time.UTC)

	first, err := issuer.GetOrRefresh(context.Background(), id, now)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := issuer.GetOrRefresh(context.Background(), id, now.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("second call: %v", err)
	}

	if minter.callCount() != 1 {
		t.Fatalf("expected one mint total, got %d", minter.callCount())
	}
	if second.Room != first.Room || second.ExpertToken != first.ExpertToken || second.ClientToken != first.ClientToken {
		t.Fatalf("reused credential differs: %+v vs %+v", second, first)
	}
}

func TestIssuer_StaleCredentialIsReplaced(t *testing.T) {
	store := newFakeStore()
	minter := &fakeMinter{}
	issuer := NewIssuer(store, minter, testTTL, time.Second, nil)

	id := uuid.New()
	t0 := time.Date(2024, 1, 1, 9, 55, 0, 0, time.UTC)

	first, err := issuer.GetOrRefresh(context.Background(), id, t0)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}

	// Exactly at the TTL the credential counts as stale.
	t1 := t0.Add(testTTL)
	second, err := issuer.GetOrRefresh(context.Background(), id, t1)
	if err != nil {
		t.Fatalf("refresh call: %v", err)
	}

	if minter.callCount() != 2 {
		t.Fatalf("expected a second mint, got %d calls", minter.callCount())
	}
	if !second.IssuedAt.After(first.IssuedAt) {
		t.Fatalf("issuedAt must strictly increase: %v then %v", first.IssuedAt, second.IssuedAt)
	}
	if second.ExpertToken == first.ExpertToken {
		t.Fatalf("expected a fresh expert token after refresh")
	}
}

func TestIssuer_MintFailureLeavesCacheUntouched(t *testing.T) {
	store := newFakeStore()
	minter := &fakeMinter{}
	issuer := NewIssuer(store, minter, testTTL, time.Second, nil)

	id := uuid.New()
	t0 := time.Date(2024, 1, 1, 9, 55, 0, 0, time.UTC)

	first, err := issuer.GetOrRefresh(context.Background(), id, t0)
	if err != nil {
		t.Fatalf("seed call: %v", err)
	}

	minter.fail = true
	_, err = issuer.GetOrRefresh(context.Background(), id, t0.Add(testTTL))
	if !errors.Is(err, ErrIssuanceFailed) {
		t.Fatalf("expected ErrIssuanceFailed, got %v", err)
	}

	cached, err := store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("store get: %v", err)
	}
	if cached == nil || cached.ExpertToken != first.ExpertToken || !cached.IssuedAt.Equal(first.IssuedAt) {
		t.Fatalf("failed mint must not touch the cached entry: %+v", cached)
	}
}

func TestIssuer_StoreFailureSurfacesAsIssuanceError(t *testing.T) {
	store := newFakeStore()
	store.failReplace = true
	minter := &fakeMinter{}
	issuer := NewIssuer(store, minter, testTTL, time.Second, nil)

	_, err := issuer.GetOrRefresh(context.Background(), uuid.New(), time.Date(2024, 1, 1, 9, 55, 0, 0, time.UTC))
	if !errors.Is(err, ErrIssuanceFailed) {
		t.Fatalf("expected ErrIssuanceFailed, got %v", err)
	}
}

func TestIssuer_ConcurrentRefreshMintsOnce(t *testing.T) {
	store := newFakeStore()
	minter := &fakeMinter{}
	issuer := NewIssuer(store, minter, testTTL, time.Second, nil)

	id := uuid.New()
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	// Seed an expired credential directly.
	store.entries[id] = &models.CallSession{
		AppointmentID: id,
		Room:          id.String(),
		ExpertToken:   "stale-expert",
		ClientToken:   "stale-client",
		IssuedAt:      now.Add(-testTTL - time.Minute),
	}

	const callers = 20
	results := make([]*models.CallSession, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = issuer.GetOrRefresh(context.Background(), id, now)
		}(i)
	}
	wg.Wait()

	if minter.callCount() != 1 {
		t.Fatalf("concurrent refreshes must collapse into one mint, got %d", minter.callCount())
	}
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if results[i].ExpertToken != results[0].ExpertToken || results[i].Room != results[0].Room {
			t.Fatalf("caller %d got a different credential", i)
		}
	}
	if results[0].ExpertToken == "stale-expert" {
		t.Fatalf("stale credential was served after expiry")
	}
}
