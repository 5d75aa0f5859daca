package session

import (
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestKeyedMutex_Exclusion(t *testing.T) {
	km := newKeyedMutex()
	key := uuid.New()

	const workers = 50
	counter := 0
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			unlock := km.Lock(key)
			counter++
			unlock()
		}()
	}
	wg.Wait()

	if counter != workers {
		t.Fatalf("lost updates under contention: counter = %d, want %d", counter, workers)
	}
}

func TestKeyedMutex_ReclaimsUncontendedEntries(t *testing.T) {
	km := newKeyedMutex()

	unlockA := km.Lock(uuid.New())
	unlockB := km.Lock(uuid.New())
	unlockA()
	unlockB()

	km.mu.Lock()
	n := len(km.locks)
	km.mu.Unlock()
	if n != 0 {
		t.Fatalf("expected lock arena to be empty, have %d entries", n)
	}
}

func TestKeyedMutex_IndependentKeysDoNotBlock(t *testing.T) {
	km := newKeyedMutex()

	unlockA := km.Lock(uuid.New())
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := km.Lock(uuid.New())
		unlockB()
		close(done)
	}()
	<-done
}
