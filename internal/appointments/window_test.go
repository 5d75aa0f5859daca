package appointments

import (
	"testing"
	"time"
)

func TestAccessWindow_BoundariesInclusive(t *testing.T) {
	w := AccessWindow{Before: 10 * time.Minute, After: 30 * time.Minute}
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"one second before opening", time.Date(2024, 1, 1, 9, 49, 59, 0, time.UTC), false},
		{"exactly at opening", time.Date(2024, 1, 1, 9, 50, 0, 0, time.UTC), true},
		{"at scheduled start", start, true},
		{"exactly at closing", time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC), true},
		{"one second after closing", time.Date(2024, 1, 1, 10, 30, 1, 0, time.UTC), false},
	}
	for _, tc := range cases {
		if got := w.Contains(tc.now, start); got != tc.want {
			t.Fatalf("%s: Contains(%v) = %v, want %v", tc.name, tc.now, got, tc.want)
		}
	}
}

func TestAccessWindow_ZeroOffsets(t *testing.T) {
	w := AccessWindow{}
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	if !w.Contains(start, start) {
		t.Fatalf("expected the start instant itself to be allowed")
	}
	if w.Contains(start.Add(-time.Second), start) {
		t.Fatalf("expected one second before start to be rejected")
	}
	if w.Contains(start.Add(time.Second), start) {
		t.Fatalf("expected one second after start to be rejected")
	}
}

func TestAccessWindow_DoesNotReadWallClock(t *testing.T) {
	w := AccessWindow{Before: 10 * time.Minute, After: 30 * time.Minute}
	start := time.Date(1999, 6, 15, 12, 0, 0, 0, time.UTC)

	// Long-past appointments must evaluate identically to future ones.
	if !w.Contains(start, start) {
		t.Fatalf("expected past appointment start to be inside its own window")
	}
}
