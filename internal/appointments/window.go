package appointments

import "time"

// AccessWindow is the interval around an appointment's scheduled start during
// which the parties may request a call credential. Both offsets are
// process-wide configuration, not per-appointment.
type AccessWindow struct {
	Before time.Duration
	After  time.Duration
}

// Contains reports whether now falls inside [start-Before, start+After].
// Both boundary instants are allowed. Callers supply now explicitly; this
// function never reads the wall clock.
func (w AccessWindow) Contains(now, start time.Time) bool {
	from := start.Add(-w.Before)
	to := start.Add(w.After)
	return !now.Before(from) && !now.After(to)
}
