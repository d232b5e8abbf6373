// Package session detects trading-day boundaries from bar timestamps. Using
// bar time instead of wall-clock time keeps live runs and replays on the
// same boundary sequence: a replayed week resets daily P&L on exactly the
// same bars the live week did.
package session

import "time"

// Tracker reports when bar timestamps cross into a new calendar date in the
// exchange timezone.
type Tracker struct {
	loc     *time.Location
	current string
}

// NewTracker creates a tracker for the given exchange timezone.
func NewTracker(loc *time.Location) *Tracker {
	return &Tracker{loc: loc}
}

// Observe folds one bar timestamp and reports whether it opened a new
// session. The first observation establishes the session without reporting
// a boundary.
func (t *Tracker) Observe(ts time.Time) bool {
	date := ts.In(t.loc).Format(time.DateOnly)

	if t.current == "" {
		t.current = date

		return false
	}

	if date == t.current {
		return false
	}

	t.current = date

	return true
}

// Current is the current session date in the exchange timezone, empty
// before the first observation.
func (t *Tracker) Current() string {
	return t.current
}
