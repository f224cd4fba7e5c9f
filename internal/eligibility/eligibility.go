// Package eligibility decides whether a feed entry counts as published today.
package eligibility

import "time"

// DefaultTimezone is the reference timezone of the original deployment
// (US/Eastern).
const DefaultTimezone = "America/New_York"

// IsEligibleToday reports whether publishedAt falls on today's month and day,
// where "today" is now's calendar date in loc. The entry's month and day are
// read in UTC. The year is not compared, so an entry from a previous year on
// the same month and day is eligible.
func IsEligibleToday(publishedAt time.Time, loc *time.Location, now time.Time) bool {
	if publishedAt.IsZero() {
		return false
	}
	if loc == nil {
		loc = time.UTC
	}

	today := now.In(loc)
	published := publishedAt.UTC()

	return published.Month() == today.Month() && published.Day() == today.Day()
}

// Evaluator binds a reference timezone and a clock.
type Evaluator struct {
	loc *time.Location
	now func() time.Time
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithClock replaces time.Now (useful for testing).
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) {
		e.now = now
	}
}

// NewEvaluator creates an Evaluator for the given reference timezone.
func NewEvaluator(loc *time.Location, opts ...Option) *Evaluator {
	e := &Evaluator{loc: loc, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EligibleNow applies IsEligibleToday with the evaluator's clock.
func (e *Evaluator) EligibleNow(publishedAt time.Time) bool {
	return IsEligibleToday(publishedAt, e.loc, e.now())
}

// Location returns the reference timezone.
func (e *Evaluator) Location() *time.Location {
	return e.loc
}
