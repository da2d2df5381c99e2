// Package clock provides the reference clock used for expiry and daily
// freshness decisions. All comparisons happen in UTC.
package clock

import (
	"sync"
	"time"
)

// Clock returns the current time. Services take a Clock instead of calling
// time.Now directly so day-boundary behavior can be tested.
type Clock interface {
	Now() time.Time
}

// UTC is the production clock.
type UTC struct{}

// Now returns the current wall time in UTC.
func (UTC) Now() time.Time { return time.Now().UTC() }

// SameDay reports whether a and b fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// Fixed is a settable clock for tests.
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixed creates a Fixed clock starting at t.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{now: t.UTC()}
}

// Now returns the clock's current time.
func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the clock forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// Set moves the clock to t.
func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t.UTC()
}
