// Package services – Clock
//
// The escrow core never reads the wall clock directly: every service that
// needs "now" takes a Clock so that expiry behavior is deterministic under
// test. Production wiring passes SystemClock.
package services

import "time"

// Clock supplies the current instant.
type Clock interface {
	// Now returns the current instant in UTC.
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

// Now returns the current wall-clock time in UTC.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock is a Clock pinned to a single instant, advanced explicitly.
// Intended for tests.
type FixedClock struct {
	At time.Time
}

// Now returns the pinned instant.
func (c *FixedClock) Now() time.Time { return c.At }

// Advance moves the pinned instant forward by d.
func (c *FixedClock) Advance(d time.Duration) { c.At = c.At.Add(d) }
