// Package domain defines the core persistence models for the application.
// This file implements the pure confirmation state machine: given a
// TaskConfirmation record and an instant, it decides which transitions are
// legal. It performs no I/O; the repository layer is responsible for applying
// transitions atomically against stored state.
package domain

import "time"

// ConfirmationState is the logical state of a TaskConfirmation at an instant.
type ConfirmationState string

// Confirmation states. ExpiredPendingSweep is a transient condition derived
// from the clock, not a stored state; the sweep worker uses it as its
// selection predicate.
const (
	StateAwaitingConfirmation ConfirmationState = "AWAITING_CONFIRMATION"
	StateConfirmed            ConfirmationState = "CONFIRMED"
	StateAutoReleased         ConfirmationState = "AUTO_RELEASED"
	StateExpiredPendingSweep  ConfirmationState = "EXPIRED_PENDING_SWEEP"
)

// Resolved reports whether the confirmation has reached a terminal state
// (explicitly confirmed or auto-released). Terminal records accept no
// further writes.
func (c *TaskConfirmation) Resolved() bool {
	return c.Confirmed || c.AutoReleased
}

// Expired reports whether the confirmation window has elapsed at now.
// The boundary is inclusive: a record whose ExpiresAt equals now is due.
func (c *TaskConfirmation) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// State returns the logical state of the confirmation at the given instant.
func (c *TaskConfirmation) State(now time.Time) ConfirmationState {
	switch {
	case c.Confirmed:
		return StateConfirmed
	case c.AutoReleased:
		return StateAutoReleased
	case c.Expired(now):
		return StateExpiredPendingSweep
	default:
		return StateAwaitingConfirmation
	}
}

// CanConfirm reports whether an explicit client confirmation is a legal
// transition. Confirmation is allowed from any unresolved state, including
// past expiry as long as the sweep has not yet auto-released the record:
// whichever writer commits first wins.
func (c *TaskConfirmation) CanConfirm() bool {
	return !c.Resolved()
}

// CanAutoRelease reports whether the expiry-sweep transition is legal at now:
// the window elapsed and no terminal flag has been set.
func (c *TaskConfirmation) CanAutoRelease(now time.Time) bool {
	return !c.Resolved() && c.Expired(now)
}
