package domain

import (
	"testing"
	"time"
)

var confirmationEpoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func unresolvedConfirmation(expiresAt time.Time) *TaskConfirmation {
	return &TaskConfirmation{
		ID:        "c1",
		RequestID: "r1",
		CreatedAt: confirmationEpoch,
		ExpiresAt: expiresAt,
	}
}

func TestState_Transitions(t *testing.T) {
	now := confirmationEpoch.Add(24 * time.Hour)
	expires := confirmationEpoch.Add(48 * time.Hour)

	cases := []struct {
		name string
		mut  func(c *TaskConfirmation)
		at   time.Time
		want ConfirmationState
	}{
		{"fresh record awaits confirmation", func(c *TaskConfirmation) {}, now, StateAwaitingConfirmation},
		{"expired unresolved is pending sweep", func(c *TaskConfirmation) {}, expires.Add(time.Second), StateExpiredPendingSweep},
		{"confirmed is terminal", func(c *TaskConfirmation) { c.Confirmed = true }, now, StateConfirmed},
		{"auto-released is terminal", func(c *TaskConfirmation) { c.AutoReleased = true }, now, StateAutoReleased},
		{"confirmed stays confirmed past expiry", func(c *TaskConfirmation) { c.Confirmed = true }, expires.Add(time.Hour), StateConfirmed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := unresolvedConfirmation(expires)
			tc.mut(c)
			if got := c.State(tc.at); got != tc.want {
				t.Fatalf("State(%v) = %q; want %q", tc.at, got, tc.want)
			}
		})
	}
}

func TestExpired_InclusiveBoundary(t *testing.T) {
	expires := confirmationEpoch.Add(48 * time.Hour)
	c := unresolvedConfirmation(expires)

	// One tick before the deadline: still inside the window.
	if c.Expired(expires.Add(-time.Nanosecond)) {
		t.Fatalf("record expired before its deadline")
	}
	// Exactly at the deadline: due. The boundary is inclusive.
	if !c.Expired(expires) {
		t.Fatalf("record not expired at its exact deadline")
	}
	if !c.Expired(expires.Add(time.Second)) {
		t.Fatalf("record not expired past its deadline")
	}
}

func TestCanAutoRelease(t *testing.T) {
	expires := confirmationEpoch.Add(48 * time.Hour)

	c := unresolvedConfirmation(expires)
	if c.CanAutoRelease(expires.Add(-time.Hour)) {
		t.Fatalf("auto-release legal before expiry")
	}
	if !c.CanAutoRelease(expires) {
		t.Fatalf("auto-release illegal at exact expiry")
	}

	c.Confirmed = true
	if c.CanAutoRelease(expires.Add(time.Hour)) {
		t.Fatalf("auto-release legal on a confirmed record")
	}

	c = unresolvedConfirmation(expires)
	c.AutoReleased = true
	if c.CanAutoRelease(expires.Add(time.Hour)) {
		t.Fatalf("auto-release legal on an already released record")
	}
}

func TestCanConfirm(t *testing.T) {
	expires := confirmationEpoch.Add(48 * time.Hour)

	c := unresolvedConfirmation(expires)
	if !c.CanConfirm() {
		t.Fatalf("confirm illegal on a fresh record")
	}

	// Past expiry but not yet swept: the client may still win the race.
	if !c.CanConfirm() {
		t.Fatalf("confirm illegal on an expired-but-unswept record")
	}

	c.AutoReleased = true
	if c.CanConfirm() {
		t.Fatalf("confirm legal on an auto-released record")
	}
}
