package repo

import (
	"context"
	"testing"
	"time"

	"github.com/servihub/go-escrow-backend/internal/domain"
)

func TestConfirmationStats_Empty(t *testing.T) {
	db := newTestDB(t)
	count, next, err := ConfirmationStats(context.Background(), db, "p1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if count != 0 || next != nil {
		t.Fatalf("empty stats = (%d, %v); want (0, nil)", count, next)
	}
}

func TestConfirmationStats_NearestDeadline(t *testing.T) {
	db := newTestDB(t)
	seedRequest(t, db, "r1", "u1", "p1", domain.RequestCompleted, 10)
	seedRequest(t, db, "r2", "u2", "p1", domain.RequestCompleted, 10)

	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	if _, err := CreateConfirmation(context.Background(), db, "r1", base.Add(time.Hour), window); err != nil {
		t.Fatalf("create c1: %v", err)
	}
	if _, err := CreateConfirmation(context.Background(), db, "r2", base, window); err != nil {
		t.Fatalf("create c2: %v", err)
	}

	count, next, err := ConfirmationStats(context.Background(), db, "p1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d; want 2", count)
	}
	if next == nil || !next.Equal(base.Add(window)) {
		t.Fatalf("nextExpiry = %v; want %v", next, base.Add(window))
	}
}

func TestEscrowStats_Totals(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().UTC()
	seedRequest(t, db, "r1", "u1", "p1", domain.RequestInProgress, 30)
	seedRequest(t, db, "r2", "u2", "p1", domain.RequestInProgress, 70)
	seedRequest(t, db, "r3", "u3", "p1", domain.RequestCompleted, 99)

	if _, err := CreatePayment(context.Background(), db, "r1", "u1", "p1", 30, domain.PaymentEscrow, "", now); err != nil {
		t.Fatalf("create pm1: %v", err)
	}
	if _, err := CreatePayment(context.Background(), db, "r2", "u2", "p1", 70, domain.PaymentEscrow, "", now); err != nil {
		t.Fatalf("create pm2: %v", err)
	}
	// Approved payments no longer count as held funds.
	if _, err := CreatePayment(context.Background(), db, "r3", "u3", "p1", 99, domain.PaymentApproved, "", now); err != nil {
		t.Fatalf("create pm3: %v", err)
	}

	count, total, err := EscrowStats(context.Background(), db, "p1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if count != 2 || total != 100 {
		t.Fatalf("escrow stats = (%d, %v); want (2, 100)", count, total)
	}
}
