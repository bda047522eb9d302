// Package services – SweepService
//
// This file implements the expiry sweep worker: it scans the ledger for
// confirmations whose window elapsed without client action and drives each
// through the auto-release transition. The worker is stateless between runs
// and safe to invoke concurrently or repeatedly — the selection predicate
// only matches unresolved records, and the terminal write is a conditional
// update, so re-processing and overlapping sweeps are harmless.
package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/servihub/go-escrow-backend/internal/repo"
)

// SweepResult reports one sweep execution: how many records were
// transitioned and the instant the sweep ran, for observability and
// idempotence verification by the caller.
type SweepResult struct {
	// Processed is the number of confirmations successfully auto-released.
	Processed int `json:"processed"`
	// Timestamp is the instant the sweep executed.
	Timestamp time.Time `json:"timestamp"`
}

// SweepService auto-releases expired, unconfirmed confirmations.
type SweepService struct {
	// DB is the database handle used for the sweep query and the per-record
	// transactions.
	DB *gorm.DB
	// Clock supplies the sweep instant; injectable for tests.
	Clock Clock
}

// NewSweepService constructs a SweepService on the system clock.
func NewSweepService(db *gorm.DB) *SweepService {
	return &SweepService{DB: db, Clock: SystemClock{}}
}

// Run executes one sweep over the expired-pending set.
//
// Algorithm:
//  1. Query all confirmations with expires_at <= now (inclusive boundary),
//     confirmed = false, auto_released = false. A failure here is fatal for
//     this invocation and surfaced to the caller, who retries on the next
//     scheduled tick.
//  2. For each match, attempt auto-release in its own transaction. Each
//     record is an independent unit: a failure on one is logged and counted,
//     and the sweep continues with the rest. Partial success is the expected
//     steady state, not an exceptional one.
//  3. A record whose conditional update matches zero rows was resolved by a
//     concurrent writer (a client confirming at the last moment, or an
//     overlapping sweep); that is a no-op, not an error.
//
// The returned Processed counts records this run actually transitioned.
func (s *SweepService) Run(ctx context.Context) (SweepResult, error) {
	now := s.now()
	sweepRuns.Inc()

	expired, err := repo.ListExpiredUnresolved(ctx, s.DB, now)
	if err != nil {
		return SweepResult{Timestamp: now}, err
	}

	processed := 0
	for _, c := range expired {
		released, err := s.autoRelease(ctx, c.ID, c.RequestID, now)
		if err != nil {
			sweepFailures.Inc()
			log.Error().
				Err(err).
				Str("confirmation_id", c.ID).
				Str("request_id", c.RequestID).
				Msg("sweep: auto-release failed; continuing with remaining records")
			continue
		}
		if released {
			processed++
			sweepReleased.Inc()
		}
	}

	log.Info().
		Int("matched", len(expired)).
		Int("processed", processed).
		Time("timestamp", now).
		Msg("sweep completed")

	return SweepResult{Processed: processed, Timestamp: now}, nil
}

// autoRelease applies the terminal transition for one confirmation: the
// conditional flag write plus the cascaded payment release, in a single
// transaction so the record is never partially mutated. released=false with
// a nil error means another writer won; the record no longer needs the sweep.
func (s *SweepService) autoRelease(ctx context.Context, confirmationID, requestID string, now time.Time) (released bool, err error) {
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := repo.MarkAutoReleased(ctx, tx, confirmationID, now)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		released = true

		ok, err = repo.ApprovePayment(ctx, tx, requestID, now)
		if err != nil {
			return err
		}
		if !ok {
			// Missing (or never-escrowed) payment: the confirmation is still
			// marked resolved so the record stops matching future sweeps, and
			// the anomaly is reported rather than failing the record.
			integrityWarnings.Inc()
			log.Warn().
				Str("confirmation_id", confirmationID).
				Str("request_id", requestID).
				Msg("sweep: auto-released confirmation without a releasable payment")
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return released, nil
}

// now returns the injected clock's instant, falling back to the system clock
// for zero-value services.
func (s *SweepService) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now()
	}
	return SystemClock{}.Now()
}
