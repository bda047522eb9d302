// Package services – ConfirmationService
//
// This file implements the client-confirmation half of the escrow release.
// A confirmation and the sweep's auto-release are two producers of the same
// terminal effect (Payment ESCROW→APPROVED); exactly-once release is
// guaranteed by re-checking the unresolved precondition atomically at commit
// time via the repository's conditional updates. Whichever writer commits
// first wins; the loser observes ErrAlreadyResolved.
//
// Service-level errors (ErrConfirmationNotFound, ErrForbidden,
// ErrAlreadyResolved) are returned for predictable cases so handlers can map
// them to HTTP results consistently.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/servihub/go-escrow-backend/internal/domain"
	"github.com/servihub/go-escrow-backend/internal/repo"
)

// ConfirmationService implements the explicit client-confirmation use case.
// It validates the operation (existence, actor rights, unresolved state) and
// applies the terminal write plus the cascaded payment release in a single
// transaction. The service is context-aware and opens its own transaction
// per call.
type ConfirmationService struct {
	// DB is the database handle used for all confirmation operations.
	DB *gorm.DB
	// Clock supplies the commit instant; injectable for tests.
	Clock Clock
}

// NewConfirmationService constructs a ConfirmationService on the system clock.
func NewConfirmationService(db *gorm.DB) *ConfirmationService {
	return &ConfirmationService{DB: db, Clock: SystemClock{}}
}

// Confirm records actorID's explicit approval of the confirmation and
// releases the escrowed payment.
//
// Semantics and validation:
//   - confirmationID must exist; otherwise ErrConfirmationNotFound.
//   - actorID must equal the ClientID on the linked request; otherwise
//     ErrForbidden. No state is mutated on a rights failure.
//   - The record must be unresolved; a record already confirmed or
//     auto-released yields ErrAlreadyResolved together with the current
//     stored record, so callers can show the final state instead of an error.
//   - A confirmation may land after the window expired as long as the sweep
//     has not committed first; expiry alone does not forbid confirmation.
//
// Concurrency & atomicity:
//   - The unresolved check is not trusted from the initial read: the terminal
//     write is a conditional update re-evaluated by the database, and the
//     payment release happens in the same transaction. A concurrent sweep
//     hitting the same record makes exactly one of the two commit.
//
// Data integrity:
//   - A missing or non-escrow linked payment does not abort the confirmation;
//     it is logged and counted as an integrity warning, the same tolerance
//     the sweep applies to the anomaly.
func (s *ConfirmationService) Confirm(ctx context.Context, actorID, confirmationID string) (*domain.TaskConfirmation, error) {
	now := s.now()

	var out *domain.TaskConfirmation
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := repo.GetConfirmation(ctx, tx, confirmationID)
		if err != nil {
			if isNotFound(err) {
				return ErrConfirmationNotFound
			}
			return err
		}

		req, err := repo.GetRequest(ctx, tx, c.RequestID)
		if err != nil {
			if isNotFound(err) {
				// Orphan confirmation: nobody holds rights over it.
				return ErrConfirmationNotFound
			}
			return err
		}
		if req.ClientID != actorID {
			return ErrForbidden
		}

		if c.Resolved() {
			out = c
			return ErrAlreadyResolved
		}

		ok, err := repo.MarkConfirmed(ctx, tx, c.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			// A concurrent writer resolved the record between our read and
			// the conditional update. Load the final state for the caller.
			cur, gerr := repo.GetConfirmation(ctx, tx, c.ID)
			if gerr == nil {
				out = cur
			}
			return ErrAlreadyResolved
		}

		if err := s.releasePayment(ctx, tx, c.RequestID, now); err != nil {
			return err
		}

		cur, err := repo.GetConfirmation(ctx, tx, c.ID)
		if err != nil {
			return err
		}
		out = cur
		return nil
	})

	switch {
	case err == nil:
		confirmationsTotal.WithLabelValues("confirmed").Inc()
	case errors.Is(err, ErrAlreadyResolved):
		confirmationsTotal.WithLabelValues("already_resolved").Inc()
	case errors.Is(err, ErrForbidden):
		confirmationsTotal.WithLabelValues("forbidden").Inc()
	case errors.Is(err, ErrConfirmationNotFound):
		confirmationsTotal.WithLabelValues("not_found").Inc()
	default:
		confirmationsTotal.WithLabelValues("error").Inc()
	}
	return out, err
}

// releasePayment cascades the ESCROW→APPROVED transition for the request's
// payment. An absent or non-escrow payment is tolerated: the confirmation
// still commits, and the anomaly is reported as a data-integrity warning.
func (s *ConfirmationService) releasePayment(ctx context.Context, tx *gorm.DB, requestID string, now time.Time) error {
	ok, err := repo.ApprovePayment(ctx, tx, requestID, now)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	_, err = repo.GetPaymentByRequest(ctx, tx, requestID)
	switch {
	case isNotFound(err):
		integrityWarnings.Inc()
		log.Warn().
			Str("request_id", requestID).
			Msg("confirmation resolved but no linked payment exists")
		return nil
	case err != nil:
		return err
	default:
		// Payment exists but was not in ESCROW (already approved or rejected).
		integrityWarnings.Inc()
		log.Warn().
			Str("request_id", requestID).
			Msg("confirmation resolved but linked payment was not in escrow")
		return nil
	}
}

// now returns the injected clock's instant, falling back to the system clock
// for zero-value services.
func (s *ConfirmationService) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now()
	}
	return SystemClock{}.Now()
}

// isNotFound reports whether err is the ledger's missing-record sentinel.
func isNotFound(err error) bool {
	if errors.Is(err, repo.ErrNotFound) {
		return true
	}
	// Fallback to GORM's sentinel.
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// isDuplicate attempts to detect unique-constraint violations across drivers
// that may not map to gorm.ErrDuplicatedKey.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// SQLite typically: "UNIQUE constraint failed"
	// Postgres typically: "duplicate key value violates unique constraint"
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
