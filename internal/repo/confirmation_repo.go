// Package repo implements the escrow ledger, backed by GORM. This file
// provides repository functions for the TaskConfirmation model, including the
// conditional terminal-field updates at the heart of the exactly-once
// release guarantee.
//
// The terminal transitions (MarkConfirmed, MarkAutoReleased) are single
// UPDATE statements conditioned on "confirmed = false AND auto_released =
// false". The database applies the precondition check and the write
// atomically, so two racing writers cannot both succeed: the loser's update
// matches zero rows and is reported as ok=false with a nil error. Callers map
// that outcome to AlreadyResolved semantics.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/servihub/go-escrow-backend/internal/domain"
)

// CreateConfirmation inserts the confirmation record for a request the
// instant it is completed. ExpiresAt is createdAt + window and never changes
// afterwards. The unique index on request_id enforces exactly one
// confirmation per request.
func CreateConfirmation(ctx context.Context, db *gorm.DB, requestID string, createdAt time.Time, window time.Duration) (*domain.TaskConfirmation, error) {
	c := &domain.TaskConfirmation{
		ID:        uuid.NewString(),
		RequestID: requestID,
		ExpiresAt: createdAt.Add(window),
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// GetConfirmation fetches a confirmation by ID, or ErrNotFound.
func GetConfirmation(ctx context.Context, db *gorm.DB, id string) (*domain.TaskConfirmation, error) {
	var c domain.TaskConfirmation
	if err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// GetConfirmationByRequest fetches the confirmation linked to requestID,
// or ErrNotFound.
func GetConfirmationByRequest(ctx context.Context, db *gorm.DB, requestID string) (*domain.TaskConfirmation, error) {
	var c domain.TaskConfirmation
	if err := db.WithContext(ctx).Where("request_id = ?", requestID).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// MarkConfirmed sets the explicit-confirmation terminal fields iff the record
// is still unresolved. ok=false means a concurrent writer resolved the record
// first (or the ID does not exist; callers that care load the record first).
func MarkConfirmed(ctx context.Context, db *gorm.DB, id string, at time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.TaskConfirmation{}).
		Where("id = ? AND confirmed = ? AND auto_released = ?", id, false, false).
		Updates(map[string]any{
			"confirmed":    true,
			"confirmed_at": at,
			"updated_at":   at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkAutoReleased sets the auto-release terminal fields iff the record is
// still unresolved. Same compare-and-set discipline as MarkConfirmed.
func MarkAutoReleased(ctx context.Context, db *gorm.DB, id string, at time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.TaskConfirmation{}).
		Where("id = ? AND confirmed = ? AND auto_released = ?", id, false, false).
		Updates(map[string]any{
			"auto_released":    true,
			"auto_released_at": at,
			"updated_at":       at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListExpiredUnresolved returns the expired-pending set: confirmations whose
// window has elapsed at now (inclusive boundary) and that carry no terminal
// flag. The predicate is idempotent — already-resolved records no longer
// match — so repeated sweeps over the same set are safe.
func ListExpiredUnresolved(ctx context.Context, db *gorm.DB, now time.Time) ([]domain.TaskConfirmation, error) {
	var out []domain.TaskConfirmation
	err := db.WithContext(ctx).
		Where("expires_at <= ? AND confirmed = ? AND auto_released = ?", now, false, false).
		Find(&out).Error
	return out, err
}

// ListPendingForProvider returns unresolved confirmations whose underlying
// request is COMPLETED and assigned to providerID, oldest deadline first.
func ListPendingForProvider(ctx context.Context, db *gorm.DB, providerID string) ([]domain.TaskConfirmation, error) {
	var out []domain.TaskConfirmation
	err := db.WithContext(ctx).
		Joins("JOIN service_requests sr ON sr.id = task_confirmations.request_id").
		Where("sr.provider_id = ? AND sr.status = ?", providerID, domain.RequestCompleted).
		Where("task_confirmations.confirmed = ? AND task_confirmations.auto_released = ?", false, false).
		Order("task_confirmations.expires_at asc").
		Find(&out).Error
	return out, err
}
