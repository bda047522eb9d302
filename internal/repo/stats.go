// Package repo implements the escrow ledger, backed by GORM. This file
// provides small aggregate queries over the ledger, used by the read-side
// projections (provider dashboards) in the HTTP layer. Each function is
// context-aware and safe to call from services or handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/servihub/go-escrow-backend/internal/domain"
)

// ConfirmationStats returns aggregate metadata for a provider's unresolved
// confirmations: the total number of records awaiting resolution and the
// nearest upcoming deadline among them.
//
// When the provider has no pending confirmations, the returned count is 0
// and nextExpiry is nil.
//
// Return values:
//   - count:      unresolved confirmations on COMPLETED requests for providerID
//   - nextExpiry: pointer to the smallest ExpiresAt, or nil if no rows
//   - err:        database error, if any
func ConfirmationStats(ctx context.Context, db *gorm.DB, providerID string) (count int64, nextExpiry *time.Time, err error) {
	q := db.WithContext(ctx).
		Model(&domain.TaskConfirmation{}).
		Joins("JOIN service_requests sr ON sr.id = task_confirmations.request_id").
		Where("sr.provider_id = ? AND sr.status = ?", providerID, domain.RequestCompleted).
		Where("task_confirmations.confirmed = ? AND task_confirmations.auto_released = ?", false, false)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get the nearest deadline (avoid MIN() -> TEXT in SQLite)
	var row struct {
		ExpiresAt time.Time
	}
	if err = q.Select("task_confirmations.expires_at AS expires_at").Order("task_confirmations.expires_at ASC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.ExpiresAt, nil
}

// EscrowStats returns the number of ESCROW payments payable to providerID and
// their total amount. Both are zero when nothing is currently held.
func EscrowStats(ctx context.Context, db *gorm.DB, providerID string) (count int64, total float64, err error) {
	q := db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("provider_id = ? AND status = ?", providerID, domain.PaymentEscrow)

	if err = q.Count(&count).Error; err != nil {
		return 0, 0, err
	}
	if count == 0 {
		return 0, 0, nil
	}

	var row struct {
		Total float64
	}
	if err = q.Select("COALESCE(SUM(amount), 0) AS total").Scan(&row).Error; err != nil {
		return 0, 0, err
	}
	return count, row.Total, nil
}
