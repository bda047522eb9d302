// Package repo implements the escrow ledger, backed by GORM. This file
// provides repository functions for the Payment model.
//
// Error semantics:
//   - A missing payment is reported as ErrNotFound (gorm.ErrRecordNotFound).
//   - The ESCROW→APPROVED transition is a conditional update; a zero-row
//     result means the payment was not in ESCROW (already approved, rejected,
//     or never escrowed) and is reported as ok=false without an error so the
//     caller can decide whether that is a conflict or a no-op.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/servihub/go-escrow-backend/internal/domain"
)

// CreatePayment inserts a payment row for the given request. The 1:1
// request/payment relation is enforced by the unique index on request_id;
// a second insert for the same request fails with a constraint error.
func CreatePayment(ctx context.Context, db *gorm.DB, requestID, userID, providerID string, amount float64, status domain.PaymentStatus, externalRef string, now time.Time) (*domain.Payment, error) {
	p := &domain.Payment{
		ID:                uuid.NewString(),
		RequestID:         requestID,
		UserID:            userID,
		ProviderID:        providerID,
		Amount:            amount,
		Status:            status,
		ExternalReference: externalRef,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// GetPaymentByRequest fetches the payment linked to requestID, or ErrNotFound.
func GetPaymentByRequest(ctx context.Context, db *gorm.DB, requestID string) (*domain.Payment, error) {
	var p domain.Payment
	if err := db.WithContext(ctx).Where("request_id = ?", requestID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ApprovePayment releases the escrowed payment for requestID: a conditional
// update from ESCROW to APPROVED. The condition makes the release write-once;
// whichever caller commits first wins and any later attempt affects zero rows
// (ok=false, nil error).
func ApprovePayment(ctx context.Context, db *gorm.DB, requestID string, now time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("request_id = ? AND status = ?", requestID, domain.PaymentEscrow).
		Updates(map[string]any{
			"status":     domain.PaymentApproved,
			"updated_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListEscrowPaymentsForProvider returns ESCROW payments payable to
// providerID whose underlying request is still active: IN_PROGRESS, or
// COMPLETED without a confirmation record yet (the instant between the
// provider marking done and the confirmation row landing).
func ListEscrowPaymentsForProvider(ctx context.Context, db *gorm.DB, providerID string) ([]domain.Payment, error) {
	var out []domain.Payment
	err := db.WithContext(ctx).
		Joins("JOIN service_requests sr ON sr.id = payments.request_id").
		Where("payments.provider_id = ? AND payments.status = ?", providerID, domain.PaymentEscrow).
		Where(
			db.Where("sr.status = ?", domain.RequestInProgress).
				Or("sr.status = ? AND NOT EXISTS (SELECT 1 FROM task_confirmations tc WHERE tc.request_id = sr.id)", domain.RequestCompleted),
		).
		Order("payments.created_at desc").
		Find(&out).Error
	return out, err
}
