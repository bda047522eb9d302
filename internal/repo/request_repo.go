// Package repo implements the escrow ledger, backed by GORM. This file
// provides repository functions for the ServiceRequest model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition. Status transitions are expressed as
// conditional updates so that the legality check and the write are a single
// atomic statement; a zero-row result means the precondition no longer held.
//
// Error semantics:
//   - When a request is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/servihub/go-escrow-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateRequest inserts a new ServiceRequest in status PENDING owned by
// clientID. The request ID is a randomly generated UUID, and CreatedAt is
// set to the supplied instant.
func CreateRequest(ctx context.Context, db *gorm.DB, clientID, serviceTypeID string, now time.Time) (*domain.ServiceRequest, error) {
	r := &domain.ServiceRequest{
		ID:            uuid.NewString(),
		ClientID:      clientID,
		ServiceTypeID: serviceTypeID,
		Status:        domain.RequestPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}

// GetRequest fetches a single request by ID. If the record does not exist,
// it returns ErrNotFound.
func GetRequest(ctx context.Context, db *gorm.DB, id string) (*domain.ServiceRequest, error) {
	var r domain.ServiceRequest
	if err := db.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// TransitionRequest moves a request from one status to the next and applies
// any extra column updates in the same statement. The update is conditioned
// on the current status, so a concurrent writer that already moved the record
// causes a zero-row result, reported as ok=false with no error.
func TransitionRequest(ctx context.Context, db *gorm.DB, id string, from, to domain.RequestStatus, extra map[string]any, now time.Time) (bool, error) {
	updates := map[string]any{
		"status":     to,
		"updated_at": now,
	}
	for k, v := range extra {
		updates[k] = v
	}
	res := db.WithContext(ctx).
		Model(&domain.ServiceRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListRequestsByClient returns all requests created by clientID, most recent
// first. It returns an empty slice if the client has none.
func ListRequestsByClient(ctx context.Context, db *gorm.DB, clientID string) ([]domain.ServiceRequest, error) {
	var out []domain.ServiceRequest
	err := db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// ListRequestsByProvider returns all requests assigned to providerID, most
// recent first.
func ListRequestsByProvider(ctx context.Context, db *gorm.DB, providerID string) ([]domain.ServiceRequest, error) {
	var out []domain.ServiceRequest
	err := db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}
