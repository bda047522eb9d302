// Package services – QueryService
//
// This file implements the read-side projections consumed by provider
// dashboards: confirmations awaiting resolution, payments currently held in
// escrow, and an aggregate summary. All projections are filtered joins over
// the ledger; nothing here mutates state. Access control is strict: a
// principal may only read their own provider view.
package services

import (
	"context"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gorm.io/gorm"

	"github.com/servihub/go-escrow-backend/internal/domain"
	"github.com/servihub/go-escrow-backend/internal/repo"
)

// EscrowPaymentView is a Payment enriched with a locale-formatted amount for
// display.
type EscrowPaymentView struct {
	domain.Payment
	DisplayAmount string `json:"display_amount"`
}

// EscrowSummary aggregates a provider's outstanding escrow position.
type EscrowSummary struct {
	PendingConfirmations int64      `json:"pending_confirmations"`
	NextExpiry           *time.Time `json:"next_expiry,omitempty"`
	HeldPayments         int64      `json:"held_payments"`
	HeldTotal            float64    `json:"held_total"`
	DisplayHeldTotal     string     `json:"display_held_total"`
}

// QueryService provides provider-scoped read projections over the ledger.
type QueryService struct {
	// DB is the GORM handle used for the projection queries.
	DB *gorm.DB
	// Printer formats monetary amounts for display.
	Printer *message.Printer
}

// NewQueryService constructs a QueryService with an English-locale printer.
func NewQueryService(db *gorm.DB) *QueryService {
	return &QueryService{
		DB:      db,
		Printer: message.NewPrinter(language.English),
	}
}

// PendingConfirmations returns the unresolved confirmations on COMPLETED
// requests assigned to providerID, nearest deadline first. The principal must
// be the provider being queried; any mismatch yields ErrForbidden.
func (s *QueryService) PendingConfirmations(ctx context.Context, principalID, providerID string) ([]domain.TaskConfirmation, error) {
	if principalID != providerID {
		return nil, ErrForbidden
	}
	return repo.ListPendingForProvider(ctx, s.DB, providerID)
}

// EscrowPayments returns the payments currently held for providerID whose
// request is IN_PROGRESS, or COMPLETED with no confirmation record yet.
// The principal must be the provider being queried.
func (s *QueryService) EscrowPayments(ctx context.Context, principalID, providerID string) ([]EscrowPaymentView, error) {
	if principalID != providerID {
		return nil, ErrForbidden
	}
	rows, err := repo.ListEscrowPaymentsForProvider(ctx, s.DB, providerID)
	if err != nil {
		return nil, err
	}
	out := make([]EscrowPaymentView, 0, len(rows))
	for _, p := range rows {
		out = append(out, EscrowPaymentView{
			Payment:       p,
			DisplayAmount: s.formatAmount(p.Amount),
		})
	}
	return out, nil
}

// Summary returns aggregate escrow metadata for providerID: unresolved
// confirmation count with the nearest deadline, and held payment count/total.
// The principal must be the provider being queried.
func (s *QueryService) Summary(ctx context.Context, principalID, providerID string) (*EscrowSummary, error) {
	if principalID != providerID {
		return nil, ErrForbidden
	}

	pending, next, err := repo.ConfirmationStats(ctx, s.DB, providerID)
	if err != nil {
		return nil, err
	}
	held, total, err := repo.EscrowStats(ctx, s.DB, providerID)
	if err != nil {
		return nil, err
	}

	return &EscrowSummary{
		PendingConfirmations: pending,
		NextExpiry:           next,
		HeldPayments:         held,
		HeldTotal:            total,
		DisplayHeldTotal:     s.formatAmount(total),
	}, nil
}

// formatAmount renders an amount with locale-aware grouping, e.g. "1,250.00".
func (s *QueryService) formatAmount(v float64) string {
	p := s.Printer
	if p == nil {
		p = message.NewPrinter(language.English)
	}
	return p.Sprintf("%.2f", v)
}
