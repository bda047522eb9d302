// Package services – RequestService
//
// This file implements the ServiceRequest lifecycle: created PENDING by the
// client, priced by a provider, started by the client (which escrows the
// payment), completed by the provider (which opens the confirmation window),
// or cancelled before work starts. Status transitions are applied through
// conditional updates so concurrent actors cannot double-apply a step.
package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/servihub/go-escrow-backend/internal/domain"
	"github.com/servihub/go-escrow-backend/internal/repo"
)

// DefaultConfirmationWindow is the span the client has to explicitly confirm
// completed work before the sweep auto-releases the payment.
const DefaultConfirmationWindow = 48 * time.Hour

// RequestService provides the request lifecycle operations. It enforces
// party rules (who may act at each step) and the pricing invariant (a
// positive price before work starts).
type RequestService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Clock supplies transition instants; injectable for tests.
	Clock Clock
	// ConfirmationWindow is added to the completion instant to produce the
	// confirmation deadline.
	ConfirmationWindow time.Duration
}

// NewRequestService constructs a RequestService with the default 48h window.
func NewRequestService(db *gorm.DB) *RequestService {
	return &RequestService{
		DB:                 db,
		Clock:              SystemClock{},
		ConfirmationWindow: DefaultConfirmationWindow,
	}
}

// Create opens a new PENDING request owned by clientID.
func (s *RequestService) Create(ctx context.Context, clientID, serviceTypeID string) (*domain.ServiceRequest, error) {
	return repo.CreateRequest(ctx, s.DB, clientID, serviceTypeID, s.now())
}

// Get fetches a request visible to principalID. Only the client and the
// assigned provider may read it; anyone else gets ErrForbidden.
func (s *RequestService) Get(ctx context.Context, principalID, requestID string) (*domain.ServiceRequest, error) {
	r, err := repo.GetRequest(ctx, s.DB, requestID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	if r.ClientID != principalID && r.ProviderID != principalID {
		return nil, ErrForbidden
	}
	return r, nil
}

// Quote lets providerID claim a PENDING request and set its price, moving it
// to PRICED. A request already claimed by another provider yields
// ErrForbidden; a non-positive price yields ErrInvalidPrice.
func (s *RequestService) Quote(ctx context.Context, providerID, requestID string, price float64) (*domain.ServiceRequest, error) {
	if price <= 0 {
		return nil, ErrInvalidPrice
	}
	now := s.now()

	var out *domain.ServiceRequest
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := repo.GetRequest(ctx, tx, requestID)
		if err != nil {
			if isNotFound(err) {
				return ErrRequestNotFound
			}
			return err
		}
		if r.ProviderID != "" && r.ProviderID != providerID {
			return ErrForbidden
		}
		if r.Status != domain.RequestPending {
			return ErrInvalidTransition
		}

		ok, err := repo.TransitionRequest(ctx, tx, requestID, domain.RequestPending, domain.RequestPriced,
			map[string]any{"provider_id": providerID, "price": price}, now)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidTransition
		}

		out, err = repo.GetRequest(ctx, tx, requestID)
		return err
	})
	return out, err
}

// Start is the client accepting the quote: the request moves to IN_PROGRESS
// and the payment is created in ESCROW in the same transaction. Only the
// owning client may start; the price must already be set and positive.
// externalRef carries the payment-gateway correlation key.
func (s *RequestService) Start(ctx context.Context, clientID, requestID, externalRef string) (*domain.ServiceRequest, error) {
	now := s.now()

	var out *domain.ServiceRequest
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := repo.GetRequest(ctx, tx, requestID)
		if err != nil {
			if isNotFound(err) {
				return ErrRequestNotFound
			}
			return err
		}
		if r.ClientID != clientID {
			return ErrForbidden
		}
		if r.Status != domain.RequestPriced {
			return ErrInvalidTransition
		}
		if r.Price == nil || *r.Price <= 0 {
			return ErrPriceNotSet
		}

		ok, err := repo.TransitionRequest(ctx, tx, requestID, domain.RequestPriced, domain.RequestInProgress, nil, now)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidTransition
		}

		if _, err := repo.CreatePayment(ctx, tx, requestID, r.ClientID, r.ProviderID, *r.Price, domain.PaymentEscrow, externalRef, now); err != nil {
			if isDuplicate(err) {
				// A payment already exists for this request; the 1:1 invariant
				// makes a second escrow illegal.
				return ErrInvalidTransition
			}
			return err
		}

		out, err = repo.GetRequest(ctx, tx, requestID)
		return err
	})
	return out, err
}

// Complete is the provider marking work done: the request moves to COMPLETED
// and the confirmation record is created in the same transaction, opening the
// client's confirmation window. Exactly one confirmation exists per request.
func (s *RequestService) Complete(ctx context.Context, providerID, requestID string) (*domain.ServiceRequest, *domain.TaskConfirmation, error) {
	now := s.now()

	var (
		outReq  *domain.ServiceRequest
		outConf *domain.TaskConfirmation
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := repo.GetRequest(ctx, tx, requestID)
		if err != nil {
			if isNotFound(err) {
				return ErrRequestNotFound
			}
			return err
		}
		if r.ProviderID != providerID {
			return ErrForbidden
		}
		if r.Status != domain.RequestInProgress {
			return ErrInvalidTransition
		}

		ok, err := repo.TransitionRequest(ctx, tx, requestID, domain.RequestInProgress, domain.RequestCompleted, nil, now)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidTransition
		}

		c, err := repo.CreateConfirmation(ctx, tx, requestID, now, s.window())
		if err != nil {
			if isDuplicate(err) {
				return ErrInvalidTransition
			}
			return err
		}
		outConf = c

		outReq, err = repo.GetRequest(ctx, tx, requestID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return outReq, outConf, nil
}

// Cancel withdraws a request before any work starts. Only the owning client
// may cancel, and only from PENDING or PRICED.
func (s *RequestService) Cancel(ctx context.Context, clientID, requestID string) (*domain.ServiceRequest, error) {
	now := s.now()

	var out *domain.ServiceRequest
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := repo.GetRequest(ctx, tx, requestID)
		if err != nil {
			if isNotFound(err) {
				return ErrRequestNotFound
			}
			return err
		}
		if r.ClientID != clientID {
			return ErrForbidden
		}
		if r.Status != domain.RequestPending && r.Status != domain.RequestPriced {
			return ErrInvalidTransition
		}

		ok, err := repo.TransitionRequest(ctx, tx, requestID, r.Status, domain.RequestCancelled, nil, now)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidTransition
		}

		out, err = repo.GetRequest(ctx, tx, requestID)
		return err
	})
	return out, err
}

// window returns the configured confirmation window, defaulting to 48h for
// zero-value services.
func (s *RequestService) window() time.Duration {
	if s.ConfirmationWindow > 0 {
		return s.ConfirmationWindow
	}
	return DefaultConfirmationWindow
}

// now returns the injected clock's instant, falling back to the system clock
// for zero-value services.
func (s *RequestService) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now()
	}
	return SystemClock{}.Now()
}
