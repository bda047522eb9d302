// Service request HTTP handlers.
//
// This file exposes REST endpoints for the service request lifecycle:
//   - POST   /requests                (create)
//   - GET    /requests/{id}           (fetch, participants only)
//   - POST   /requests/{id}/quote     (provider prices the request)
//   - POST   /requests/{id}/start     (client accepts; funds move to escrow)
//   - POST   /requests/{id}/complete  (provider finishes; confirmation window opens)
//   - POST   /requests/{id}/cancel    (client cancels before work starts)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results (including sentinel errors) into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/servihub/go-escrow-backend/internal/domain"
	"github.com/servihub/go-escrow-backend/internal/http/middleware"
	"github.com/servihub/go-escrow-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// RequestService defines the service request lifecycle operations consumed by
// HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type RequestService interface {
	// Create opens a new request for clientID referencing a service type.
	Create(ctx context.Context, clientID, serviceTypeID string) (*domain.ServiceRequest, error)
	// Get returns a request visible to principalID (client or provider).
	Get(ctx context.Context, principalID, requestID string) (*domain.ServiceRequest, error)
	// Quote attaches a price and provider to a pending request.
	Quote(ctx context.Context, providerID, requestID string, price float64) (*domain.ServiceRequest, error)
	// Start accepts the quote and escrows the payment atomically.
	Start(ctx context.Context, clientID, requestID, externalRef string) (*domain.ServiceRequest, error)
	// Complete marks the work done and opens the confirmation window.
	Complete(ctx context.Context, providerID, requestID string) (*domain.ServiceRequest, *domain.TaskConfirmation, error)
	// Cancel aborts a request that has not started yet.
	Cancel(ctx context.Context, clientID, requestID string) (*domain.ServiceRequest, error)
}

// ConfirmationService defines the client-side confirmation operation.
type ConfirmationService interface {
	// Confirm resolves a pending confirmation and releases the escrowed payment.
	Confirm(ctx context.Context, actorID, confirmationID string) (*domain.TaskConfirmation, error)
}

// SweepService defines the expiry sweep operation exposed to operators.
type SweepService interface {
	// Run auto-releases every expired, unresolved confirmation.
	Run(ctx context.Context) (services.SweepResult, error)
}

// QueryService defines provider-facing read-side projections.
type QueryService interface {
	// PendingConfirmations lists unresolved confirmations for a provider.
	PendingConfirmations(ctx context.Context, principalID, providerID string) ([]domain.TaskConfirmation, error)
	// EscrowPayments lists payments currently held in escrow for a provider.
	EscrowPayments(ctx context.Context, principalID, providerID string) ([]services.EscrowPaymentView, error)
	// Summary aggregates pending confirmations and held funds for a provider.
	Summary(ctx context.Context, principalID, providerID string) (*services.EscrowSummary, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for requests, confirmations, provider
// projections, and the admin sweep. It depends on abstract service interfaces
// to keep transport concerns separate from business logic.
type Handlers struct {
	reqSvc     RequestService
	confirmSvc ConfirmationService
	sweepSvc   SweepService
	querySvc   QueryService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(reqSvc RequestService, confirmSvc ConfirmationService, sweepSvc SweepService, querySvc QueryService) *Handlers {
	return &Handlers{reqSvc: reqSvc, confirmSvc: confirmSvc, sweepSvc: sweepSvc, querySvc: querySvc}
}

//
// DTOs
//

// CreateRequestRequest is the JSON payload for opening a service request.
type CreateRequestRequest struct {
	// ServiceTypeID identifies the catalog entry being requested.
	ServiceTypeID string `json:"service_type_id" binding:"required,min=1,max=64" example:"plumbing-repair"`
}

// QuoteRequest is the JSON payload for pricing a pending request.
type QuoteRequest struct {
	// Price is the agreed amount; must be strictly positive.
	Price float64 `json:"price" binding:"required" example:"150.00"`
}

// StartRequest is the JSON payload for accepting a quote.
type StartRequest struct {
	// ExternalReference optionally carries the payment gateway reference.
	ExternalReference string `json:"external_reference" example:"gw-7f3a2b"`
}

//
// Helpers
//

// mapDomainError translates service sentinel errors into HTTP failures.
// Unrecognized errors fall through to a 500 with fallbackCode.
func mapDomainError(c *gin.Context, err error, fallbackCode string) {
	switch {
	case errors.Is(err, services.ErrRequestNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "service request not found")
	case errors.Is(err, services.ErrConfirmationNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "confirmation not found")
	case errors.Is(err, services.ErrForbidden):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "not a participant of this request")
	case errors.Is(err, services.ErrInvalidTransition):
		fail(c, http.StatusConflict, ErrCodeInvalidTransition, err.Error())
	case errors.Is(err, services.ErrInvalidPrice), errors.Is(err, services.ErrPriceNotSet):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	default:
		fail(c, http.StatusInternalServerError, fallbackCode, err.Error())
	}
}

//
// Handlers
//

// CreateRequest godoc
// @ID          createRequest
// @Summary     Open a service request
// @Description Creates a PENDING service request for the authenticated client.
// @Tags        Requests
// @Accept      json
// @Produce     json
//
// @Param       Authorization  header  string  false "Bearer token"
// @Param       body  body  handlers.CreateRequestRequest  true  "Create request payload"
//
// @Success     201  {object}  domain.ServiceRequest
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /requests [post]
func (h *Handlers) CreateRequest(c *gin.Context) {
	var req CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	sr, err := h.reqSvc.Create(c.Request.Context(), middleware.PrincipalID(c), strings.TrimSpace(req.ServiceTypeID))
	if err != nil {
		mapDomainError(c, err, ErrCodeCreateFailed)
		return
	}
	ok(c, http.StatusCreated, sr)
}

// GetRequest godoc
// @ID          getRequest
// @Summary     Fetch a service request
// @Description Returns one request; only the client or the assigned provider may read it.
// @Tags        Requests
// @Produce     json
//
// @Param       Authorization  header  string  false "Bearer token"
// @Param       id  path  string  true  "Request ID"
//
// @Success     200  {object}  domain.ServiceRequest
// @Failure     403  {object}  handlers.ErrorResponse  "Forbidden"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /requests/{id} [get]
func (h *Handlers) GetRequest(c *gin.Context) {
	sr, err := h.reqSvc.Get(c.Request.Context(), middleware.PrincipalID(c), c.Param("id"))
	if err != nil {
		mapDomainError(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, sr)
}

// QuoteRequest godoc
// @ID          quoteRequest
// @Summary     Price a pending request
// @Description Attaches a positive price to a PENDING request and assigns the quoting provider.
// @Tags        Requests
// @Accept      json
// @Produce     json
//
// @Param       Authorization  header  string  false "Bearer token"
// @Param       id    path  string  true  "Request ID"
// @Param       body  body  handlers.QuoteRequest  true  "Quote payload"
//
// @Success     200  {object}  domain.ServiceRequest
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid price"
// @Failure     403  {object}  handlers.ErrorResponse  "Forbidden"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Invalid transition"
// @Router      /requests/{id}/quote [post]
func (h *Handlers) QuoteRequest(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	sr, err := h.reqSvc.Quote(c.Request.Context(), middleware.PrincipalID(c), c.Param("id"), req.Price)
	if err != nil {
		mapDomainError(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, sr)
}

// StartRequest godoc
// @ID          startRequest
// @Summary     Accept a quote and escrow the payment
// @Description Moves a PRICED request to IN_PROGRESS and creates the escrowed payment atomically.
// @Tags        Requests
// @Accept      json
// @Produce     json
//
// @Param       Authorization  header  string  false "Bearer token"
// @Param       id    path  string  true   "Request ID"
// @Param       body  body  handlers.StartRequest  false  "Start payload"
//
// @Success     200  {object}  domain.ServiceRequest
// @Failure     403  {object}  handlers.ErrorResponse  "Forbidden"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Invalid transition"
// @Router      /requests/{id}/start [post]
func (h *Handlers) StartRequest(c *gin.Context) {
	var req StartRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}

	sr, err := h.reqSvc.Start(c.Request.Context(), middleware.PrincipalID(c), c.Param("id"), strings.TrimSpace(req.ExternalReference))
	if err != nil {
		mapDomainError(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, sr)
}

// CompleteRequestResponse pairs the completed request with its newly opened
// confirmation so clients learn the confirmation deadline in one round trip.
type CompleteRequestResponse struct {
	Request      *domain.ServiceRequest   `json:"request"`
	Confirmation *domain.TaskConfirmation `json:"confirmation"`
}

// CompleteRequest godoc
// @ID          completeRequest
// @Summary     Mark work as completed
// @Description Moves an IN_PROGRESS request to COMPLETED and opens the confirmation window.
// @Tags        Requests
// @Produce     json
//
// @Param       Authorization  header  string  false "Bearer token"
// @Param       id  path  string  true  "Request ID"
//
// @Success     200  {object}  handlers.CompleteRequestResponse
// @Failure     403  {object}  handlers.ErrorResponse  "Forbidden"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Invalid transition"
// @Router      /requests/{id}/complete [post]
func (h *Handlers) CompleteRequest(c *gin.Context) {
	sr, conf, err := h.reqSvc.Complete(c.Request.Context(), middleware.PrincipalID(c), c.Param("id"))
	if err != nil {
		mapDomainError(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, CompleteRequestResponse{Request: sr, Confirmation: conf})
}

// CancelRequest godoc
// @ID          cancelRequest
// @Summary     Cancel a request before work starts
// @Description Moves a PENDING or PRICED request to CANCELLED. Not allowed once escrow exists.
// @Tags        Requests
// @Produce     json
//
// @Param       Authorization  header  string  false "Bearer token"
// @Param       id  path  string  true  "Request ID"
//
// @Success     200  {object}  domain.ServiceRequest
// @Failure     403  {object}  handlers.ErrorResponse  "Forbidden"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Invalid transition"
// @Router      /requests/{id}/cancel [post]
func (h *Handlers) CancelRequest(c *gin.Context) {
	sr, err := h.reqSvc.Cancel(c.Request.Context(), middleware.PrincipalID(c), c.Param("id"))
	if err != nil {
		mapDomainError(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, sr)
}
