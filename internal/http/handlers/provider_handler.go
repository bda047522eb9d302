// Provider-facing read endpoints.
//
// These projections back the provider dashboard: which completed tasks still
// await client confirmation, which payments are currently held, and a summary
// of both. All three are gated so a provider can only read their own rows.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/servihub/go-escrow-backend/internal/domain"
	"github.com/servihub/go-escrow-backend/internal/http/middleware"
	"github.com/servihub/go-escrow-backend/internal/services"
	"github.com/servihub/go-escrow-backend/internal/utils"
)

// clampLimit parses the optional ?limit= query param and bounds it to a sane
// ceiling. Zero means "no cap".
func clampLimit(c *gin.Context) int {
	const maxLimit = 500
	n := utils.AtoiDefault(c.Query("limit"), 0)
	if n < 0 {
		return 0
	}
	if n > maxLimit {
		return maxLimit
	}
	return n
}

// PendingConfirmationsResponse wraps the list of unresolved confirmations.
type PendingConfirmationsResponse struct {
	Confirmations []domain.TaskConfirmation `json:"confirmations"`
}

// EscrowPaymentsResponse wraps the list of held payments.
type EscrowPaymentsResponse struct {
	Payments []services.EscrowPaymentView `json:"payments"`
}

// ListPendingConfirmations godoc
// @ID          listPendingConfirmations
// @Summary     List confirmations awaiting the client
// @Description Returns unresolved confirmations for the provider's completed tasks, soonest deadline first.
// @Tags        Providers
// @Produce     json
//
// @Param       Authorization  header  string  false "Bearer token"
// @Param       id     path   string  true   "Provider ID"
// @Param       limit  query  int     false  "Cap the number of rows returned"  minimum(1) maximum(500)
//
// @Success     200  {object}  handlers.PendingConfirmationsResponse
// @Failure     403  {object}  handlers.ErrorResponse  "Forbidden"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /providers/{id}/confirmations/pending [get]
func (h *Handlers) ListPendingConfirmations(c *gin.Context) {
	items, err := h.querySvc.PendingConfirmations(c.Request.Context(), middleware.PrincipalID(c), c.Param("id"))
	if err != nil {
		mapDomainError(c, err, ErrCodeListFailed)
		return
	}
	if n := clampLimit(c); n > 0 && len(items) > n {
		items = items[:n]
	}
	ok(c, http.StatusOK, PendingConfirmationsResponse{Confirmations: items})
}

// ListEscrowPayments godoc
// @ID          listEscrowPayments
// @Summary     List payments held in escrow
// @Description Returns the provider's payments still in escrow, with display-formatted amounts.
// @Tags        Providers
// @Produce     json
//
// @Param       Authorization  header  string  false "Bearer token"
// @Param       id     path   string  true   "Provider ID"
// @Param       limit  query  int     false  "Cap the number of rows returned"  minimum(1) maximum(500)
//
// @Success     200  {object}  handlers.EscrowPaymentsResponse
// @Failure     403  {object}  handlers.ErrorResponse  "Forbidden"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /providers/{id}/payments/escrow [get]
func (h *Handlers) ListEscrowPayments(c *gin.Context) {
	items, err := h.querySvc.EscrowPayments(c.Request.Context(), middleware.PrincipalID(c), c.Param("id"))
	if err != nil {
		mapDomainError(c, err, ErrCodeListFailed)
		return
	}
	if n := clampLimit(c); n > 0 && len(items) > n {
		items = items[:n]
	}
	ok(c, http.StatusOK, EscrowPaymentsResponse{Payments: items})
}

// GetEscrowSummary godoc
// @ID          getEscrowSummary
// @Summary     Summarize held funds and pending confirmations
// @Tags        Providers
// @Produce     json
//
// @Param       Authorization  header  string  false "Bearer token"
// @Param       id  path  string  true  "Provider ID"
//
// @Success     200  {object}  services.EscrowSummary
// @Failure     403  {object}  handlers.ErrorResponse  "Forbidden"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /providers/{id}/summary [get]
func (h *Handlers) GetEscrowSummary(c *gin.Context) {
	sum, err := h.querySvc.Summary(c.Request.Context(), middleware.PrincipalID(c), c.Param("id"))
	if err != nil {
		mapDomainError(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, sum)
}
