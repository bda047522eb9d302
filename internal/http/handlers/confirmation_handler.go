// Confirmation HTTP handlers.
//
// Confirming is the client's half of the release race: the expiry sweep is the
// other. Whichever side wins, the payment is released exactly once, so a lost
// race surfaces here as 409 with the final record attached rather than as an
// opaque failure.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/servihub/go-escrow-backend/internal/domain"
	"github.com/servihub/go-escrow-backend/internal/http/middleware"
	"github.com/servihub/go-escrow-backend/internal/services"
)

// AlreadyResolvedResponse is returned when a confirmation was already settled
// (by a prior confirm call or by the expiry sweep). It carries the final
// record so clients can show which outcome won.
type AlreadyResolvedResponse struct {
	ErrorResponse
	Confirmation *domain.TaskConfirmation `json:"confirmation,omitempty"`
}

// Confirm godoc
// @ID          confirmTask
// @Summary     Confirm a completed task
// @Description Marks the confirmation as confirmed and releases the escrowed payment.
// @Description Legal at any time before the sweep resolves it, including past the deadline.
// @Tags        Confirmations
// @Produce     json
//
// @Param       Authorization  header  string  false "Bearer token"
// @Param       id  path  string  true  "Confirmation ID"
//
// @Success     200  {object}  domain.TaskConfirmation
// @Failure     403  {object}  handlers.ErrorResponse          "Only the request's client may confirm"
// @Failure     404  {object}  handlers.ErrorResponse          "Not found"
// @Failure     409  {object}  handlers.AlreadyResolvedResponse "Already confirmed or auto-released"
// @Router      /confirmations/{id}/confirm [post]
func (h *Handlers) Confirm(c *gin.Context) {
	conf, err := h.confirmSvc.Confirm(c.Request.Context(), middleware.PrincipalID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrAlreadyResolved) {
			reqID := c.Writer.Header().Get("X-Request-ID")
			c.AbortWithStatusJSON(http.StatusConflict, AlreadyResolvedResponse{
				ErrorResponse: ErrorResponse{
					RequestID: reqID,
					Code:      ErrCodeAlreadyResolved,
					Message:   "confirmation already resolved",
				},
				Confirmation: conf,
			})
			return
		}
		mapDomainError(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, conf)
}
