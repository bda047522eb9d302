// Admin sweep endpoint.
//
// The sweep normally runs on a schedule inside the server process; this
// endpoint lets operators trigger an immediate pass, typically after an
// incident or clock adjustment. It is mounted behind RequireAdmin.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RunSweep godoc
// @ID          runSweep
// @Summary     Run the expiry sweep now
// @Description Auto-releases every confirmation whose deadline has passed without a client decision.
// @Description Safe to call repeatedly; records already resolved are skipped.
// @Tags        Admin
// @Produce     json
//
// @Param       Authorization  header  string  true  "Bearer token with admin claim"
//
// @Success     200  {object}  services.SweepResult
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     403  {object}  handlers.ErrorResponse  "Admin claim required"
// @Failure     500  {object}  handlers.ErrorResponse  "Sweep failed"
// @Router      /admin/sweep [post]
func (h *Handlers) RunSweep(c *gin.Context) {
	res, err := h.sweepSvc.Run(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeSweepFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, res)
}
