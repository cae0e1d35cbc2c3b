package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"budgeting/internal/services"
)

// JobHandler exposes the scheduled batch jobs to the scheduler.
type JobHandler struct {
	jobService services.JobServicer
	now        func() time.Time
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(jobService services.JobServicer) *JobHandler {
	return &JobHandler{jobService: jobService, now: time.Now}
}

// ImportLinkedWallets runs one import batch.
// @Summary     Import linked wallet transactions
// @Description Import the aggregator transactions of the next batch of linked wallets (system token only)
// @Tags        jobs
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.JobResult "Run outcome"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not the system principal"
// @Failure     503 {object} ErrorResponse "System token not configured"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /jobs/import-plaid-transaction [post]
func (h *JobHandler) ImportLinkedWallets(c *gin.Context) {
	result, err := h.jobService.ImportLinkedWallets(c.Request.Context(), h.now())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// NotifyEndingBudgets sends the budget end notifications.
// @Summary     Notify ending budgets
// @Description Notify owners of budgets whose end date falls in the notification window (system token only)
// @Tags        jobs
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.JobResult "Run outcome"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not the system principal"
// @Failure     503 {object} ErrorResponse "System token not configured"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /jobs/end-budget-notify [post]
func (h *JobHandler) NotifyEndingBudgets(c *gin.Context) {
	result, err := h.jobService.NotifyEndingBudgets(c.Request.Context(), h.now())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
