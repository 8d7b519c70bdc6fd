package handlers

import (
	"net/http"

	"github.com/dojoflow/tuition-api/internal/services"
	"github.com/gin-gonic/gin"
)

// JobHandler reports on the background worker
type JobHandler struct {
	jobSvc *services.JobService
}

// NewJobHandler creates a new job handler
func NewJobHandler(jobSvc *services.JobService) *JobHandler {
	return &JobHandler{jobSvc: jobSvc}
}

// Status returns the background worker counters
// @Summary Background worker status
// @Description Counters for the background worker running the billing tick: active, completed and failed jobs plus queue length
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} jobs.WorkerStats
// @Router /jobs/status [get]
func (h *JobHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.jobSvc.Status())
}
