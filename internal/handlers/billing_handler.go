package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dojoflow/tuition-api/internal/services"
	"github.com/gin-gonic/gin"
)

type BillingHandler struct {
	billingService *services.BillingService
}

func NewBillingHandler(billingService *services.BillingService) *BillingHandler {
	return &BillingHandler{billingService: billingService}
}

// @Summary Run Billing
// @Description Trigger the monthly billing and late fee jobs for one organization (Admin). Safe to call repeatedly: run markers and month checks keep charges from doubling.
// @Tags Billing
// @Produce json
// @Param organization_id path int true "Organization ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /organizations/{organization_id}/billing/run [post]
func (h *BillingHandler) Run(c *gin.Context) {
	orgID, _ := strconv.ParseUint(c.Param("organization_id"), 10, 32)
	today := time.Now()

	monthly, err := h.billingService.RunMonthlyBilling(c.Request.Context(), uint(orgID), today)
	if err != nil {
		respondError(c, err)
		return
	}
	lateFees, err := h.billingService.RunLateFees(c.Request.Context(), uint(orgID), today)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"monthly_billing": monthly,
		"late_fees":       lateFees,
	})
}
