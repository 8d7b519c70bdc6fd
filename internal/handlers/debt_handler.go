package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dojoflow/tuition-api/internal/repository"
	"github.com/dojoflow/tuition-api/internal/services"
	"github.com/gin-gonic/gin"
)

type DebtHandler struct {
	debtService *services.DebtService
}

func NewDebtHandler(debtService *services.DebtService) *DebtHandler {
	return &DebtHandler{debtService: debtService}
}

// @Summary List Debt Records
// @Description Get a paginated list of the organization's debt records
// @Tags Debts
// @Accept json
// @Produce json
// @Param organization_id path int true "Organization ID"
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param status query string false "Filter by status"
// @Param member_id query int false "Filter by member"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /organizations/{organization_id}/debts [get]
func (h *DebtHandler) Index(c *gin.Context) {
	orgID, _ := strconv.ParseUint(c.Param("organization_id"), 10, 32)

	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Filters["status"] = c.Query("status")
	query.Filters["category"] = c.Query("category")
	query.Filters["member_id"] = c.Query("member_id")

	// Parse sort parameter (format: field-direction)
	if sort := c.Query("sort"); sort != "" {
		parts := strings.Split(sort, "-")
		query.SortBy = parts[0]
		if len(parts) > 1 {
			query.SortDir = parts[1]
		}
	}

	records, total, err := h.debtService.List(c.Request.Context(), uint(orgID), query)
	if err != nil {
		respondError(c, err)
		return
	}

	var responses []interface{}
	for i := range records {
		responses = append(responses, records[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"debts": responses,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// @Summary Get Debt Record
// @Description Get one debt record with its payment history
// @Tags Debts
// @Produce json
// @Param debt_id path int true "Debt Record ID"
// @Success 200 {object} models.DebtRecordResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /debts/{debt_id} [get]
func (h *DebtHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("debt_id"), 10, 32)
	record, err := h.debtService.FindByID(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"debt": record.ToResponse()})
}

// @Summary Create Charge
// @Description Create a debt record with its open charge entry
// @Tags Debts
// @Accept json
// @Produce json
// @Param request body services.CreateChargeInput true "Charge"
// @Success 201 {object} models.DebtRecordResponse
// @Security BearerAuth
// @Router /debts [post]
func (h *DebtHandler) Create(c *gin.Context) {
	var input services.CreateChargeInput
	if err := BindNestedOrFlat(c, "debt", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid charge payload"})
		return
	}

	record, err := h.debtService.CreateCharge(c.Request.Context(), input, getUserID(c), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"debt": record.ToResponse()})
}

type PaymentRequest struct {
	Amount float64 `json:"amount" binding:"required"`
	Method string  `json:"method" binding:"required"`
	PaidOn string  `json:"paid_on"`
}

func (r *PaymentRequest) paidOn() time.Time {
	if r.PaidOn != "" {
		if t, err := time.ParseInLocation(time.DateOnly, r.PaidOn, time.Local); err == nil {
			return t
		}
	}
	return time.Now()
}

// @Summary Apply Payment
// @Description Apply an immediately approved payment to one debt record
// @Tags Debts
// @Accept json
// @Produce json
// @Param debt_id path int true "Debt Record ID"
// @Param request body PaymentRequest true "Payment"
// @Success 200 {object} models.DebtRecordResponse
// @Security BearerAuth
// @Router /debts/{debt_id}/payments [post]
func (h *DebtHandler) ApplyPayment(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("debt_id"), 10, 32)
	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount and method are required"})
		return
	}

	record, err := h.debtService.ApplyPayment(c.Request.Context(), uint(id), req.Amount, req.Method, req.paidOn(),
		getUserID(c), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"debt": record.ToResponse(), "message": "Payment applied"})
}

// @Summary Submit Payment For Review
// @Description Submit a payment that must be approved before it settles anything
// @Tags Debts
// @Accept json
// @Produce json
// @Param debt_id path int true "Debt Record ID"
// @Param request body PaymentRequest true "Payment"
// @Success 200 {object} models.DebtRecordResponse
// @Security BearerAuth
// @Router /debts/{debt_id}/submit [post]
func (h *DebtHandler) Submit(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("debt_id"), 10, 32)
	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount and method are required"})
		return
	}

	record, err := h.debtService.SubmitForReview(c.Request.Context(), uint(id), req.Amount, req.Method, req.paidOn(),
		getUserID(c), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"debt": record.ToResponse(), "message": "Payment submitted for review"})
}

// @Summary Approve Pending Payment
// @Description Approve the pending payment on a debt record in review
// @Tags Debts
// @Produce json
// @Param debt_id path int true "Debt Record ID"
// @Success 200 {object} models.DebtRecordResponse
// @Security BearerAuth
// @Router /debts/{debt_id}/approve [post]
func (h *DebtHandler) Approve(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("debt_id"), 10, 32)
	record, err := h.debtService.Approve(c.Request.Context(), uint(id),
		getUserID(c), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"debt": record.ToResponse(), "message": "Payment approved"})
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

// @Summary Reject Pending Payment
// @Description Reject the pending payment and revert the record to its prior state
// @Tags Debts
// @Accept json
// @Produce json
// @Param debt_id path int true "Debt Record ID"
// @Param request body RejectRequest false "Rejection reason (optional)"
// @Success 200 {object} models.DebtRecordResponse
// @Security BearerAuth
// @Router /debts/{debt_id}/reject [post]
func (h *DebtHandler) Reject(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("debt_id"), 10, 32)
	var req RejectRequest
	c.ShouldBindJSON(&req)

	record, err := h.debtService.Reject(c.Request.Context(), uint(id),
		getUserID(c), req.Reason, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"debt": record.ToResponse(), "message": "Payment rejected"})
}

type AdjustRequest struct {
	NewTotal float64 `json:"new_total" binding:"required"`
}

// @Summary Adjust Debt Total
// @Description Change the total owed, recorded as an offsetting ledger entry
// @Tags Debts
// @Accept json
// @Produce json
// @Param debt_id path int true "Debt Record ID"
// @Param request body AdjustRequest true "New total"
// @Success 200 {object} models.DebtRecordResponse
// @Security BearerAuth
// @Router /debts/{debt_id}/adjust [post]
func (h *DebtHandler) Adjust(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("debt_id"), 10, 32)
	var req AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "New total is required"})
		return
	}

	record, err := h.debtService.AdjustTotal(c.Request.Context(), uint(id), req.NewTotal,
		getUserID(c), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"debt": record.ToResponse(), "message": "Debt adjusted"})
}

// @Summary Delete Debt Record
// @Description Delete a debt record that has no payments, writing off its charges
// @Tags Debts
// @Produce json
// @Param debt_id path int true "Debt Record ID"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /debts/{debt_id} [delete]
func (h *DebtHandler) Delete(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("debt_id"), 10, 32)
	if err := h.debtService.Delete(c.Request.Context(), uint(id),
		getUserID(c), c.ClientIP(), c.Request.UserAgent()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Debt record deleted"})
}
