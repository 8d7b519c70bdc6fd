package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/dojoflow/tuition-api/internal/repository"
	"github.com/dojoflow/tuition-api/internal/services"
	"github.com/dojoflow/tuition-api/internal/storage"
	"github.com/gin-gonic/gin"
)

type BatchHandler struct {
	batchService *services.BatchService
	storage      *storage.LocalStorage
}

func NewBatchHandler(batchService *services.BatchService, storage *storage.LocalStorage) *BatchHandler {
	return &BatchHandler{batchService: batchService, storage: storage}
}

type ValidateBatchRequest struct {
	DebtRecordIDs []uint  `json:"debt_record_ids" binding:"required"`
	Amount        float64 `json:"amount" binding:"required"`
}

// @Summary Validate Batch Amount
// @Description Check a proposed amount against the selected debt records without registering anything
// @Tags Batches
// @Accept json
// @Produce json
// @Param request body ValidateBatchRequest true "Selection and amount"
// @Success 200 {object} services.BatchValidation
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /payments/batch/validate [post]
func (h *BatchHandler) Validate(c *gin.Context) {
	var req ValidateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Debt record IDs and amount are required"})
		return
	}

	validation, err := h.batchService.Validate(c.Request.Context(), req.DebtRecordIDs, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"validation": validation})
}

// @Summary Register Batch Payment
// @Description Register one payment covering several debt records, optionally with a proof file
// @Tags Batches
// @Accept multipart/form-data
// @Produce json
// @Param organization_id formData int true "Organization ID"
// @Param member_id formData int true "Member ID"
// @Param debt_record_ids formData string true "Comma-separated debt record IDs"
// @Param amount formData number true "Amount"
// @Param method formData string true "Payment method"
// @Param proof formData file false "Proof of payment"
// @Success 201 {object} models.BatchPayment
// @Security BearerAuth
// @Router /payments/batch [post]
func (h *BatchHandler) Create(c *gin.Context) {
	orgID, _ := strconv.ParseUint(c.PostForm("organization_id"), 10, 32)
	memberID, _ := strconv.ParseUint(c.PostForm("member_id"), 10, 32)
	amount, _ := strconv.ParseFloat(c.PostForm("amount"), 64)
	method := c.PostForm("method")

	var ids []uint
	for _, part := range strings.Split(c.PostForm("debt_record_ids"), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid debt record ID list"})
			return
		}
		ids = append(ids, uint(id))
	}

	if orgID == 0 || memberID == 0 || method == "" || len(ids) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Organization, member, method and debt records are required"})
		return
	}

	input := services.RegisterBatchInput{
		OrganizationID: uint(orgID),
		MemberID:       uint(memberID),
		DebtRecordIDs:  ids,
		Amount:         amount,
		Method:         method,
	}

	// Proof file is optional for cash, expected for transfers
	if file, header, err := c.Request.FormFile("proof"); err == nil {
		defer file.Close()
		if c.Request.ContentLength > storage.MaxFileSize() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "File too large"})
			return
		}
		contentType := header.Header.Get("Content-Type")
		if !storage.IsValidContentType(contentType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file type"})
			return
		}
		path, err := h.storage.Upload(file, header, "proofs")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store proof file"})
			return
		}
		input.ProofPath = &path
		input.ProofMimeType = &contentType
	}

	batch, err := h.batchService.Register(c.Request.Context(), input,
		getUserID(c), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"batch": batch})
}

// @Summary List Batch Payments
// @Description Get a paginated list of the organization's batch payments
// @Tags Batches
// @Produce json
// @Param organization_id path int true "Organization ID"
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param status query string false "Filter by status"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /organizations/{organization_id}/payments/batch [get]
func (h *BatchHandler) Index(c *gin.Context) {
	orgID, _ := strconv.ParseUint(c.Param("organization_id"), 10, 32)

	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Filters["status"] = c.Query("status")
	query.Filters["member_id"] = c.Query("member_id")

	batches, total, err := h.batchService.List(c.Request.Context(), uint(orgID), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"batches": batches,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// @Summary Get Batch Payment
// @Description Get one batch payment with its allocations
// @Tags Batches
// @Produce json
// @Param batch_id path int true "Batch Payment ID"
// @Success 200 {object} models.BatchPayment
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /payments/batch/{batch_id} [get]
func (h *BatchHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("batch_id"), 10, 32)
	batch, err := h.batchService.FindByID(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"batch": batch})
}

// @Summary Approve Batch Payment
// @Description Approve a pending batch and fan the amount out to its records
// @Tags Batches
// @Produce json
// @Param batch_id path int true "Batch Payment ID"
// @Success 200 {object} models.BatchPayment
// @Security BearerAuth
// @Router /payments/batch/{batch_id}/approve [post]
func (h *BatchHandler) Approve(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("batch_id"), 10, 32)
	batch, err := h.batchService.Approve(c.Request.Context(), uint(id),
		getUserID(c), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"batch": batch, "message": "Batch approved"})
}

// @Summary Reject Batch Payment
// @Description Reject a pending batch and revert its records
// @Tags Batches
// @Accept json
// @Produce json
// @Param batch_id path int true "Batch Payment ID"
// @Param request body RejectRequest false "Rejection reason (optional)"
// @Success 200 {object} models.BatchPayment
// @Security BearerAuth
// @Router /payments/batch/{batch_id}/reject [post]
func (h *BatchHandler) Reject(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("batch_id"), 10, 32)
	var req RejectRequest
	c.ShouldBindJSON(&req)

	batch, err := h.batchService.Reject(c.Request.Context(), uint(id),
		getUserID(c), req.Reason, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"batch": batch, "message": "Batch rejected"})
}

// @Summary Download Proof
// @Description Download the batch payment's proof-of-payment file
// @Tags Batches
// @Produce application/octet-stream
// @Param batch_id path int true "Batch Payment ID"
// @Success 200 {file} file "proof"
// @Security BearerAuth
// @Router /payments/batch/{batch_id}/proof [get]
func (h *BatchHandler) DownloadProof(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("batch_id"), 10, 32)
	file, mime, err := h.batchService.ProofFile(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()

	c.Header("Content-Type", mime)
	c.Status(http.StatusOK)
	io.Copy(c.Writer, file)
}
