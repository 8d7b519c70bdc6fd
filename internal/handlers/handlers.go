package handlers

import (
	"errors"
	"net/http"

	"github.com/dojoflow/tuition-api/internal/services"
	"github.com/dojoflow/tuition-api/internal/storage"
	"github.com/gin-gonic/gin"
)

// Handlers holds all handler instances
type Handlers struct {
	Health       *HealthHandler
	Member       *MemberHandler
	Debt         *DebtHandler
	Batch        *BatchHandler
	Ledger       *LedgerHandler
	Organization *OrganizationHandler
	Billing      *BillingHandler
	Audit        *AuditHandler
	Job          *JobHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services, storage *storage.LocalStorage) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(),
		Member:       NewMemberHandler(svcs.Member, svcs.Account),
		Debt:         NewDebtHandler(svcs.Debt),
		Batch:        NewBatchHandler(svcs.Batch, storage),
		Ledger:       NewLedgerHandler(svcs.Ledger, svcs.Export),
		Organization: NewOrganizationHandler(svcs.Organization),
		Billing:      NewBillingHandler(svcs.Billing),
		Audit:        NewAuditHandler(svcs.Audit),
		Job:          NewJobHandler(svcs.Job),
	}
}

// respondError maps service errors to HTTP status codes
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrStaleRecord):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInvalidAdjustment),
		errors.Is(err, services.ErrInsufficientForMandatory),
		errors.Is(err, services.ErrInvalidScheduleOrder),
		errors.Is(err, services.ErrInvalidCategory),
		errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// getUserID extracts the authenticated user ID from the context
func getUserID(c *gin.Context) uint {
	id, exists := c.Get("userID")
	if !exists {
		return 0
	}
	switch v := id.(type) {
	case uint:
		return v
	case float64:
		return uint(v)
	default:
		return 0
	}
}
