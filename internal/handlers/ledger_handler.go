package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dojoflow/tuition-api/internal/repository"
	"github.com/dojoflow/tuition-api/internal/services"
	"github.com/gin-gonic/gin"
)

type LedgerHandler struct {
	ledgerService *services.LedgerService
	exportService *services.ExportService
}

func NewLedgerHandler(ledgerService *services.LedgerService, exportService *services.ExportService) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService, exportService: exportService}
}

func ledgerQuery(c *gin.Context) *repository.ListQuery {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Filters["kind"] = c.Query("kind")
	query.Filters["category"] = c.Query("category")
	query.Filters["member_id"] = c.Query("member_id")
	query.Filters["start_date"] = c.Query("start_date")
	query.Filters["end_date"] = c.Query("end_date")

	// Parse sort parameter (format: field-direction)
	if sort := c.Query("sort"); sort != "" {
		parts := strings.Split(sort, "-")
		query.SortBy = parts[0]
		if len(parts) > 1 {
			query.SortDir = parts[1]
		}
	}
	return query
}

// @Summary List Ledger Entries
// @Description Get a paginated list of the organization's ledger entries
// @Tags Ledger
// @Produce json
// @Param organization_id path int true "Organization ID"
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param kind query string false "Filter by kind (charge, payment)"
// @Param category query string false "Filter by category"
// @Param member_id query int false "Filter by member"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /organizations/{organization_id}/ledger [get]
func (h *LedgerHandler) Index(c *gin.Context) {
	orgID, _ := strconv.ParseUint(c.Param("organization_id"), 10, 32)
	query := ledgerQuery(c)

	entries, total, err := h.ledgerService.List(c.Request.Context(), uint(orgID), query)
	if err != nil {
		respondError(c, err)
		return
	}

	var responses []interface{}
	for i := range entries {
		responses = append(responses, entries[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": responses,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// @Summary Member Statement
// @Description Get one member's chronological entry history with derived totals
// @Tags Ledger
// @Produce json
// @Param member_id path int true "Member ID"
// @Success 200 {object} services.MemberStatement
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /members/{member_id}/statement [get]
func (h *LedgerHandler) Statement(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("member_id"), 10, 32)
	statement, err := h.ledgerService.Statement(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, statement)
}

// @Summary Export Ledger
// @Description Export the organization's filtered ledger as CSV or XLSX
// @Tags Ledger
// @Produce application/octet-stream
// @Param organization_id path int true "Organization ID"
// @Param format query string false "Export format (csv, xlsx)" default(csv)
// @Success 200 {file} file "export"
// @Security BearerAuth
// @Router /organizations/{organization_id}/ledger/export [get]
func (h *LedgerHandler) Export(c *gin.Context) {
	orgID, _ := strconv.ParseUint(c.Param("organization_id"), 10, 32)
	query := ledgerQuery(c)

	var (
		data     []byte
		filename string
		err      error
		mime     string
	)
	switch c.DefaultQuery("format", "csv") {
	case "xlsx":
		data, filename, err = h.exportService.ExportLedgerXLSX(c.Request.Context(), uint(orgID), query)
		mime = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "csv":
		data, filename, err = h.exportService.ExportLedgerCSV(c.Request.Context(), uint(orgID), query)
		mime = "text/csv"
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported export format"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, mime, data)
}
