package handlers

import (
	"net/http"
	"strconv"

	"github.com/dojoflow/tuition-api/internal/services"
	"github.com/gin-gonic/gin"
)

type OrganizationHandler struct {
	orgService *services.OrganizationService
}

func NewOrganizationHandler(orgService *services.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{orgService: orgService}
}

// @Summary Get Organization
// @Description Get one organization with its billing settings
// @Tags Organizations
// @Produce json
// @Param organization_id path int true "Organization ID"
// @Success 200 {object} models.Organization
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /organizations/{organization_id} [get]
func (h *OrganizationHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("organization_id"), 10, 32)
	org, err := h.orgService.FindByID(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"organization": org})
}

// @Summary Get Billing Settings
// @Description Get the organization's billing configuration
// @Tags Organizations
// @Produce json
// @Param organization_id path int true "Organization ID"
// @Success 200 {object} models.OrganizationSettings
// @Security BearerAuth
// @Router /organizations/{organization_id}/settings [get]
func (h *OrganizationHandler) GetSettings(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("organization_id"), 10, 32)
	settings, err := h.orgService.GetSettings(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// @Summary Update Billing Settings
// @Description Update the billing schedule; the late fee day must fall after the billing day
// @Tags Organizations
// @Accept json
// @Produce json
// @Param organization_id path int true "Organization ID"
// @Param request body services.UpdateSettingsInput true "Settings"
// @Success 200 {object} models.OrganizationSettings
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /organizations/{organization_id}/settings [put]
func (h *OrganizationHandler) UpdateSettings(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("organization_id"), 10, 32)
	var input services.UpdateSettingsInput
	if err := BindNestedOrFlat(c, "settings", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid settings payload"})
		return
	}

	settings, err := h.orgService.UpdateSettings(c.Request.Context(), uint(id), input,
		getUserID(c), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings, "message": "Settings updated"})
}

type RankRequirementRequest struct {
	Rank                string `json:"rank" binding:"required"`
	AttendanceThreshold int    `json:"attendance_threshold" binding:"required"`
}

// @Summary Set Rank Requirement
// @Description Set the attendance threshold a rank needs before exam readiness
// @Tags Organizations
// @Accept json
// @Produce json
// @Param organization_id path int true "Organization ID"
// @Param request body RankRequirementRequest true "Requirement"
// @Success 200 {object} models.RankRequirement
// @Security BearerAuth
// @Router /organizations/{organization_id}/rank-requirements [put]
func (h *OrganizationHandler) SetRankRequirement(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("organization_id"), 10, 32)
	var req RankRequirementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Rank and attendance threshold are required"})
		return
	}

	requirement, err := h.orgService.SetRankRequirement(c.Request.Context(), uint(id), req.Rank, req.AttendanceThreshold,
		getUserID(c), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rank_requirement": requirement})
}
