package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dojoflow/tuition-api/internal/repository"
	"github.com/dojoflow/tuition-api/internal/services"
	"github.com/gin-gonic/gin"
)

type MemberHandler struct {
	memberService  *services.MemberService
	accountService *services.AccountService
}

func NewMemberHandler(memberService *services.MemberService, accountService *services.AccountService) *MemberHandler {
	return &MemberHandler{memberService: memberService, accountService: accountService}
}

// @Summary List Members
// @Description Get a paginated list of the organization's roster
// @Tags Members
// @Accept json
// @Produce json
// @Param organization_id path int true "Organization ID"
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param status query string false "Filter by account status"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /organizations/{organization_id}/members [get]
func (h *MemberHandler) Index(c *gin.Context) {
	orgID, _ := strconv.ParseUint(c.Param("organization_id"), 10, 32)

	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Filters["account_status"] = c.Query("status")
	query.Filters["rank"] = c.Query("rank")

	if search := c.Query("search"); search != "" {
		query.Search = search
	}

	// Parse sort parameter (format: field-direction)
	if sort := c.Query("sort"); sort != "" {
		parts := strings.Split(sort, "-")
		query.SortBy = parts[0]
		if len(parts) > 1 {
			query.SortDir = parts[1]
		}
	}

	members, total, err := h.memberService.List(c.Request.Context(), uint(orgID), query)
	if err != nil {
		respondError(c, err)
		return
	}

	var responses []interface{}
	for i := range members {
		responses = append(responses, members[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"members": responses,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// @Summary Create Member
// @Description Enroll a new member in the roster
// @Tags Members
// @Accept json
// @Produce json
// @Param request body services.CreateMemberInput true "Member"
// @Success 201 {object} models.MemberResponse
// @Security BearerAuth
// @Router /members [post]
func (h *MemberHandler) Create(c *gin.Context) {
	var input services.CreateMemberInput
	if err := BindNestedOrFlat(c, "member", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid member payload"})
		return
	}

	member, err := h.memberService.Create(c.Request.Context(), input, getUserID(c), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"member": member.ToResponse()})
}

// @Summary Get Member Account
// @Description Get one member with the derived balance and account status
// @Tags Members
// @Produce json
// @Param member_id path int true "Member ID"
// @Success 200 {object} models.MemberResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /members/{member_id}/account [get]
func (h *MemberHandler) Account(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("member_id"), 10, 32)
	member, err := h.accountService.GetAccount(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"member": member.ToResponse()})
}

type AttendanceRequest struct {
	Sessions int `json:"sessions"`
}

// @Summary Record Attendance
// @Description Add attended sessions to the member's tally
// @Tags Members
// @Accept json
// @Produce json
// @Param member_id path int true "Member ID"
// @Param request body AttendanceRequest false "Sessions (defaults to 1)"
// @Success 200 {object} models.MemberResponse
// @Security BearerAuth
// @Router /members/{member_id}/attendance [post]
func (h *MemberHandler) RecordAttendance(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("member_id"), 10, 32)
	var req AttendanceRequest
	c.ShouldBindJSON(&req)

	member, err := h.memberService.RecordAttendance(c.Request.Context(), uint(id), req.Sessions,
		getUserID(c), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"member": member.ToResponse()})
}

type PromoteRequest struct {
	Rank string `json:"rank" binding:"required"`
}

// @Summary Promote Member
// @Description Move the member to a new rank and reset the attendance tally
// @Tags Members
// @Accept json
// @Produce json
// @Param member_id path int true "Member ID"
// @Param request body PromoteRequest true "New rank"
// @Success 200 {object} models.MemberResponse
// @Security BearerAuth
// @Router /members/{member_id}/promote [post]
func (h *MemberHandler) Promote(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("member_id"), 10, 32)
	var req PromoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Rank is required"})
		return
	}

	member, err := h.memberService.Promote(c.Request.Context(), uint(id), req.Rank,
		getUserID(c), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"member": member.ToResponse()})
}

type InactiveRequest struct {
	Inactive bool `json:"inactive"`
}

// @Summary Set Member Inactive
// @Description Flag or unflag a member as inactive, overriding the derived status
// @Tags Members
// @Accept json
// @Produce json
// @Param member_id path int true "Member ID"
// @Param request body InactiveRequest true "Inactive flag"
// @Success 200 {object} models.MemberResponse
// @Security BearerAuth
// @Router /members/{member_id}/inactive [post]
func (h *MemberHandler) SetInactive(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("member_id"), 10, 32)
	var req InactiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	member, err := h.accountService.SetInactive(c.Request.Context(), uint(id), req.Inactive,
		getUserID(c), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"member": member.ToResponse()})
}
