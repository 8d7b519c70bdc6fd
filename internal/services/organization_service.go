package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dojoflow/tuition-api/internal/models"
	"github.com/dojoflow/tuition-api/internal/repository"
	"gorm.io/gorm"
)

// OrganizationService manages organizations, their billing settings and the
// per-rank attendance thresholds.
type OrganizationService struct {
	orgRepo  repository.OrganizationRepository
	auditSvc *AuditService
}

// NewOrganizationService creates a new organization service
func NewOrganizationService(orgRepo repository.OrganizationRepository, auditSvc *AuditService) *OrganizationService {
	return &OrganizationService{orgRepo: orgRepo, auditSvc: auditSvc}
}

// FindByID returns one organization with its settings
func (s *OrganizationService) FindByID(ctx context.Context, id uint) (*models.Organization, error) {
	org, err := s.orgRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return org, nil
}

// GetSettings returns the organization's billing settings
func (s *OrganizationService) GetSettings(ctx context.Context, organizationID uint) (*models.OrganizationSettings, error) {
	settings, err := s.orgRepo.GetSettings(ctx, organizationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return settings, nil
}

// UpdateSettingsInput carries a billing settings change
type UpdateSettingsInput struct {
	BillingDay      int     `json:"billing_day" binding:"required,min=1,max=28"`
	LateFeeDay      int     `json:"late_fee_day" binding:"required,min=1,max=28"`
	MonthlyTuition  float64 `json:"monthly_tuition" binding:"required,gt=0"`
	LateFeeAmount   float64 `json:"late_fee_amount" binding:"min=0"`
	AutoApproveCash bool    `json:"auto_approve_cash"`
}

// UpdateSettings validates and stores the billing schedule. The late fee day
// must fall strictly after the billing day; the write is rejected here so the
// scheduler can trust the stored order without rechecking it every tick.
func (s *OrganizationService) UpdateSettings(ctx context.Context, organizationID uint, input UpdateSettingsInput, actorID uint, ip, userAgent string) (*models.OrganizationSettings, error) {
	if input.LateFeeDay <= input.BillingDay {
		return nil, fmt.Errorf("%w: billing day %d, late fee day %d", ErrInvalidScheduleOrder, input.BillingDay, input.LateFeeDay)
	}
	if input.MonthlyTuition <= 0 {
		return nil, fmt.Errorf("%w: monthly tuition must be positive", ErrInvalidAmount)
	}
	if input.LateFeeAmount < 0 {
		return nil, fmt.Errorf("%w: late fee cannot be negative", ErrInvalidAmount)
	}

	settings, err := s.orgRepo.GetSettings(ctx, organizationID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		settings = &models.OrganizationSettings{OrganizationID: organizationID}
	}

	settings.BillingDay = input.BillingDay
	settings.LateFeeDay = input.LateFeeDay
	settings.MonthlyTuition = models.Round2(input.MonthlyTuition)
	settings.LateFeeAmount = models.Round2(input.LateFeeAmount)
	settings.AutoApproveCash = input.AutoApproveCash

	if err := s.orgRepo.SaveSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}

	s.auditSvc.Log(ctx, actorID, "UPDATE", "OrganizationSettings", settings.ID,
		fmt.Sprintf("Billing day %d, late fee day %d, tuition %.2f", settings.BillingDay, settings.LateFeeDay, settings.MonthlyTuition), ip, userAgent)
	return settings, nil
}

// SetRankRequirement stores the attendance threshold for one rank
func (s *OrganizationService) SetRankRequirement(ctx context.Context, organizationID uint, rank string, threshold int, actorID uint, ip, userAgent string) (*models.RankRequirement, error) {
	if rank == "" {
		return nil, fmt.Errorf("%w: rank is required", ErrValidation)
	}
	if threshold <= 0 {
		return nil, fmt.Errorf("%w: attendance threshold must be positive", ErrValidation)
	}

	req, err := s.orgRepo.GetRankRequirement(ctx, organizationID, rank)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		req = &models.RankRequirement{OrganizationID: organizationID, Rank: rank}
	}
	req.AttendanceThreshold = threshold

	if err := s.orgRepo.SaveRankRequirement(ctx, req); err != nil {
		return nil, fmt.Errorf("save rank requirement: %w", err)
	}

	s.auditSvc.Log(ctx, actorID, "UPDATE", "RankRequirement", req.ID,
		fmt.Sprintf("Rank %s requires %d sessions", rank, threshold), ip, userAgent)
	return req, nil
}
