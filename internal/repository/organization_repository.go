package repository

import (
	"context"

	"github.com/dojoflow/tuition-api/internal/models"

	"gorm.io/gorm"
)

// OrganizationRepository defines the interface for organization and billing
// configuration data access
type OrganizationRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Organization, error)
	FindAll(ctx context.Context) ([]models.Organization, error)
	GetSettings(ctx context.Context, organizationID uint) (*models.OrganizationSettings, error)
	SaveSettings(ctx context.Context, settings *models.OrganizationSettings) error
	GetRankRequirement(ctx context.Context, organizationID uint, rank string) (*models.RankRequirement, error)
	SaveRankRequirement(ctx context.Context, req *models.RankRequirement) error
}

type organizationRepository struct {
	db *gorm.DB
}

// NewOrganizationRepository creates a new organization repository
func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &organizationRepository{db: db}
}

func (r *organizationRepository) FindByID(ctx context.Context, id uint) (*models.Organization, error) {
	var org models.Organization
	err := r.db.WithContext(ctx).
		Preload("Settings").
		First(&org, id).Error
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *organizationRepository) FindAll(ctx context.Context) ([]models.Organization, error) {
	var orgs []models.Organization
	err := r.db.WithContext(ctx).
		Preload("Settings").
		Order("id ASC").
		Find(&orgs).Error
	return orgs, err
}

func (r *organizationRepository) GetSettings(ctx context.Context, organizationID uint) (*models.OrganizationSettings, error) {
	var settings models.OrganizationSettings
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		First(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *organizationRepository) SaveSettings(ctx context.Context, settings *models.OrganizationSettings) error {
	return r.db.WithContext(ctx).Save(settings).Error
}

func (r *organizationRepository) GetRankRequirement(ctx context.Context, organizationID uint, rank string) (*models.RankRequirement, error) {
	var req models.RankRequirement
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND rank = ?", organizationID, rank).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *organizationRepository) SaveRankRequirement(ctx context.Context, req *models.RankRequirement) error {
	return r.db.WithContext(ctx).Save(req).Error
}
