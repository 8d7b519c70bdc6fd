package repository

import (
	"context"
	"errors"

	"github.com/dojoflow/tuition-api/internal/models"

	"gorm.io/gorm"
)

// AutomationRepository defines the interface for the billing automation
// marker row. One row per organization; nothing else reads it.
type AutomationRepository interface {
	GetOrCreate(ctx context.Context, organizationID uint) (*models.BillingAutomationState, error)
	Save(ctx context.Context, state *models.BillingAutomationState) error
}

type automationRepository struct {
	db *gorm.DB
}

// NewAutomationRepository creates a new automation state repository
func NewAutomationRepository(db *gorm.DB) AutomationRepository {
	return &automationRepository{db: db}
}

func (r *automationRepository) GetOrCreate(ctx context.Context, organizationID uint) (*models.BillingAutomationState, error) {
	var state models.BillingAutomationState
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		First(&state).Error
	if err == nil {
		return &state, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	state = models.BillingAutomationState{OrganizationID: organizationID}
	if err := r.db.WithContext(ctx).Create(&state).Error; err != nil {
		// Two sessions may race on the first run; the unique index decides.
		if isDuplicateKeyError(err, "idx_billing_automation_states_organization_id") {
			findErr := r.db.WithContext(ctx).
				Where("organization_id = ?", organizationID).
				First(&state).Error
			return &state, findErr
		}
		return nil, err
	}
	return &state, nil
}

func (r *automationRepository) Save(ctx context.Context, state *models.BillingAutomationState) error {
	return r.db.WithContext(ctx).Save(state).Error
}
