package repository

import (
	"context"

	"github.com/dojoflow/tuition-api/internal/models"

	"gorm.io/gorm"
)

// BatchRepository defines the interface for batch payment data access
type BatchRepository interface {
	Create(ctx context.Context, batch *models.BatchPayment) error
	FindByID(ctx context.Context, id uint) (*models.BatchPayment, error)
	List(ctx context.Context, organizationID uint, query *ListQuery) ([]models.BatchPayment, int64, error)
	Update(ctx context.Context, batch *models.BatchPayment) error
}

type batchRepository struct {
	db *gorm.DB
}

// NewBatchRepository creates a new batch payment repository
func NewBatchRepository(db *gorm.DB) BatchRepository {
	return &batchRepository{db: db}
}

// Create persists the batch together with its allocations
func (r *batchRepository) Create(ctx context.Context, batch *models.BatchPayment) error {
	return r.db.WithContext(ctx).Create(batch).Error
}

func (r *batchRepository) FindByID(ctx context.Context, id uint) (*models.BatchPayment, error) {
	var batch models.BatchPayment
	err := r.db.WithContext(ctx).
		Preload("Allocations").
		First(&batch, id).Error
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *batchRepository) List(ctx context.Context, organizationID uint, query *ListQuery) ([]models.BatchPayment, int64, error) {
	var batches []models.BatchPayment
	var total int64

	db := r.db.WithContext(ctx).Model(&models.BatchPayment{}).
		Where("organization_id = ?", organizationID)

	if status := query.Filters["status"]; status != "" {
		db = db.Where("status = ?", status)
	}
	if memberID := query.Filters["member_id"]; memberID != "" {
		db = db.Where("member_id = ?", memberID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("Allocations").
		Order("created_at DESC").
		Limit(query.PerPage).
		Offset(query.offset()).
		Find(&batches).Error
	return batches, total, err
}

func (r *batchRepository) Update(ctx context.Context, batch *models.BatchPayment) error {
	return r.db.WithContext(ctx).Omit("Allocations").Save(batch).Error
}
