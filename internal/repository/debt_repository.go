package repository

import (
	"context"

	"github.com/dojoflow/tuition-api/internal/models"

	"gorm.io/gorm"
)

// DebtRepository defines the interface for debt record data access
type DebtRepository interface {
	Create(ctx context.Context, record *models.DebtRecord) error
	FindByID(ctx context.Context, id uint) (*models.DebtRecord, error)
	FindByIDs(ctx context.Context, ids []uint) ([]models.DebtRecord, error)
	FindByMember(ctx context.Context, organizationID, memberID uint) ([]models.DebtRecord, error)
	FindOwingByMember(ctx context.Context, organizationID, memberID uint) ([]models.DebtRecord, error)
	List(ctx context.Context, organizationID uint, query *ListQuery) ([]models.DebtRecord, int64, error)
	Update(ctx context.Context, record *models.DebtRecord) error
	AppendPayment(ctx context.Context, payment *models.DebtPayment) error
	Delete(ctx context.Context, id uint) error
}

type debtRepository struct {
	db *gorm.DB
}

// NewDebtRepository creates a new debt record repository
func NewDebtRepository(db *gorm.DB) DebtRepository {
	return &debtRepository{db: db}
}

func (r *debtRepository) Create(ctx context.Context, record *models.DebtRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *debtRepository) FindByID(ctx context.Context, id uint) (*models.DebtRecord, error) {
	var record models.DebtRecord
	err := r.db.WithContext(ctx).
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("paid_on ASC, id ASC")
		}).
		First(&record, id).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *debtRepository) FindByIDs(ctx context.Context, ids []uint) ([]models.DebtRecord, error) {
	var records []models.DebtRecord
	err := r.db.WithContext(ctx).
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("paid_on ASC, id ASC")
		}).
		Where("id IN ?", ids).
		Order("due_date ASC, id ASC").
		Find(&records).Error
	return records, err
}

func (r *debtRepository) FindByMember(ctx context.Context, organizationID, memberID uint) ([]models.DebtRecord, error) {
	var records []models.DebtRecord
	err := r.db.WithContext(ctx).
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("paid_on ASC, id ASC")
		}).
		Where("organization_id = ? AND member_id = ?", organizationID, memberID).
		Order("due_date ASC, id ASC").
		Find(&records).Error
	return records, err
}

// FindOwingByMember returns the member's records that still owe money,
// ascending by due date. Settled and in-review records are excluded.
func (r *debtRepository) FindOwingByMember(ctx context.Context, organizationID, memberID uint) ([]models.DebtRecord, error) {
	var records []models.DebtRecord
	err := r.db.WithContext(ctx).
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("paid_on ASC, id ASC")
		}).
		Where("organization_id = ? AND member_id = ?", organizationID, memberID).
		Where("status IN ?", []string{models.DebtStatusOpen, models.DebtStatusPartiallySettled, models.DebtStatusOverdue}).
		Order("due_date ASC, id ASC").
		Find(&records).Error
	return records, err
}

func (r *debtRepository) List(ctx context.Context, organizationID uint, query *ListQuery) ([]models.DebtRecord, int64, error) {
	var records []models.DebtRecord
	var total int64

	db := r.db.WithContext(ctx).Model(&models.DebtRecord{}).
		Where("organization_id = ?", organizationID)

	if status := query.Filters["status"]; status != "" {
		db = db.Where("status = ?", status)
	}
	if category := query.Filters["category"]; category != "" {
		db = db.Where("category = ?", category)
	}
	if memberID := query.Filters["member_id"]; memberID != "" {
		db = db.Where("member_id = ?", memberID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("Payments", func(db *gorm.DB) *gorm.DB {
		return db.Order("paid_on ASC, id ASC")
	}).
		Order("due_date ASC, id ASC").
		Limit(query.PerPage).
		Offset(query.offset()).
		Find(&records).Error
	return records, total, err
}

func (r *debtRepository) Update(ctx context.Context, record *models.DebtRecord) error {
	return r.db.WithContext(ctx).Omit("Payments").Save(record).Error
}

// AppendPayment adds one history item. History is append-only; there is no
// update or delete counterpart.
func (r *debtRepository) AppendPayment(ctx context.Context, payment *models.DebtPayment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *debtRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.DebtRecord{}, id).Error
}
