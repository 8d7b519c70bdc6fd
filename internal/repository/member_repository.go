package repository

import (
	"context"
	"errors"

	"github.com/dojoflow/tuition-api/internal/models"
	"github.com/jackc/pgx/v5/pgconn"

	"gorm.io/gorm"
)

// MemberRepository defines the interface for roster data access
type MemberRepository interface {
	Create(ctx context.Context, member *models.Member) error
	FindByID(ctx context.Context, id uint) (*models.Member, error)
	FindByOrganization(ctx context.Context, organizationID uint) ([]models.Member, error)
	FindBillable(ctx context.Context, organizationID uint) ([]models.Member, error)
	List(ctx context.Context, organizationID uint, query *ListQuery) ([]models.Member, int64, error)
	Update(ctx context.Context, member *models.Member) error
}

type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) Create(ctx context.Context, member *models.Member) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *memberRepository) FindByID(ctx context.Context, id uint) (*models.Member, error) {
	var member models.Member
	if err := r.db.WithContext(ctx).First(&member, id).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *memberRepository) FindByOrganization(ctx context.Context, organizationID uint) ([]models.Member, error) {
	var members []models.Member
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("full_name ASC").
		Find(&members).Error
	return members, err
}

// FindBillable returns members eligible for recurring charges
func (r *memberRepository) FindBillable(ctx context.Context, organizationID uint) ([]models.Member, error) {
	var members []models.Member
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND inactive = false", organizationID).
		Order("id ASC").
		Find(&members).Error
	return members, err
}

func (r *memberRepository) List(ctx context.Context, organizationID uint, query *ListQuery) ([]models.Member, int64, error) {
	var members []models.Member
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Member{}).
		Where("organization_id = ?", organizationID)

	if status := query.Filters["account_status"]; status != "" {
		db = db.Where("account_status = ?", status)
	}
	if query.Search != "" {
		db = db.Where("full_name ILIKE ?", "%"+query.Search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("full_name ASC").
		Limit(query.PerPage).
		Offset(query.offset()).
		Find(&members).Error
	return members, total, err
}

func (r *memberRepository) Update(ctx context.Context, member *models.Member) error {
	return r.db.WithContext(ctx).Save(member).Error
}

func isDuplicateKeyError(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == constraintName
	}
	return false
}
