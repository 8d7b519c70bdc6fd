package repository

import (
	"context"
	"time"

	"github.com/dojoflow/tuition-api/internal/models"

	"gorm.io/gorm"
)

// LedgerRepository defines the interface for ledger entry data access
type LedgerRepository interface {
	Create(ctx context.Context, entry *models.LedgerEntry) error
	FindByID(ctx context.Context, id uint) (*models.LedgerEntry, error)
	FindByMember(ctx context.Context, organizationID, memberID uint) ([]models.LedgerEntry, error)
	FindByDebtRecord(ctx context.Context, debtRecordID uint) ([]models.LedgerEntry, error)
	List(ctx context.Context, organizationID uint, query *ListQuery) ([]models.LedgerEntry, int64, error)
	Update(ctx context.Context, entry *models.LedgerEntry) error
	HasChargeInMonth(ctx context.Context, organizationID, memberID uint, category string, month time.Time) (bool, error)
	WriteOffByDebtRecord(ctx context.Context, debtRecordID uint) error
}

type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) Create(ctx context.Context, entry *models.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *ledgerRepository) FindByID(ctx context.Context, id uint) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	if err := r.db.WithContext(ctx).First(&entry, id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindByMember returns every ledger entry for a member, oldest first.
// The balance fold is order independent but listings read better sorted.
func (r *ledgerRepository) FindByMember(ctx context.Context, organizationID, memberID uint) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND member_id = ?", organizationID, memberID).
		Order("occurred_on ASC, created_at ASC").
		Find(&entries).Error
	return entries, err
}

func (r *ledgerRepository) FindByDebtRecord(ctx context.Context, debtRecordID uint) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("debt_record_id = ?", debtRecordID).
		Order("occurred_on ASC, created_at ASC").
		Find(&entries).Error
	return entries, err
}

func (r *ledgerRepository) List(ctx context.Context, organizationID uint, query *ListQuery) ([]models.LedgerEntry, int64, error) {
	var entries []models.LedgerEntry
	var total int64

	db := r.db.WithContext(ctx).Model(&models.LedgerEntry{}).
		Where("organization_id = ?", organizationID)

	if kind := query.Filters["kind"]; kind != "" {
		db = db.Where("kind = ?", kind)
	}
	if category := query.Filters["category"]; category != "" {
		db = db.Where("category = ?", category)
	}
	if memberID := query.Filters["member_id"]; memberID != "" {
		db = db.Where("member_id = ?", memberID)
	}
	if start := query.Filters["start_date"]; start != "" {
		db = db.Where("occurred_on >= ?", start)
	}
	if end := query.Filters["end_date"]; end != "" {
		db = db.Where("occurred_on <= ?", end)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("occurred_on DESC, id DESC").
		Limit(query.PerPage).
		Offset(query.offset()).
		Find(&entries).Error
	return entries, total, err
}

// Update persists changes to an entry. Only payments still pending review are
// mutable; the services enforce that before calling here.
func (r *ledgerRepository) Update(ctx context.Context, entry *models.LedgerEntry) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

// HasChargeInMonth reports whether the member already carries an open charge
// of the given category dated inside the month of the given day. This is the
// idempotence check the billing automation relies on under retries and
// concurrent double-runs.
func (r *ledgerRepository) HasChargeInMonth(ctx context.Context, organizationID, memberID uint, category string, month time.Time) (bool, error) {
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	end := start.AddDate(0, 1, 0)

	var count int64
	err := r.db.WithContext(ctx).Model(&models.LedgerEntry{}).
		Where("organization_id = ? AND member_id = ?", organizationID, memberID).
		Where("kind = ? AND status = ? AND category = ?", models.EntryKindCharge, models.ChargeStatusOpen, category).
		Where("occurred_on >= ? AND occurred_on < ?", start, end).
		Count(&count).Error
	return count > 0, err
}

// WriteOffByDebtRecord flips the record's open charges to written off.
// Charges are never deleted once observed; this is the offsetting correction
// used when an empty-history debt record is removed.
func (r *ledgerRepository) WriteOffByDebtRecord(ctx context.Context, debtRecordID uint) error {
	return r.db.WithContext(ctx).Model(&models.LedgerEntry{}).
		Where("debt_record_id = ? AND kind = ? AND status = ?", debtRecordID, models.EntryKindCharge, models.ChargeStatusOpen).
		Update("status", models.ChargeStatusWrittenOff).Error
}
