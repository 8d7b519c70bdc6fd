package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dojoflow/tuition-api/internal/models"
	"github.com/dojoflow/tuition-api/internal/repository"
	"gorm.io/gorm"
)

// Mock LedgerRepository
type mockLedgerRepository struct {
	entries       []models.LedgerEntry
	nextID        uint
	mockHasCharge func(ctx context.Context, organizationID, memberID uint, category string, month time.Time) (bool, error)
}

func (m *mockLedgerRepository) Create(ctx context.Context, entry *models.LedgerEntry) error {
	m.nextID++
	entry.ID = m.nextID
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockLedgerRepository) FindByID(ctx context.Context, id uint) (*models.LedgerEntry, error) {
	for i := range m.entries {
		if m.entries[i].ID == id {
			e := m.entries[i]
			return &e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLedgerRepository) FindByMember(ctx context.Context, organizationID, memberID uint) ([]models.LedgerEntry, error) {
	var out []models.LedgerEntry
	for _, e := range m.entries {
		if e.OrganizationID == organizationID && e.MemberID == memberID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockLedgerRepository) FindByDebtRecord(ctx context.Context, debtRecordID uint) ([]models.LedgerEntry, error) {
	var out []models.LedgerEntry
	for _, e := range m.entries {
		if e.DebtRecordID != nil && *e.DebtRecordID == debtRecordID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockLedgerRepository) List(ctx context.Context, organizationID uint, query *repository.ListQuery) ([]models.LedgerEntry, int64, error) {
	return m.entries, int64(len(m.entries)), nil
}

func (m *mockLedgerRepository) Update(ctx context.Context, entry *models.LedgerEntry) error {
	for i := range m.entries {
		if m.entries[i].ID == entry.ID {
			m.entries[i] = *entry
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockLedgerRepository) HasChargeInMonth(ctx context.Context, organizationID, memberID uint, category string, month time.Time) (bool, error) {
	if m.mockHasCharge != nil {
		return m.mockHasCharge(ctx, organizationID, memberID, category, month)
	}
	next := month.AddDate(0, 1, 0)
	for _, e := range m.entries {
		if e.OrganizationID == organizationID && e.MemberID == memberID &&
			e.Kind == models.EntryKindCharge && e.Status == models.ChargeStatusOpen &&
			e.Category == category &&
			!e.OccurredOn.Before(month) && e.OccurredOn.Before(next) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockLedgerRepository) WriteOffByDebtRecord(ctx context.Context, debtRecordID uint) error {
	for i := range m.entries {
		if m.entries[i].DebtRecordID != nil && *m.entries[i].DebtRecordID == debtRecordID &&
			m.entries[i].IsOpenCharge() {
			m.entries[i].Status = models.ChargeStatusWrittenOff
		}
	}
	return nil
}

// Mock DebtRepository
type mockDebtRepository struct {
	records map[uint]*models.DebtRecord
	nextID  uint
}

func newMockDebtRepository() *mockDebtRepository {
	return &mockDebtRepository{records: make(map[uint]*models.DebtRecord)}
}

func (m *mockDebtRepository) add(record *models.DebtRecord) *models.DebtRecord {
	if record.ID == 0 {
		m.nextID++
		record.ID = m.nextID
	} else if record.ID > m.nextID {
		m.nextID = record.ID
	}
	m.records[record.ID] = record
	return record
}

func (m *mockDebtRepository) Create(ctx context.Context, record *models.DebtRecord) error {
	m.add(record)
	return nil
}

func (m *mockDebtRepository) FindByID(ctx context.Context, id uint) (*models.DebtRecord, error) {
	record, ok := m.records[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *record
	return &clone, nil
}

func (m *mockDebtRepository) FindByIDs(ctx context.Context, ids []uint) ([]models.DebtRecord, error) {
	var out []models.DebtRecord
	for _, id := range ids {
		if record, ok := m.records[id]; ok {
			out = append(out, *record)
		}
	}
	return out, nil
}

func (m *mockDebtRepository) FindByMember(ctx context.Context, organizationID, memberID uint) ([]models.DebtRecord, error) {
	var out []models.DebtRecord
	for _, record := range m.records {
		if record.OrganizationID == organizationID && record.MemberID == memberID {
			out = append(out, *record)
		}
	}
	return out, nil
}

func (m *mockDebtRepository) FindOwingByMember(ctx context.Context, organizationID, memberID uint) ([]models.DebtRecord, error) {
	var out []models.DebtRecord
	for _, record := range m.records {
		if record.OrganizationID == organizationID && record.MemberID == memberID &&
			record.Status != models.DebtStatusSettled && record.Status != models.DebtStatusInReview {
			out = append(out, *record)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *mockDebtRepository) List(ctx context.Context, organizationID uint, query *repository.ListQuery) ([]models.DebtRecord, int64, error) {
	var out []models.DebtRecord
	for _, record := range m.records {
		if record.OrganizationID == organizationID {
			out = append(out, *record)
		}
	}
	return out, int64(len(out)), nil
}

func (m *mockDebtRepository) Update(ctx context.Context, record *models.DebtRecord) error {
	clone := *record
	m.records[record.ID] = &clone
	return nil
}

func (m *mockDebtRepository) AppendPayment(ctx context.Context, payment *models.DebtPayment) error {
	if record, ok := m.records[payment.DebtRecordID]; ok {
		record.Payments = append(record.Payments, *payment)
	}
	return nil
}

func (m *mockDebtRepository) Delete(ctx context.Context, id uint) error {
	delete(m.records, id)
	return nil
}

// Mock MemberRepository
type mockMemberRepository struct {
	members map[uint]*models.Member
}

func newMockMemberRepository() *mockMemberRepository {
	return &mockMemberRepository{members: make(map[uint]*models.Member)}
}

func (m *mockMemberRepository) Create(ctx context.Context, member *models.Member) error {
	if member.ID == 0 {
		member.ID = uint(len(m.members) + 1)
	}
	m.members[member.ID] = member
	return nil
}

func (m *mockMemberRepository) FindByID(ctx context.Context, id uint) (*models.Member, error) {
	member, ok := m.members[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *member
	return &clone, nil
}

func (m *mockMemberRepository) FindByOrganization(ctx context.Context, organizationID uint) ([]models.Member, error) {
	var out []models.Member
	for _, member := range m.members {
		if member.OrganizationID == organizationID {
			out = append(out, *member)
		}
	}
	return out, nil
}

func (m *mockMemberRepository) FindBillable(ctx context.Context, organizationID uint) ([]models.Member, error) {
	var out []models.Member
	for _, member := range m.members {
		if member.OrganizationID == organizationID && !member.Inactive {
			out = append(out, *member)
		}
	}
	return out, nil
}

func (m *mockMemberRepository) List(ctx context.Context, organizationID uint, query *repository.ListQuery) ([]models.Member, int64, error) {
	out, _ := m.FindByOrganization(ctx, organizationID)
	return out, int64(len(out)), nil
}

func (m *mockMemberRepository) Update(ctx context.Context, member *models.Member) error {
	clone := *member
	m.members[member.ID] = &clone
	return nil
}

// Mock OrganizationRepository
type mockOrganizationRepository struct {
	orgs         map[uint]*models.Organization
	settings     map[uint]*models.OrganizationSettings
	requirements map[string]*models.RankRequirement
}

func newMockOrganizationRepository() *mockOrganizationRepository {
	return &mockOrganizationRepository{
		orgs:         make(map[uint]*models.Organization),
		settings:     make(map[uint]*models.OrganizationSettings),
		requirements: make(map[string]*models.RankRequirement),
	}
}

func rankKey(organizationID uint, rank string) string {
	return fmt.Sprintf("%d:%s", organizationID, rank)
}

func (m *mockOrganizationRepository) FindByID(ctx context.Context, id uint) (*models.Organization, error) {
	org, ok := m.orgs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return org, nil
}

func (m *mockOrganizationRepository) FindAll(ctx context.Context) ([]models.Organization, error) {
	var out []models.Organization
	for _, org := range m.orgs {
		out = append(out, *org)
	}
	return out, nil
}

func (m *mockOrganizationRepository) GetSettings(ctx context.Context, organizationID uint) (*models.OrganizationSettings, error) {
	settings, ok := m.settings[organizationID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *settings
	return &clone, nil
}

func (m *mockOrganizationRepository) SaveSettings(ctx context.Context, settings *models.OrganizationSettings) error {
	clone := *settings
	m.settings[settings.OrganizationID] = &clone
	return nil
}

func (m *mockOrganizationRepository) GetRankRequirement(ctx context.Context, organizationID uint, rank string) (*models.RankRequirement, error) {
	req, ok := m.requirements[rankKey(organizationID, rank)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *req
	return &clone, nil
}

func (m *mockOrganizationRepository) SaveRankRequirement(ctx context.Context, req *models.RankRequirement) error {
	clone := *req
	m.requirements[rankKey(req.OrganizationID, req.Rank)] = &clone
	return nil
}

// Mock AutomationRepository
type mockAutomationRepository struct {
	states map[uint]*models.BillingAutomationState
}

func newMockAutomationRepository() *mockAutomationRepository {
	return &mockAutomationRepository{states: make(map[uint]*models.BillingAutomationState)}
}

func (m *mockAutomationRepository) GetOrCreate(ctx context.Context, organizationID uint) (*models.BillingAutomationState, error) {
	if state, ok := m.states[organizationID]; ok {
		clone := *state
		return &clone, nil
	}
	state := &models.BillingAutomationState{ID: organizationID, OrganizationID: organizationID}
	m.states[organizationID] = state
	clone := *state
	return &clone, nil
}

func (m *mockAutomationRepository) Save(ctx context.Context, state *models.BillingAutomationState) error {
	clone := *state
	m.states[state.OrganizationID] = &clone
	return nil
}

// Mock BatchRepository
type mockBatchRepository struct {
	batches map[uint]*models.BatchPayment
	nextID  uint
}

func newMockBatchRepository() *mockBatchRepository {
	return &mockBatchRepository{batches: make(map[uint]*models.BatchPayment)}
}

func (m *mockBatchRepository) Create(ctx context.Context, batch *models.BatchPayment) error {
	m.nextID++
	batch.ID = m.nextID
	for i := range batch.Allocations {
		batch.Allocations[i].BatchPaymentID = batch.ID
	}
	clone := *batch
	m.batches[batch.ID] = &clone
	return nil
}

func (m *mockBatchRepository) FindByID(ctx context.Context, id uint) (*models.BatchPayment, error) {
	batch, ok := m.batches[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *batch
	return &clone, nil
}

func (m *mockBatchRepository) List(ctx context.Context, organizationID uint, query *repository.ListQuery) ([]models.BatchPayment, int64, error) {
	var out []models.BatchPayment
	for _, batch := range m.batches {
		if batch.OrganizationID == organizationID {
			out = append(out, *batch)
		}
	}
	return out, int64(len(out)), nil
}

func (m *mockBatchRepository) Update(ctx context.Context, batch *models.BatchPayment) error {
	existing, ok := m.batches[batch.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	clone := *batch
	if len(clone.Allocations) == 0 {
		clone.Allocations = existing.Allocations
	}
	m.batches[batch.ID] = &clone
	return nil
}
