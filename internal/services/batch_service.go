package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/dojoflow/tuition-api/internal/models"
	"github.com/dojoflow/tuition-api/internal/repository"
	"github.com/dojoflow/tuition-api/internal/statemachine"
	"github.com/dojoflow/tuition-api/internal/storage"
	"github.com/google/uuid"

	"gorm.io/gorm"
)

// BatchValidation is the computed bounds for a proposed multi-debt payment
type BatchValidation struct {
	TotalDue       float64 `json:"total_due"`
	MandatoryFloor float64 `json:"mandatory_floor"`
	// ExactOnly means every selected record is non-splittable, so no custom
	// amount may be offered; the set must be paid in full.
	ExactOnly bool `json:"exact_only"`
}

// Covers reports whether the amount falls inside the floor/ceiling bounds
func (v BatchValidation) Covers(amount float64) bool {
	return amount >= v.MandatoryFloor-models.AmountEpsilon &&
		amount <= v.TotalDue+models.AmountEpsilon
}

// PlannedAllocation is the share of a batch amount one record will receive
type PlannedAllocation struct {
	DebtRecordID uint    `json:"debt_record_id"`
	Amount       float64 `json:"amount"`
}

// BatchService validates and registers payments that settle several debt
// records in one transaction, possibly with a partial total.
type BatchService struct {
	batchRepo  repository.BatchRepository
	debtRepo   repository.DebtRepository
	ledgerRepo repository.LedgerRepository
	orgRepo    repository.OrganizationRepository
	accountSvc *AccountService
	auditSvc   *AuditService
	storage    *storage.LocalStorage
}

// NewBatchService creates a new batch payment service
func NewBatchService(
	batchRepo repository.BatchRepository,
	debtRepo repository.DebtRepository,
	ledgerRepo repository.LedgerRepository,
	orgRepo repository.OrganizationRepository,
	accountSvc *AccountService,
	auditSvc *AuditService,
	storage *storage.LocalStorage,
) *BatchService {
	return &BatchService{
		batchRepo:  batchRepo,
		debtRepo:   debtRepo,
		ledgerRepo: ledgerRepo,
		orgRepo:    orgRepo,
		accountSvc: accountSvc,
		auditSvc:   auditSvc,
		storage:    storage,
	}
}

// ValidateBatchAmount computes the bounds for the selected records and checks
// the proposed amount against them. Non-splittable records must always be
// covered in full when included, so they form the floor; the ceiling is
// everything still due. Runs before any mutation: fail closed.
func ValidateBatchAmount(records []models.DebtRecord, amount float64) (BatchValidation, error) {
	v := BatchValidation{}
	for i := range records {
		r := &records[i]
		if !r.IsOwing() {
			return v, fmt.Errorf("%w: debt record #%d no longer owes anything", ErrStaleRecord, r.ID)
		}
		if !r.MaySubmit() {
			return v, fmt.Errorf("%w: debt record #%d is %s", ErrStaleRecord, r.ID, r.Status)
		}
		due := r.CurrentDue()
		v.TotalDue += due
		if !r.AllowsPartialSettlement {
			v.MandatoryFloor += due
		}
	}
	v.TotalDue = models.Round2(v.TotalDue)
	v.MandatoryFloor = models.Round2(v.MandatoryFloor)
	v.ExactOnly = v.MandatoryFloor == v.TotalDue

	if amount <= 0 {
		return v, fmt.Errorf("%w: amount must be positive, got %.2f", ErrInvalidAmount, amount)
	}
	if amount < v.MandatoryFloor-models.AmountEpsilon {
		return v, fmt.Errorf("%w: amount %.2f is below the mandatory floor %.2f", ErrInsufficientForMandatory, amount, v.MandatoryFloor)
	}
	if amount > v.TotalDue+models.AmountEpsilon {
		return v, fmt.Errorf("%w: amount %.2f exceeds the total due %.2f", ErrInvalidAmount, amount, v.TotalDue)
	}
	return v, nil
}

// PlanAllocations distributes the accepted amount across the records:
// non-splittable ones first in ascending due date, paid in full, then
// splittable ones in ascending due date up to each record's current due.
// Records the remainder never reaches receive no allocation and keep their
// state. The mandatory coverage is re-verified here even though validation
// already guaranteed it.
func PlanAllocations(records []models.DebtRecord, amount float64) ([]PlannedAllocation, error) {
	ordered := make([]models.DebtRecord, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].DueDate.Equal(ordered[j].DueDate) {
			return ordered[i].DueDate.Before(ordered[j].DueDate)
		}
		return ordered[i].ID < ordered[j].ID
	})

	remainder := models.Round2(amount)
	var plan []PlannedAllocation

	for i := range ordered {
		r := &ordered[i]
		if r.AllowsPartialSettlement {
			continue
		}
		due := r.CurrentDue()
		if remainder < due-models.AmountEpsilon {
			return nil, fmt.Errorf("%w: %.2f left for a %.2f non-splittable debt", ErrInsufficientForMandatory, remainder, due)
		}
		take := due
		if take > remainder {
			take = remainder
		}
		plan = append(plan, PlannedAllocation{DebtRecordID: r.ID, Amount: models.Round2(take)})
		remainder = models.Round2(remainder - take)
	}

	for i := range ordered {
		r := &ordered[i]
		if !r.AllowsPartialSettlement || remainder <= models.AmountEpsilon {
			continue
		}
		take := r.CurrentDue()
		if take > remainder {
			take = remainder
		}
		plan = append(plan, PlannedAllocation{DebtRecordID: r.ID, Amount: models.Round2(take)})
		remainder = models.Round2(remainder - take)
	}

	return plan, nil
}

// RegisterBatchInput describes a batch payment submission
type RegisterBatchInput struct {
	OrganizationID uint
	MemberID       uint
	DebtRecordIDs  []uint
	Amount         float64
	Method         string
	ProofPath      *string
	ProofMimeType  *string
}

// Validate loads the records and returns the bounds without mutating anything
func (s *BatchService) Validate(ctx context.Context, ids []uint, amount float64) (BatchValidation, error) {
	records, err := s.loadRecords(ctx, ids)
	if err != nil {
		return BatchValidation{}, err
	}
	return ValidateBatchAmount(records, amount)
}

// Register validates, plans and records a batch submission. One aggregate
// pending payment entry and one proof reference cover the whole batch; every
// record the plan touches goes into review. Nothing reduces an open amount
// until approval, except cash batches in organizations that auto-approve
// them.
func (s *BatchService) Register(ctx context.Context, input RegisterBatchInput, actorID uint, ip, userAgent string) (*models.BatchPayment, error) {
	records, err := s.loadRecords(ctx, input.DebtRecordIDs)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].OrganizationID != input.OrganizationID || records[i].MemberID != input.MemberID {
			return nil, fmt.Errorf("%w: debt record #%d belongs to another account", ErrStaleRecord, records[i].ID)
		}
	}

	if _, err := ValidateBatchAmount(records, input.Amount); err != nil {
		return nil, err
	}
	plan, err := PlanAllocations(records, input.Amount)
	if err != nil {
		return nil, err
	}

	amount := models.Round2(input.Amount)
	entry := &models.LedgerEntry{
		OrganizationID: input.OrganizationID,
		MemberID:       input.MemberID,
		Kind:           models.EntryKindPayment,
		Status:         models.PaymentEntryPendingReview,
		Category:       models.CategoryOther,
		Amount:         amount,
		Method:         &input.Method,
		OccurredOn:     time.Now(),
		Description:    fmt.Sprintf("Batch payment over %d debt records", len(plan)),
	}
	if err := s.ledgerRepo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("create aggregate payment entry: %w", err)
	}

	batch := &models.BatchPayment{
		OrganizationID: input.OrganizationID,
		MemberID:       input.MemberID,
		Reference:      uuid.NewString(),
		Amount:         amount,
		Method:         input.Method,
		Status:         models.BatchStatusPendingReview,
		ProofPath:      input.ProofPath,
		ProofMimeType:  input.ProofMimeType,
		LedgerEntryID:  &entry.ID,
		SubmittedBy:    actorID,
	}
	for _, a := range plan {
		batch.Allocations = append(batch.Allocations, models.BatchAllocation{
			DebtRecordID: a.DebtRecordID,
			Amount:       a.Amount,
		})
	}
	if err := s.batchRepo.Create(ctx, batch); err != nil {
		return nil, fmt.Errorf("create batch payment: %w", err)
	}

	entry.BatchPaymentID = &batch.ID
	if err := s.ledgerRepo.Update(ctx, entry); err != nil {
		return nil, fmt.Errorf("link aggregate entry: %w", err)
	}

	// Park every touched record in review. Untouched records stay put.
	planned := make(map[uint]bool, len(plan))
	for _, a := range plan {
		planned[a.DebtRecordID] = true
	}
	for i := range records {
		r := &records[i]
		if !planned[r.ID] {
			continue
		}
		prior := r.Status
		r.PriorStatus = &prior
		r.PendingEntryID = &entry.ID
		machine := statemachine.NewDebtFSM(r)
		if err := machine.Submit(ctx); err != nil {
			return nil, err
		}
		if err := s.debtRepo.Update(ctx, r); err != nil {
			return nil, fmt.Errorf("update debt record #%d: %w", r.ID, err)
		}
	}

	s.auditSvc.Log(ctx, actorID, "SUBMIT", "BatchPayment", batch.ID,
		fmt.Sprintf("Batch of %.2f over %d records submitted (%s)", amount, len(plan), input.Method), ip, userAgent)

	if input.Method == models.MethodCash {
		settings, err := s.orgRepo.GetSettings(ctx, input.OrganizationID)
		if err == nil && settings.AutoApproveCash {
			return s.Approve(ctx, batch.ID, actorID, ip, userAgent)
		}
	}

	return batch, nil
}

// Approve fans the aggregate payment out to the allocated records
func (s *BatchService) Approve(ctx context.Context, id uint, actorID uint, ip, userAgent string) (*models.BatchPayment, error) {
	batch, err := s.batchRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !batch.MayApprove() {
		return nil, fmt.Errorf("%w: batch #%d is %s", ErrStaleRecord, batch.ID, batch.Status)
	}

	entry, err := s.ledgerRepo.FindByID(ctx, *batch.LedgerEntryID)
	if err != nil {
		return nil, fmt.Errorf("load aggregate entry: %w", err)
	}
	if !entry.MayApprove() {
		return nil, fmt.Errorf("%w: payment entry #%d is %s", ErrStaleRecord, entry.ID, entry.Status)
	}
	entry.Status = models.PaymentEntryApproved
	if err := s.ledgerRepo.Update(ctx, entry); err != nil {
		return nil, fmt.Errorf("approve aggregate entry: %w", err)
	}

	paidOn := entry.OccurredOn
	for _, alloc := range batch.Allocations {
		record, err := s.debtRepo.FindByID(ctx, alloc.DebtRecordID)
		if err != nil {
			return nil, fmt.Errorf("load debt record #%d: %w", alloc.DebtRecordID, err)
		}
		if err := s.applyAllocation(ctx, record, alloc.Amount, batch.Method, paidOn); err != nil {
			return nil, err
		}
	}

	batch.Status = models.BatchStatusApproved
	if err := s.batchRepo.Update(ctx, batch); err != nil {
		return nil, fmt.Errorf("update batch: %w", err)
	}

	if _, err := s.accountSvc.Recompute(ctx, batch.MemberID); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, "APPROVE", "BatchPayment", batch.ID,
		fmt.Sprintf("Batch of %.2f approved", batch.Amount), ip, userAgent)

	return batch, nil
}

// Reject reverts every allocated record to its pre-submission state and marks
// the aggregate entry rejected. The entry and the batch stay for audit.
func (s *BatchService) Reject(ctx context.Context, id uint, actorID uint, reason, ip, userAgent string) (*models.BatchPayment, error) {
	batch, err := s.batchRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !batch.MayReject() {
		return nil, fmt.Errorf("%w: batch #%d is %s", ErrStaleRecord, batch.ID, batch.Status)
	}

	entry, err := s.ledgerRepo.FindByID(ctx, *batch.LedgerEntryID)
	if err != nil {
		return nil, fmt.Errorf("load aggregate entry: %w", err)
	}
	if entry.MayReject() {
		entry.Status = models.PaymentEntryRejected
		if reason != "" {
			entry.Description = fmt.Sprintf("%s (rejected: %s)", entry.Description, reason)
		}
		if err := s.ledgerRepo.Update(ctx, entry); err != nil {
			return nil, fmt.Errorf("reject aggregate entry: %w", err)
		}
	}

	for _, alloc := range batch.Allocations {
		record, err := s.debtRepo.FindByID(ctx, alloc.DebtRecordID)
		if err != nil {
			return nil, fmt.Errorf("load debt record #%d: %w", alloc.DebtRecordID, err)
		}
		if record.Status != models.DebtStatusInReview {
			continue
		}
		machine := statemachine.NewDebtFSM(record)
		if err := machine.Reject(ctx); err != nil {
			return nil, err
		}
		record.PendingEntryID = nil
		record.PriorStatus = nil
		if err := s.debtRepo.Update(ctx, record); err != nil {
			return nil, fmt.Errorf("update debt record #%d: %w", record.ID, err)
		}
	}

	batch.Status = models.BatchStatusRejected
	if err := s.batchRepo.Update(ctx, batch); err != nil {
		return nil, fmt.Errorf("update batch: %w", err)
	}

	if _, err := s.accountSvc.Recompute(ctx, batch.MemberID); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, "REJECT", "BatchPayment", batch.ID,
		fmt.Sprintf("Batch of %.2f rejected", batch.Amount), ip, userAgent)

	return batch, nil
}

// FindByID returns one batch payment with its allocations
func (s *BatchService) FindByID(ctx context.Context, id uint) (*models.BatchPayment, error) {
	batch, err := s.batchRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return batch, nil
}

// List returns a filtered page of an organization's batch payments
func (s *BatchService) List(ctx context.Context, organizationID uint, query *repository.ListQuery) ([]models.BatchPayment, int64, error) {
	return s.batchRepo.List(ctx, organizationID, query)
}

// ProofFile opens the stored proof-of-payment attachment
func (s *BatchService) ProofFile(ctx context.Context, id uint) (*os.File, string, error) {
	batch, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if !batch.HasProof() {
		return nil, "", ErrNotFound
	}
	file, err := s.storage.Download(*batch.ProofPath)
	if err != nil {
		return nil, "", fmt.Errorf("open proof file: %w", err)
	}
	mime := "application/octet-stream"
	if batch.ProofMimeType != nil {
		mime = *batch.ProofMimeType
	}
	return file, mime, nil
}

// applyAllocation applies one planned share to a record that is in review
func (s *BatchService) applyAllocation(ctx context.Context, record *models.DebtRecord, amount float64, method string, paidOn time.Time) error {
	remaining := models.Round2(amount)
	if remaining >= record.OpenAmount {
		remaining = models.Round2(remaining - record.OpenAmount)
		record.OpenAmount = 0
	} else {
		record.OpenAmount = models.Round2(record.OpenAmount - remaining)
		remaining = 0
	}
	if remaining > 0 {
		record.Penalty = models.Round2(record.Penalty - remaining)
		if record.Penalty < 0 {
			record.Penalty = 0
		}
	}

	payment := &models.DebtPayment{
		DebtRecordID: record.ID,
		Amount:       models.Round2(amount),
		Method:       method,
		PaidOn:       paidOn,
	}
	if err := s.debtRepo.AppendPayment(ctx, payment); err != nil {
		return fmt.Errorf("append payment history: %w", err)
	}
	record.Payments = append(record.Payments, *payment)

	machine := statemachine.NewDebtFSM(record)
	if record.CurrentDue() <= models.AmountEpsilon {
		if err := machine.Settle(ctx); err != nil {
			return err
		}
	} else {
		if err := machine.PayPartial(ctx); err != nil {
			return err
		}
	}
	record.PendingEntryID = nil
	record.PriorStatus = nil
	return s.debtRepo.Update(ctx, record)
}

func (s *BatchService) loadRecords(ctx context.Context, ids []uint) ([]models.DebtRecord, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no debt records selected", ErrValidation)
	}
	records, err := s.debtRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(records) != len(ids) {
		return nil, ErrNotFound
	}
	return records, nil
}
