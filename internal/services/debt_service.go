package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dojoflow/tuition-api/internal/models"
	"github.com/dojoflow/tuition-api/internal/repository"
	"github.com/dojoflow/tuition-api/internal/statemachine"
	"github.com/dojoflow/tuition-api/pkg/logger"

	"gorm.io/gorm"
)

// DebtService drives one debt record through its lifecycle. Every mutation
// is all-or-nothing for the caller and is followed by a synchronous account
// recomputation, so the derived balance never lags the ledger.
type DebtService struct {
	debtRepo   repository.DebtRepository
	ledgerRepo repository.LedgerRepository
	accountSvc *AccountService
	auditSvc   *AuditService
}

// NewDebtService creates a new debt service
func NewDebtService(
	debtRepo repository.DebtRepository,
	ledgerRepo repository.LedgerRepository,
	accountSvc *AccountService,
	auditSvc *AuditService,
) *DebtService {
	return &DebtService{
		debtRepo:   debtRepo,
		ledgerRepo: ledgerRepo,
		accountSvc: accountSvc,
		auditSvc:   auditSvc,
	}
}

// CreateChargeInput describes a new billable item
type CreateChargeInput struct {
	OrganizationID          uint    `json:"organization_id" binding:"required"`
	MemberID                uint    `json:"member_id" binding:"required"`
	Category                string  `json:"category" binding:"required"`
	Description             string  `json:"description"`
	Amount                  float64 `json:"amount" binding:"required"`
	DueDate                 string  `json:"due_date" binding:"required"`
	AllowsPartialSettlement bool    `json:"allows_partial_settlement"`
}

// CreateCharge creates a debt record together with its open charge entry
func (s *DebtService) CreateCharge(ctx context.Context, input CreateChargeInput, actorID uint, ip, userAgent string) (*models.DebtRecord, error) {
	if input.Amount <= 0 {
		return nil, fmt.Errorf("%w: charge amount must be positive, got %.2f", ErrInvalidAmount, input.Amount)
	}
	if !models.ValidCategories()[input.Category] {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, input.Category)
	}
	dueDate, err := time.ParseInLocation(time.DateOnly, input.DueDate, time.Local)
	if err != nil {
		return nil, fmt.Errorf("parse due date: %w", err)
	}

	amount := models.Round2(input.Amount)
	principal := amount
	record := &models.DebtRecord{
		OrganizationID:          input.OrganizationID,
		MemberID:                input.MemberID,
		Category:                input.Category,
		Description:             input.Description,
		Principal:               &principal,
		OpenAmount:              amount,
		DueDate:                 dueDate,
		AllowsPartialSettlement: input.AllowsPartialSettlement,
		Status:                  models.DebtStatusOpen,
	}
	if err := s.debtRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("create debt record: %w", err)
	}

	entry := &models.LedgerEntry{
		OrganizationID: input.OrganizationID,
		MemberID:       input.MemberID,
		DebtRecordID:   &record.ID,
		Kind:           models.EntryKindCharge,
		Status:         models.ChargeStatusOpen,
		Category:       input.Category,
		Amount:         amount,
		OccurredOn:     dueDate,
		Description:    input.Description,
	}
	if err := s.ledgerRepo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("create charge entry: %w", err)
	}

	if _, err := s.accountSvc.Recompute(ctx, input.MemberID); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, "CREATE", "DebtRecord", record.ID,
		fmt.Sprintf("Charge of %.2f (%s) created for member #%d", amount, input.Category, input.MemberID), ip, userAgent)

	return record, nil
}

// FindByID returns one debt record, flipping it to overdue first when its
// due date has passed. Overdue needs no approval; it is purely time-based.
func (s *DebtService) FindByID(ctx context.Context, id uint) (*models.DebtRecord, error) {
	record, err := s.debtRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.refreshOverdue(ctx, record, time.Now()); err != nil {
		logger.Warn("Failed to refresh overdue state", "debt_record_id", record.ID, "error", err)
	}
	return record, nil
}

// FindByMember returns all debt records for a member
func (s *DebtService) FindByMember(ctx context.Context, organizationID, memberID uint) ([]models.DebtRecord, error) {
	return s.debtRepo.FindByMember(ctx, organizationID, memberID)
}

// List returns a filtered page of an organization's debt records
func (s *DebtService) List(ctx context.Context, organizationID uint, query *repository.ListQuery) ([]models.DebtRecord, int64, error) {
	return s.debtRepo.List(ctx, organizationID, query)
}

// ApplyPayment applies a payment directly to the record, bypassing review.
// Used by masters recording money already in hand and by batch approval.
func (s *DebtService) ApplyPayment(ctx context.Context, id uint, amount float64, method string, paidOn time.Time, actorID uint, ip, userAgent string) (*models.DebtRecord, error) {
	record, err := s.debtRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.refreshOverdue(ctx, record, paidOn); err != nil {
		return nil, err
	}
	if !record.MayApplyPayment() {
		return nil, fmt.Errorf("%w: debt record #%d is %s", ErrStaleRecord, record.ID, record.Status)
	}
	if err := validatePaymentAmount(record, amount); err != nil {
		return nil, err
	}

	if err := s.settleAmount(ctx, record, amount, method, paidOn); err != nil {
		return nil, err
	}

	entry := &models.LedgerEntry{
		OrganizationID: record.OrganizationID,
		MemberID:       record.MemberID,
		DebtRecordID:   &record.ID,
		Kind:           models.EntryKindPayment,
		Status:         models.PaymentEntryApproved,
		Category:       record.Category,
		Amount:         models.Round2(amount),
		Method:         &method,
		OccurredOn:     paidOn,
		Description:    fmt.Sprintf("Payment received: %s", record.Description),
	}
	if err := s.ledgerRepo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("create payment entry: %w", err)
	}

	if _, err := s.accountSvc.Recompute(ctx, record.MemberID); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, "PAYMENT", "DebtRecord", record.ID,
		fmt.Sprintf("Payment of %.2f applied (%s)", amount, method), ip, userAgent)

	return record, nil
}

// AdjustTotal is the master-only override of a record's outstanding total,
// e.g. a scholarship. The new total can never fall below what was already
// collected.
func (s *DebtService) AdjustTotal(ctx context.Context, id uint, newTotal float64, actorID uint, ip, userAgent string) (*models.DebtRecord, error) {
	record, err := s.debtRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !record.MayAdjust() {
		return nil, fmt.Errorf("%w: debt record #%d is %s", ErrStaleRecord, record.ID, record.Status)
	}

	totalPaid := record.TotalPaid()
	if newTotal < 0 || newTotal < totalPaid-models.AmountEpsilon {
		return nil, fmt.Errorf("%w: new total %.2f is below collected %.2f", ErrInvalidAdjustment, newTotal, totalPaid)
	}

	oldDue := record.CurrentDue()
	newDue := models.Round2(newTotal - totalPaid)
	if newDue <= models.AmountEpsilon {
		newDue = 0
	}

	// The adjustment moves the principal portion. An accrued penalty stays
	// on the record and shrinks only when the new total no longer covers
	// it, so an overdue record never ends up carrying a zero penalty.
	if record.Penalty > newDue {
		record.Penalty = newDue
	}
	record.OpenAmount = models.Round2(newDue - record.Penalty)

	if err := s.transitionAfterAmountChange(ctx, record, totalPaid); err != nil {
		return nil, err
	}
	if err := s.debtRepo.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("update debt record: %w", err)
	}

	// Corrections are offsetting entries, never mutations of observed facts.
	delta := models.Round2(newDue - oldDue)
	if delta != 0 {
		entry := &models.LedgerEntry{
			OrganizationID: record.OrganizationID,
			MemberID:       record.MemberID,
			DebtRecordID:   &record.ID,
			Kind:           models.EntryKindCharge,
			Status:         models.ChargeStatusOpen,
			Category:       models.CategoryAdjustment,
			Amount:         delta,
			OccurredOn:     time.Now(),
			Description:    fmt.Sprintf("Total adjusted from %.2f to %.2f", oldDue+totalPaid, newTotal),
		}
		if delta < 0 {
			entry.Kind = models.EntryKindPayment
			entry.Status = models.PaymentEntryApproved
			entry.Amount = -delta
			entry.Description = fmt.Sprintf("Adjustment credit: total reduced to %.2f", newTotal)
		}
		if err := s.ledgerRepo.Create(ctx, entry); err != nil {
			return nil, fmt.Errorf("create adjustment entry: %w", err)
		}
	}

	if _, err := s.accountSvc.Recompute(ctx, record.MemberID); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, "ADJUST", "DebtRecord", record.ID,
		fmt.Sprintf("Total adjusted to %.2f", newTotal), ip, userAgent)

	return record, nil
}

// SubmitForReview attaches a pending payment entry to the record and parks it
// in review. The open amount does not move until a master approves.
func (s *DebtService) SubmitForReview(ctx context.Context, id uint, amount float64, method string, paidOn time.Time, actorID uint, ip, userAgent string) (*models.DebtRecord, error) {
	record, err := s.debtRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.refreshOverdue(ctx, record, paidOn); err != nil {
		return nil, err
	}
	if !record.MaySubmit() {
		return nil, fmt.Errorf("%w: debt record #%d is %s", ErrStaleRecord, record.ID, record.Status)
	}
	if err := validatePaymentAmount(record, amount); err != nil {
		return nil, err
	}

	entry := &models.LedgerEntry{
		OrganizationID: record.OrganizationID,
		MemberID:       record.MemberID,
		DebtRecordID:   &record.ID,
		Kind:           models.EntryKindPayment,
		Status:         models.PaymentEntryPendingReview,
		Category:       record.Category,
		Amount:         models.Round2(amount),
		Method:         &method,
		OccurredOn:     paidOn,
		Description:    fmt.Sprintf("Payment submitted for review: %s", record.Description),
	}
	if err := s.ledgerRepo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("create pending payment entry: %w", err)
	}

	prior := record.Status
	record.PriorStatus = &prior
	record.PendingEntryID = &entry.ID

	machine := statemachine.NewDebtFSM(record)
	if err := machine.Submit(ctx); err != nil {
		return nil, err
	}
	if err := s.debtRepo.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("update debt record: %w", err)
	}

	s.auditSvc.Log(ctx, actorID, "SUBMIT", "DebtRecord", record.ID,
		fmt.Sprintf("Payment of %.2f submitted for review (%s)", amount, method), ip, userAgent)

	return record, nil
}

// Approve finalizes a pending submission exactly like a direct payment
func (s *DebtService) Approve(ctx context.Context, id uint, actorID uint, ip, userAgent string) (*models.DebtRecord, error) {
	record, err := s.debtRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !record.MayApprove() {
		return nil, fmt.Errorf("%w: debt record #%d is %s", ErrStaleRecord, record.ID, record.Status)
	}

	entry, err := s.ledgerRepo.FindByID(ctx, *record.PendingEntryID)
	if err != nil {
		return nil, fmt.Errorf("load pending entry: %w", err)
	}
	if !entry.MayApprove() {
		return nil, fmt.Errorf("%w: payment entry #%d is %s", ErrStaleRecord, entry.ID, entry.Status)
	}

	entry.Status = models.PaymentEntryApproved
	if err := s.ledgerRepo.Update(ctx, entry); err != nil {
		return nil, fmt.Errorf("approve payment entry: %w", err)
	}

	method := models.MethodTransfer
	if entry.Method != nil {
		method = *entry.Method
	}
	if err := s.settleAmount(ctx, record, entry.Amount, method, entry.OccurredOn); err != nil {
		return nil, err
	}
	record.PendingEntryID = nil
	record.PriorStatus = nil
	if err := s.debtRepo.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("update debt record: %w", err)
	}

	if _, err := s.accountSvc.Recompute(ctx, record.MemberID); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, "APPROVE", "DebtRecord", record.ID,
		fmt.Sprintf("Payment of %.2f approved", entry.Amount), ip, userAgent)

	return record, nil
}

// Reject reverts the record to its pre-submission state and marks the pending
// entry rejected. The entry stays in the ledger for audit.
func (s *DebtService) Reject(ctx context.Context, id uint, actorID uint, reason, ip, userAgent string) (*models.DebtRecord, error) {
	record, err := s.debtRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !record.MayReject() {
		return nil, fmt.Errorf("%w: debt record #%d is %s", ErrStaleRecord, record.ID, record.Status)
	}

	entry, err := s.ledgerRepo.FindByID(ctx, *record.PendingEntryID)
	if err != nil {
		return nil, fmt.Errorf("load pending entry: %w", err)
	}
	if !entry.MayReject() {
		return nil, fmt.Errorf("%w: payment entry #%d is %s", ErrStaleRecord, entry.ID, entry.Status)
	}

	entry.Status = models.PaymentEntryRejected
	if reason != "" {
		entry.Description = fmt.Sprintf("%s (rejected: %s)", entry.Description, reason)
	}
	if err := s.ledgerRepo.Update(ctx, entry); err != nil {
		return nil, fmt.Errorf("reject payment entry: %w", err)
	}

	machine := statemachine.NewDebtFSM(record)
	if err := machine.Reject(ctx); err != nil {
		return nil, err
	}
	record.PendingEntryID = nil
	record.PriorStatus = nil
	if err := s.debtRepo.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("update debt record: %w", err)
	}

	if _, err := s.accountSvc.Recompute(ctx, record.MemberID); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, "REJECT", "DebtRecord", record.ID,
		fmt.Sprintf("Payment of %.2f rejected", entry.Amount), ip, userAgent)

	return record, nil
}

// Delete removes a debt record with no payment history and writes off its
// charge entries. Records with history are never hard-deleted.
func (s *DebtService) Delete(ctx context.Context, id uint, actorID uint, ip, userAgent string) error {
	record, err := s.debtRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !record.MayDelete() {
		return fmt.Errorf("%w: debt record #%d has payment history or is in review", ErrStaleRecord, record.ID)
	}

	if err := s.ledgerRepo.WriteOffByDebtRecord(ctx, record.ID); err != nil {
		return fmt.Errorf("write off charge entries: %w", err)
	}
	if err := s.debtRepo.Delete(ctx, record.ID); err != nil {
		return fmt.Errorf("delete debt record: %w", err)
	}

	if _, err := s.accountSvc.Recompute(ctx, record.MemberID); err != nil {
		return err
	}

	s.auditSvc.Log(ctx, actorID, "DELETE", "DebtRecord", record.ID,
		fmt.Sprintf("Debt record removed, charges written off (%.2f)", record.OpenAmount), ip, userAgent)

	return nil
}

// settleAmount applies the amount to the record's open figure (penalty last),
// appends the history item and moves the lifecycle forward.
func (s *DebtService) settleAmount(ctx context.Context, record *models.DebtRecord, amount float64, method string, paidOn time.Time) error {
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
	return s.debtRepo.Update(ctx, record)
}

// transitionAfterAmountChange re-derives the lifecycle state after an
// adjustment changed the outstanding amount.
func (s *DebtService) transitionAfterAmountChange(ctx context.Context, record *models.DebtRecord, totalPaid float64) error {
	machine := statemachine.NewDebtFSM(record)
	owing := record.CurrentDue() > models.AmountEpsilon

	switch {
	case !owing && record.Status != models.DebtStatusSettled:
		return machine.Settle(ctx)
	case owing && record.Status == models.DebtStatusSettled:
		if err := machine.Reopen(ctx); err != nil {
			return err
		}
		if totalPaid > 0 {
			return machine.PayPartial(ctx)
		}
	case owing && totalPaid > 0 && record.Status == models.DebtStatusOpen:
		return machine.PayPartial(ctx)
	}
	return nil
}

// refreshOverdue flips an open record past its due date to overdue
func (s *DebtService) refreshOverdue(ctx context.Context, record *models.DebtRecord, today time.Time) error {
	if record.Status != models.DebtStatusOpen || !record.IsPastDue(today) {
		return nil
	}
	machine := statemachine.NewDebtFSM(record)
	if err := machine.MarkOverdue(ctx); err != nil {
		return err
	}
	return s.debtRepo.Update(ctx, record)
}

// validatePaymentAmount enforces the payment bounds before any mutation
func validatePaymentAmount(record *models.DebtRecord, amount float64) error {
	due := record.CurrentDue()
	if amount <= 0 {
		return fmt.Errorf("%w: amount must be positive, got %.2f", ErrInvalidAmount, amount)
	}
	if amount > due+models.AmountEpsilon {
		return fmt.Errorf("%w: amount %.2f exceeds current due %.2f", ErrInvalidAmount, amount, due)
	}
	return nil
}
