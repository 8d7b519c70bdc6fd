package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dojoflow/tuition-api/internal/models"
	"github.com/dojoflow/tuition-api/internal/repository"
	"github.com/dojoflow/tuition-api/internal/statemachine"
	"github.com/dojoflow/tuition-api/pkg/logger"
)

// BillingService runs the scheduled monthly tuition and late fee jobs.
// Each job is guarded twice: a per-organization daily marker keeps a day
// from running twice, and a per-member month check keeps a member from
// being charged twice even if the marker is lost. The marker only advances
// after every member succeeded, so a partial failure is retried on the
// next tick without double-charging the members that already went through.
type BillingService struct {
	orgRepo        repository.OrganizationRepository
	memberRepo     repository.MemberRepository
	debtRepo       repository.DebtRepository
	ledgerRepo     repository.LedgerRepository
	automationRepo repository.AutomationRepository
	accountSvc     *AccountService
	auditSvc       *AuditService
}

// NewBillingService creates a new billing service
func NewBillingService(
	orgRepo repository.OrganizationRepository,
	memberRepo repository.MemberRepository,
	debtRepo repository.DebtRepository,
	ledgerRepo repository.LedgerRepository,
	automationRepo repository.AutomationRepository,
	accountSvc *AccountService,
	auditSvc *AuditService,
) *BillingService {
	return &BillingService{
		orgRepo:        orgRepo,
		memberRepo:     memberRepo,
		debtRepo:       debtRepo,
		ledgerRepo:     ledgerRepo,
		automationRepo: automationRepo,
		accountSvc:     accountSvc,
		auditSvc:       auditSvc,
	}
}

// BillingRunResult summarizes one scheduled run
type BillingRunResult struct {
	Ran      bool `json:"ran"`
	Charged  int  `json:"charged"`
	Skipped  int  `json:"skipped"`
	Failed   int  `json:"failed"`
	Advanced bool `json:"advanced"`
}

// RunDaily runs both scheduled jobs for every organization. Called from the
// worker tick; the date is taken once so a run straddling midnight stays on
// the day it started.
func (s *BillingService) RunDaily(ctx context.Context) {
	today := time.Now()
	orgs, err := s.orgRepo.FindAll(ctx)
	if err != nil {
		logger.Error("Failed to load organizations for billing run", "error", err)
		return
	}
	for i := range orgs {
		if _, err := s.RunMonthlyBilling(ctx, orgs[i].ID, today); err != nil {
			logger.Error("Monthly billing run failed", "organization_id", orgs[i].ID, "error", err)
		}
		if _, err := s.RunLateFees(ctx, orgs[i].ID, today); err != nil {
			logger.Error("Late fee run failed", "organization_id", orgs[i].ID, "error", err)
		}
	}
}

// RunMonthlyBilling creates this month's tuition charge for every billable
// member of the organization. A no-op unless today is the configured billing
// day and the day has not already run.
func (s *BillingService) RunMonthlyBilling(ctx context.Context, organizationID uint, today time.Time) (*BillingRunResult, error) {
	result := &BillingRunResult{}

	settings, err := s.orgRepo.GetSettings(ctx, organizationID)
	if err != nil {
		return result, fmt.Errorf("load billing settings: %w", err)
	}
	if today.Day() != settings.BillingDay {
		return result, nil
	}

	state, err := s.automationRepo.GetOrCreate(ctx, organizationID)
	if err != nil {
		return result, fmt.Errorf("load automation state: %w", err)
	}
	dayKey := today.Format(time.DateOnly)
	if state.LastMonthlyBillingRun == dayKey {
		return result, nil
	}
	result.Ran = true

	members, err := s.memberRepo.FindBillable(ctx, organizationID)
	if err != nil {
		return result, fmt.Errorf("load billable members: %w", err)
	}

	dueDate := time.Date(today.Year(), today.Month(), settings.LateFeeDay, 0, 0, 0, 0, time.Local)
	for i := range members {
		member := &members[i]
		charged, err := s.chargeTuition(ctx, settings, member, today, dueDate)
		if err != nil {
			logger.Error("Failed to bill member", "member_id", member.ID, "error", err)
			result.Failed++
			continue
		}
		if charged {
			result.Charged++
		} else {
			result.Skipped++
		}
	}

	// Only a clean sweep advances the marker; failed members are retried on
	// the next tick and the month check shields the ones that succeeded.
	if result.Failed == 0 {
		state.LastMonthlyBillingRun = dayKey
		if err := s.automationRepo.Save(ctx, state); err != nil {
			return result, fmt.Errorf("advance billing marker: %w", err)
		}
		result.Advanced = true
	}

	logger.Info("Monthly billing run finished",
		"organization_id", organizationID,
		"charged", result.Charged,
		"skipped", result.Skipped,
		"failed", result.Failed)
	return result, nil
}

// RunLateFees charges the configured penalty to every member who still
// carries a positive balance on the late fee day. The penalty lands on the
// oldest past-due record when one exists, otherwise on the oldest owing
// record, and a matching late fee charge goes to the ledger.
func (s *BillingService) RunLateFees(ctx context.Context, organizationID uint, today time.Time) (*BillingRunResult, error) {
	result := &BillingRunResult{}

	settings, err := s.orgRepo.GetSettings(ctx, organizationID)
	if err != nil {
		return result, fmt.Errorf("load billing settings: %w", err)
	}
	if today.Day() != settings.LateFeeDay || settings.LateFeeAmount <= 0 {
		return result, nil
	}

	state, err := s.automationRepo.GetOrCreate(ctx, organizationID)
	if err != nil {
		return result, fmt.Errorf("load automation state: %w", err)
	}
	dayKey := today.Format(time.DateOnly)
	if state.LastLateFeeRun == dayKey {
		return result, nil
	}
	result.Ran = true

	members, err := s.memberRepo.FindBillable(ctx, organizationID)
	if err != nil {
		return result, fmt.Errorf("load billable members: %w", err)
	}

	for i := range members {
		member := &members[i]
		applied, err := s.applyLateFee(ctx, settings, member, today)
		if err != nil {
			logger.Error("Failed to apply late fee", "member_id", member.ID, "error", err)
			result.Failed++
			continue
		}
		if applied {
			result.Charged++
		} else {
			result.Skipped++
		}
	}

	if result.Failed == 0 {
		state.LastLateFeeRun = dayKey
		if err := s.automationRepo.Save(ctx, state); err != nil {
			return result, fmt.Errorf("advance late fee marker: %w", err)
		}
		result.Advanced = true
	}

	logger.Info("Late fee run finished",
		"organization_id", organizationID,
		"charged", result.Charged,
		"skipped", result.Skipped,
		"failed", result.Failed)
	return result, nil
}

// chargeTuition creates the month's tuition debt record and its open charge
// for one member, unless the member already carries a tuition charge this
// month.
func (s *BillingService) chargeTuition(ctx context.Context, settings *models.OrganizationSettings, member *models.Member, today, dueDate time.Time) (bool, error) {
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.Local)
	exists, err := s.ledgerRepo.HasChargeInMonth(ctx, settings.OrganizationID, member.ID, models.CategoryTuition, monthStart)
	if err != nil {
		return false, fmt.Errorf("check existing tuition charge: %w", err)
	}
	if exists {
		return false, nil
	}

	amount := models.Round2(settings.MonthlyTuition)
	record := &models.DebtRecord{
		OrganizationID:          settings.OrganizationID,
		MemberID:                member.ID,
		Category:                models.CategoryTuition,
		Description:             fmt.Sprintf("Tuition %s", today.Format("January 2006")),
		Principal:               &amount,
		OpenAmount:              amount,
		DueDate:                 dueDate,
		AllowsPartialSettlement: true,
		Status:                  models.DebtStatusOpen,
	}
	if err := s.debtRepo.Create(ctx, record); err != nil {
		return false, fmt.Errorf("create tuition debt: %w", err)
	}

	entry := &models.LedgerEntry{
		OrganizationID: settings.OrganizationID,
		MemberID:       member.ID,
		DebtRecordID:   &record.ID,
		Kind:           models.EntryKindCharge,
		Status:         models.ChargeStatusOpen,
		Category:       models.CategoryTuition,
		Amount:         amount,
		OccurredOn:     today,
		Description:    fmt.Sprintf("Tuition %s", today.Format("January 2006")),
	}
	if err := s.ledgerRepo.Create(ctx, entry); err != nil {
		return false, fmt.Errorf("create tuition charge: %w", err)
	}

	if _, err := s.accountSvc.Recompute(ctx, member.ID); err != nil {
		return false, err
	}
	return true, nil
}

// applyLateFee fines one member for the month if their balance is still
// positive. Past-due open records are flipped overdue on the way. The fee
// attaches to the oldest past-due record, falling back to the oldest owing
// one; with nothing owing (every record parked in review) a fresh late fee
// debt record carries it, so the fee is always payable through the normal
// flows. One late fee per member per month, enforced through the ledger the
// same way tuition is.
func (s *BillingService) applyLateFee(ctx context.Context, settings *models.OrganizationSettings, member *models.Member, today time.Time) (bool, error) {
	records, err := s.debtRepo.FindOwingByMember(ctx, settings.OrganizationID, member.ID)
	if err != nil {
		return false, fmt.Errorf("load owing records: %w", err)
	}

	var target *models.DebtRecord
	for i := range records {
		r := &records[i]
		if !r.IsPastDue(today) {
			continue
		}
		if r.Status == models.DebtStatusOpen {
			machine := statemachine.NewDebtFSM(r)
			if err := machine.MarkOverdue(ctx); err != nil {
				return false, err
			}
			if err := s.debtRepo.Update(ctx, r); err != nil {
				return false, fmt.Errorf("mark record overdue: %w", err)
			}
		}
		if target == nil {
			target = r
		}
	}
	if target == nil && len(records) > 0 {
		target = &records[0]
	}

	entries, err := s.ledgerRepo.FindByMember(ctx, settings.OrganizationID, member.ID)
	if err != nil {
		return false, fmt.Errorf("load ledger for member %d: %w", member.ID, err)
	}
	if ComputeAccount(entries, false, false).Balance <= 0 {
		return false, nil
	}

	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.Local)
	exists, err := s.ledgerRepo.HasChargeInMonth(ctx, settings.OrganizationID, member.ID, models.CategoryLateFee, monthStart)
	if err != nil {
		return false, fmt.Errorf("check existing late fee: %w", err)
	}
	if exists {
		return false, nil
	}

	fee := models.Round2(settings.LateFeeAmount)
	description := fmt.Sprintf("Late fee %s", today.Format("January 2006"))

	if target != nil {
		target.Penalty = models.Round2(target.Penalty + fee)
		if err := s.debtRepo.Update(ctx, target); err != nil {
			return false, fmt.Errorf("attach penalty: %w", err)
		}
	} else {
		target = &models.DebtRecord{
			OrganizationID:          settings.OrganizationID,
			MemberID:                member.ID,
			Category:                models.CategoryLateFee,
			Description:             description,
			Principal:               &fee,
			OpenAmount:              fee,
			DueDate:                 time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.Local),
			AllowsPartialSettlement: true,
			Status:                  models.DebtStatusOpen,
		}
		if err := s.debtRepo.Create(ctx, target); err != nil {
			return false, fmt.Errorf("create late fee debt: %w", err)
		}
	}

	entry := &models.LedgerEntry{
		OrganizationID: settings.OrganizationID,
		MemberID:       member.ID,
		DebtRecordID:   &target.ID,
		Kind:           models.EntryKindCharge,
		Status:         models.ChargeStatusOpen,
		Category:       models.CategoryLateFee,
		Amount:         fee,
		OccurredOn:     today,
		Description:    description,
	}
	if err := s.ledgerRepo.Create(ctx, entry); err != nil {
		return false, fmt.Errorf("create late fee charge: %w", err)
	}

	if _, err := s.accountSvc.Recompute(ctx, member.ID); err != nil {
		return false, err
	}
	return true, nil
}
