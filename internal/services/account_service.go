package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dojoflow/tuition-api/internal/models"
	"github.com/dojoflow/tuition-api/internal/repository"

	"gorm.io/gorm"
)

// AccountSnapshot is the derived view of one member's account
type AccountSnapshot struct {
	Balance float64 `json:"balance"`
	Status  string  `json:"status"`
}

// ComputeAccount folds a member's ledger into a balance and account status.
// Pure and order independent; safe to re-run on every ledger mutation, which
// is exactly how it is used. There is no incremental path on purpose: payment
// approval or rejection can retroactively change which entries count.
//
// Status resolution, first match wins: explicit inactive flag, then open
// debt, then attendance-readiness, then active. A debtor is never shown exam
// ready; readiness survives a debt episode through the attendance flag.
func ComputeAccount(entries []models.LedgerEntry, attendanceReady, explicitInactive bool) AccountSnapshot {
	charges := 0.0
	payments := 0.0
	for i := range entries {
		e := &entries[i]
		switch {
		case e.IsOpenCharge():
			charges += e.Amount
		case e.IsApprovedPayment():
			payments += e.Amount
		}
	}

	balance := models.Round2(charges - payments)
	if balance < 0 {
		balance = 0
	}

	status := models.AccountStatusActive
	switch {
	case explicitInactive:
		status = models.AccountStatusInactive
	case balance > 0:
		status = models.AccountStatusDebtor
	case attendanceReady:
		status = models.AccountStatusExamReady
	}

	return AccountSnapshot{Balance: balance, Status: status}
}

// AccountService derives and persists member account snapshots
type AccountService struct {
	ledgerRepo repository.LedgerRepository
	memberRepo repository.MemberRepository
	orgRepo    repository.OrganizationRepository
	auditSvc   *AuditService
}

// NewAccountService creates a new account service
func NewAccountService(
	ledgerRepo repository.LedgerRepository,
	memberRepo repository.MemberRepository,
	orgRepo repository.OrganizationRepository,
	auditSvc *AuditService,
) *AccountService {
	return &AccountService{
		ledgerRepo: ledgerRepo,
		memberRepo: memberRepo,
		orgRepo:    orgRepo,
		auditSvc:   auditSvc,
	}
}

// Recompute re-derives the member's balance and status from the ledger and
// persists the snapshot. Every mutating ledger operation calls this
// synchronously before returning.
func (s *AccountService) Recompute(ctx context.Context, memberID uint) (*models.Member, error) {
	member, err := s.memberRepo.FindByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	entries, err := s.ledgerRepo.FindByMember(ctx, member.OrganizationID, member.ID)
	if err != nil {
		return nil, fmt.Errorf("load ledger for member %d: %w", member.ID, err)
	}

	ready, err := s.attendanceReady(ctx, member)
	if err != nil {
		return nil, err
	}

	snap := ComputeAccount(entries, ready, member.Inactive)
	member.Balance = snap.Balance
	member.AccountStatus = snap.Status

	if err := s.memberRepo.Update(ctx, member); err != nil {
		return nil, fmt.Errorf("persist account snapshot for member %d: %w", member.ID, err)
	}
	return member, nil
}

// GetAccount returns a fresh snapshot for the member
func (s *AccountService) GetAccount(ctx context.Context, memberID uint) (*models.Member, error) {
	return s.Recompute(ctx, memberID)
}

// SetInactive flips the explicit inactive flag and re-derives the status
func (s *AccountService) SetInactive(ctx context.Context, memberID uint, inactive bool, actorID uint, ip, userAgent string) (*models.Member, error) {
	member, err := s.memberRepo.FindByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	member.Inactive = inactive
	if err := s.memberRepo.Update(ctx, member); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, "UPDATE", "Member", member.ID,
		fmt.Sprintf("Inactive flag set to %t", inactive), ip, userAgent)

	return s.Recompute(ctx, memberID)
}

// attendanceReady checks the member's tally against the configured threshold
// for their current rank. A rank without a configured requirement never
// becomes exam ready.
func (s *AccountService) attendanceReady(ctx context.Context, member *models.Member) (bool, error) {
	req, err := s.orgRepo.GetRankRequirement(ctx, member.OrganizationID, member.Rank)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return member.AttendanceCount >= req.AttendanceThreshold, nil
}
