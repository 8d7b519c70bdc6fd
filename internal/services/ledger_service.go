package services

import (
	"context"
	"errors"

	"github.com/dojoflow/tuition-api/internal/models"
	"github.com/dojoflow/tuition-api/internal/repository"
	"gorm.io/gorm"
)

// LedgerService is the read side of the ledger. All writes go through the
// debt, batch and billing services so every entry stays tied to the mutation
// that produced it.
type LedgerService struct {
	ledgerRepo repository.LedgerRepository
	memberRepo repository.MemberRepository
}

// NewLedgerService creates a new ledger service
func NewLedgerService(ledgerRepo repository.LedgerRepository, memberRepo repository.MemberRepository) *LedgerService {
	return &LedgerService{ledgerRepo: ledgerRepo, memberRepo: memberRepo}
}

// List returns a filtered page of the organization's ledger
func (s *LedgerService) List(ctx context.Context, organizationID uint, query *repository.ListQuery) ([]models.LedgerEntry, int64, error) {
	return s.ledgerRepo.List(ctx, organizationID, query)
}

// MemberStatement is a member's full entry history with the derived totals
type MemberStatement struct {
	Member       models.MemberResponse        `json:"member"`
	Entries      []models.LedgerEntryResponse `json:"entries"`
	TotalCharged float64                      `json:"total_charged"`
	TotalPaid    float64                      `json:"total_paid"`
	Balance      float64                      `json:"balance"`
}

// Statement returns one member's chronological entry history. The totals are
// folded from the same entries the balance derivation uses, so the statement
// always reconciles with the stored snapshot.
func (s *LedgerService) Statement(ctx context.Context, memberID uint) (*MemberStatement, error) {
	member, err := s.memberRepo.FindByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	entries, err := s.ledgerRepo.FindByMember(ctx, member.OrganizationID, member.ID)
	if err != nil {
		return nil, err
	}

	statement := &MemberStatement{
		Member:  member.ToResponse(),
		Entries: make([]models.LedgerEntryResponse, 0, len(entries)),
	}
	for i := range entries {
		e := &entries[i]
		statement.Entries = append(statement.Entries, e.ToResponse())
		if e.IsOpenCharge() {
			statement.TotalCharged = models.Round2(statement.TotalCharged + e.Amount)
		}
		if e.IsApprovedPayment() {
			statement.TotalPaid = models.Round2(statement.TotalPaid + e.Amount)
		}
	}
	statement.Balance = models.Round2(statement.TotalCharged - statement.TotalPaid)
	if statement.Balance < 0 {
		statement.Balance = 0
	}
	return statement, nil
}
