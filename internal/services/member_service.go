package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dojoflow/tuition-api/internal/models"
	"github.com/dojoflow/tuition-api/internal/repository"
	"gorm.io/gorm"
)

// MemberService manages the roster: enrollment, attendance tallies and rank
// promotions. Attendance feeds the exam readiness flag, which the account
// recomputation folds into the derived status.
type MemberService struct {
	memberRepo repository.MemberRepository
	orgRepo    repository.OrganizationRepository
	accountSvc *AccountService
	auditSvc   *AuditService
}

// NewMemberService creates a new member service
func NewMemberService(
	memberRepo repository.MemberRepository,
	orgRepo repository.OrganizationRepository,
	accountSvc *AccountService,
	auditSvc *AuditService,
) *MemberService {
	return &MemberService{
		memberRepo: memberRepo,
		orgRepo:    orgRepo,
		accountSvc: accountSvc,
		auditSvc:   auditSvc,
	}
}

// CreateMemberInput describes a new roster entry
type CreateMemberInput struct {
	OrganizationID uint   `json:"organization_id" binding:"required"`
	FullName       string `json:"full_name" binding:"required"`
	Rank           string `json:"rank"`
}

// Create enrolls a new member
func (s *MemberService) Create(ctx context.Context, input CreateMemberInput, actorID uint, ip, userAgent string) (*models.Member, error) {
	member := &models.Member{
		OrganizationID: input.OrganizationID,
		FullName:       input.FullName,
		Rank:           input.Rank,
		AccountStatus:  models.AccountStatusActive,
	}
	if member.Rank == "" {
		member.Rank = "white"
	}
	if err := s.memberRepo.Create(ctx, member); err != nil {
		return nil, fmt.Errorf("create member: %w", err)
	}

	s.auditSvc.Log(ctx, actorID, "CREATE", "Member", member.ID,
		fmt.Sprintf("Member %s enrolled at rank %s", member.FullName, member.Rank), ip, userAgent)
	return member, nil
}

// FindByID returns one member
func (s *MemberService) FindByID(ctx context.Context, id uint) (*models.Member, error) {
	member, err := s.memberRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return member, nil
}

// List returns a filtered page of the organization's roster
func (s *MemberService) List(ctx context.Context, organizationID uint, query *repository.ListQuery) ([]models.Member, int64, error) {
	return s.memberRepo.List(ctx, organizationID, query)
}

// RecordAttendance bumps the member's tally and recomputes the account, so
// crossing the rank threshold flips a paid-up member to exam ready at once.
func (s *MemberService) RecordAttendance(ctx context.Context, memberID uint, sessions int, actorID uint, ip, userAgent string) (*models.Member, error) {
	if sessions <= 0 {
		sessions = 1
	}
	member, err := s.FindByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	member.AttendanceCount += sessions
	if err := s.memberRepo.Update(ctx, member); err != nil {
		return nil, fmt.Errorf("update attendance: %w", err)
	}

	member, err = s.accountSvc.Recompute(ctx, memberID)
	if err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, "UPDATE", "Member", member.ID,
		fmt.Sprintf("Attendance +%d (now %d)", sessions, member.AttendanceCount), ip, userAgent)
	return member, nil
}

// Promote moves the member to a new rank and resets the attendance tally.
// The recompute drops exam_ready immediately since the fresh tally sits
// under the new rank's threshold.
func (s *MemberService) Promote(ctx context.Context, memberID uint, newRank string, actorID uint, ip, userAgent string) (*models.Member, error) {
	if newRank == "" {
		return nil, fmt.Errorf("%w: rank is required", ErrValidation)
	}
	member, err := s.FindByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	oldRank := member.Rank
	member.Rank = newRank
	member.AttendanceCount = 0
	if err := s.memberRepo.Update(ctx, member); err != nil {
		return nil, fmt.Errorf("update rank: %w", err)
	}

	member, err = s.accountSvc.Recompute(ctx, memberID)
	if err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, "PROMOTE", "Member", member.ID,
		fmt.Sprintf("Promoted from %s to %s", oldRank, newRank), ip, userAgent)
	return member, nil
}
