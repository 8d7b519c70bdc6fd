package services

import (
	"context"
	"testing"

	"github.com/dojoflow/tuition-api/internal/models"
	"github.com/stretchr/testify/assert"
)

func newMemberService(t *testing.T) (*MemberService, *mockMemberRepository, *mockOrganizationRepository) {
	t.Helper()
	memberRepo := newMockMemberRepository()
	orgRepo := newMockOrganizationRepository()
	accountSvc := NewAccountService(&mockLedgerRepository{}, memberRepo, orgRepo, nil)
	return NewMemberService(memberRepo, orgRepo, accountSvc, nil), memberRepo, orgRepo
}

func TestCreateMemberDefaultsToWhite(t *testing.T) {
	service, _, _ := newMemberService(t)

	member, err := service.Create(context.Background(), CreateMemberInput{
		OrganizationID: 1,
		FullName:       "Diego Vargas",
	}, 1, "", "")

	assert.NoError(t, err)
	assert.Equal(t, "white", member.Rank)
	assert.Equal(t, models.AccountStatusActive, member.AccountStatus)
}

func TestRecordAttendanceCrossesThreshold(t *testing.T) {
	service, memberRepo, orgRepo := newMemberService(t)
	memberRepo.Create(context.Background(), &models.Member{
		ID: 1, OrganizationID: 1, FullName: "Diego Vargas", Rank: "white", AttendanceCount: 29,
	})
	orgRepo.SaveRankRequirement(context.Background(), &models.RankRequirement{
		OrganizationID: 1, Rank: "white", AttendanceThreshold: 30,
	})

	member, err := service.RecordAttendance(context.Background(), 1, 1, 1, "", "")

	assert.NoError(t, err)
	assert.Equal(t, 30, member.AttendanceCount)
	assert.Equal(t, models.AccountStatusExamReady, member.AccountStatus)
}

func TestRecordAttendanceZeroCountsOne(t *testing.T) {
	service, memberRepo, _ := newMemberService(t)
	memberRepo.Create(context.Background(), &models.Member{
		ID: 1, OrganizationID: 1, FullName: "Diego Vargas", Rank: "white",
	})

	member, err := service.RecordAttendance(context.Background(), 1, 0, 1, "", "")

	assert.NoError(t, err)
	assert.Equal(t, 1, member.AttendanceCount)
}

func TestPromoteResetsAttendance(t *testing.T) {
	service, memberRepo, orgRepo := newMemberService(t)
	memberRepo.Create(context.Background(), &models.Member{
		ID: 1, OrganizationID: 1, FullName: "Diego Vargas", Rank: "white", AttendanceCount: 35,
	})
	orgRepo.SaveRankRequirement(context.Background(), &models.RankRequirement{
		OrganizationID: 1, Rank: "white", AttendanceThreshold: 30,
	})
	orgRepo.SaveRankRequirement(context.Background(), &models.RankRequirement{
		OrganizationID: 1, Rank: "yellow", AttendanceThreshold: 40,
	})

	member, err := service.Promote(context.Background(), 1, "yellow", 1, "", "")

	assert.NoError(t, err)
	assert.Equal(t, "yellow", member.Rank)
	assert.Equal(t, 0, member.AttendanceCount)
	// The fresh tally sits under the new threshold
	assert.Equal(t, models.AccountStatusActive, member.AccountStatus)
}

func TestPromoteEmptyRankRejected(t *testing.T) {
	service, memberRepo, _ := newMemberService(t)
	memberRepo.Create(context.Background(), &models.Member{
		ID: 1, OrganizationID: 1, FullName: "Diego Vargas", Rank: "white",
	})

	_, err := service.Promote(context.Background(), 1, "", 1, "", "")

	assert.ErrorIs(t, err, ErrValidation)
}

func TestMemberNotFound(t *testing.T) {
	service, _, _ := newMemberService(t)

	_, err := service.FindByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = service.RecordAttendance(context.Background(), 42, 1, 1, "", "")
	assert.ErrorIs(t, err, ErrNotFound)
}
