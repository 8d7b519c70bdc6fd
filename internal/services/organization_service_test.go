package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpdateSettingsPersists(t *testing.T) {
	orgRepo := newMockOrganizationRepository()
	service := NewOrganizationService(orgRepo, nil)

	settings, err := service.UpdateSettings(context.Background(), 1, UpdateSettingsInput{
		BillingDay:      1,
		LateFeeDay:      15,
		MonthlyTuition:  800.005,
		LateFeeAmount:   50,
		AutoApproveCash: true,
	}, 1, "", "")

	assert.NoError(t, err)
	assert.Equal(t, 800.01, settings.MonthlyTuition)
	assert.True(t, settings.AutoApproveCash)

	stored, err := orgRepo.GetSettings(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, 15, stored.LateFeeDay)
}

func TestUpdateSettingsRejectsLateFeeBeforeBilling(t *testing.T) {
	service := NewOrganizationService(newMockOrganizationRepository(), nil)

	// Equal days are just as wrong as reversed ones
	for _, lateFeeDay := range []int{1, 10, 15} {
		_, err := service.UpdateSettings(context.Background(), 1, UpdateSettingsInput{
			BillingDay:     15,
			LateFeeDay:     lateFeeDay,
			MonthlyTuition: 800,
		}, 1, "", "")
		assert.ErrorIs(t, err, ErrInvalidScheduleOrder)
	}
}

func TestUpdateSettingsRejectsBadAmounts(t *testing.T) {
	service := NewOrganizationService(newMockOrganizationRepository(), nil)

	_, err := service.UpdateSettings(context.Background(), 1, UpdateSettingsInput{
		BillingDay: 1, LateFeeDay: 15, MonthlyTuition: 0,
	}, 1, "", "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = service.UpdateSettings(context.Background(), 1, UpdateSettingsInput{
		BillingDay: 1, LateFeeDay: 15, MonthlyTuition: 800, LateFeeAmount: -1,
	}, 1, "", "")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestSetRankRequirementUpserts(t *testing.T) {
	orgRepo := newMockOrganizationRepository()
	service := NewOrganizationService(orgRepo, nil)

	req, err := service.SetRankRequirement(context.Background(), 1, "blue", 40, 1, "", "")
	assert.NoError(t, err)
	assert.Equal(t, 40, req.AttendanceThreshold)

	req, err = service.SetRankRequirement(context.Background(), 1, "blue", 50, 1, "", "")
	assert.NoError(t, err)
	assert.Equal(t, 50, req.AttendanceThreshold)

	stored, _ := orgRepo.GetRankRequirement(context.Background(), 1, "blue")
	assert.Equal(t, 50, stored.AttendanceThreshold)
}

func TestSetRankRequirementValidation(t *testing.T) {
	service := NewOrganizationService(newMockOrganizationRepository(), nil)

	_, err := service.SetRankRequirement(context.Background(), 1, "", 40, 1, "", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = service.SetRankRequirement(context.Background(), 1, "blue", 0, 1, "", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGetSettingsNotFound(t *testing.T) {
	service := NewOrganizationService(newMockOrganizationRepository(), nil)

	_, err := service.GetSettings(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)
}
