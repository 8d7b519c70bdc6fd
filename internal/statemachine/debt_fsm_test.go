package statemachine

import (
	"context"
	"testing"

	"github.com/dojoflow/tuition-api/internal/models"
	"github.com/stretchr/testify/assert"
)

func recordIn(status string) *models.DebtRecord {
	pendingID := uint(1)
	record := &models.DebtRecord{
		ID:         1,
		OpenAmount: 800,
		Status:     status,
	}
	if status == models.DebtStatusInReview {
		record.PendingEntryID = &pendingID
	}
	return record
}

func TestSubmitFromPayableStates(t *testing.T) {
	for _, status := range []string{
		models.DebtStatusOpen,
		models.DebtStatusPartiallySettled,
		models.DebtStatusOverdue,
	} {
		record := recordIn(status)
		machine := NewDebtFSM(record)

		err := machine.Submit(context.Background())

		assert.NoError(t, err, "submit from %s", status)
		assert.Equal(t, models.DebtStatusInReview, record.Status)
	}
}

func TestSubmitFromSettledFails(t *testing.T) {
	record := recordIn(models.DebtStatusSettled)
	machine := NewDebtFSM(record)

	err := machine.Submit(context.Background())

	assert.Error(t, err)
	assert.Equal(t, models.DebtStatusSettled, record.Status)
}

func TestSettleFromReviewAndPayableStates(t *testing.T) {
	for _, status := range []string{
		models.DebtStatusOpen,
		models.DebtStatusPartiallySettled,
		models.DebtStatusOverdue,
		models.DebtStatusInReview,
	} {
		record := recordIn(status)
		machine := NewDebtFSM(record)

		err := machine.Settle(context.Background())

		assert.NoError(t, err, "settle from %s", status)
		assert.Equal(t, models.DebtStatusSettled, record.Status)
	}
}

func TestPayPartial(t *testing.T) {
	record := recordIn(models.DebtStatusOpen)
	machine := NewDebtFSM(record)

	err := machine.PayPartial(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, models.DebtStatusPartiallySettled, record.Status)
}

func TestRejectRevertsToPriorStatus(t *testing.T) {
	cases := map[string]string{
		models.DebtStatusOpen:             models.DebtStatusOpen,
		models.DebtStatusPartiallySettled: models.DebtStatusPartiallySettled,
		models.DebtStatusOverdue:          models.DebtStatusOverdue,
	}
	for prior, want := range cases {
		record := recordIn(models.DebtStatusInReview)
		priorCopy := prior
		record.PriorStatus = &priorCopy
		machine := NewDebtFSM(record)

		err := machine.Reject(context.Background())

		assert.NoError(t, err, "reject back to %s", prior)
		assert.Equal(t, want, record.Status)
	}
}

func TestRejectWithoutPriorDefaultsToOpen(t *testing.T) {
	record := recordIn(models.DebtStatusInReview)
	machine := NewDebtFSM(record)

	err := machine.Reject(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, models.DebtStatusOpen, record.Status)
}

func TestRejectOutsideReviewFails(t *testing.T) {
	record := recordIn(models.DebtStatusOpen)
	machine := NewDebtFSM(record)

	err := machine.Reject(context.Background())

	assert.Error(t, err)
	assert.Equal(t, models.DebtStatusOpen, record.Status)
}

func TestMarkOverdueOnlyFromOpen(t *testing.T) {
	record := recordIn(models.DebtStatusOpen)
	machine := NewDebtFSM(record)
	assert.NoError(t, machine.MarkOverdue(context.Background()))
	assert.Equal(t, models.DebtStatusOverdue, record.Status)

	for _, status := range []string{
		models.DebtStatusPartiallySettled,
		models.DebtStatusInReview,
		models.DebtStatusSettled,
	} {
		record := recordIn(status)
		machine := NewDebtFSM(record)
		assert.Error(t, machine.MarkOverdue(context.Background()), "mark overdue from %s", status)
	}
}

func TestReopenAfterAdjustment(t *testing.T) {
	record := recordIn(models.DebtStatusSettled)
	machine := NewDebtFSM(record)

	err := machine.Reopen(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, models.DebtStatusOpen, record.Status)
}

func TestReopenFromOpenFails(t *testing.T) {
	record := recordIn(models.DebtStatusOpen)
	machine := NewDebtFSM(record)

	assert.Error(t, machine.Reopen(context.Background()))
}

func TestCanReflectsCurrentState(t *testing.T) {
	machine := NewDebtFSM(recordIn(models.DebtStatusOpen))

	assert.True(t, machine.Can("submit"))
	assert.True(t, machine.Can("mark_overdue"))
	assert.False(t, machine.Can("reopen"))
	assert.Equal(t, models.DebtStatusOpen, machine.Current())
}
