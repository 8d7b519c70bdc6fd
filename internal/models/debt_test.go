package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	assert.Equal(t, 0.1, Round2(0.1))
	assert.Equal(t, 800.01, Round2(800.005))
	assert.Equal(t, 799.99, Round2(799.994))
	assert.Equal(t, -0.5, Round2(-0.495))
	assert.Equal(t, 0.0, Round2(0))
}

func TestReconstructAmountsWithRecordedPrincipal(t *testing.T) {
	principal := 800.0
	record := &DebtRecord{
		Principal:  &principal,
		OpenAmount: 500,
		Penalty:    50,
		Payments: []DebtPayment{
			{Amount: 200, PaidOn: time.Now()},
			{Amount: 150, PaidOn: time.Now()},
		},
	}

	amounts := record.ReconstructAmounts()

	assert.Equal(t, 800.0, amounts.Principal)
	assert.Equal(t, 350.0, amounts.TotalPaid)
	assert.Equal(t, 550.0, amounts.CurrentDue)
	assert.Equal(t, 900.0, amounts.GrandTotal)
	// Grand total minus principal is the accrued penalty
	assert.Equal(t, 100.0, amounts.Penalty)
}

func TestReconstructAmountsLegacyRecord(t *testing.T) {
	record := &DebtRecord{
		OpenAmount: 300,
		Payments: []DebtPayment{
			{Amount: 500, PaidOn: time.Now()},
		},
	}

	amounts := record.ReconstructAmounts()

	// With no recorded principal the whole grand total is treated as such
	assert.Equal(t, 800.0, amounts.Principal)
	assert.Equal(t, 0.0, amounts.Penalty)
	assert.Equal(t, 800.0, amounts.GrandTotal)
}

func TestReconstructAmountsClampsNegativePenalty(t *testing.T) {
	// A downward adjustment can leave the grand total under the original
	// principal; that never shows as a negative penalty.
	principal := 800.0
	record := &DebtRecord{
		Principal:  &principal,
		OpenAmount: 100,
		Payments: []DebtPayment{
			{Amount: 300, PaidOn: time.Now()},
		},
	}

	amounts := record.ReconstructAmounts()

	assert.Equal(t, 0.0, amounts.Penalty)
	assert.Equal(t, 400.0, amounts.GrandTotal)
}

func TestIsOwing(t *testing.T) {
	assert.True(t, (&DebtRecord{OpenAmount: 100}).IsOwing())
	assert.True(t, (&DebtRecord{Penalty: 50}).IsOwing())
	assert.False(t, (&DebtRecord{}).IsOwing())
	// Residue inside the epsilon counts as cleared
	assert.False(t, (&DebtRecord{OpenAmount: 0.005}).IsOwing())
}

func TestIsPastDue(t *testing.T) {
	due := func(day int) *DebtRecord {
		return &DebtRecord{DueDate: time.Date(2026, 9, day, 0, 0, 0, 0, time.Local)}
	}

	today := time.Date(2026, 9, 15, 12, 0, 0, 0, time.Local)
	assert.True(t, due(14).IsPastDue(today))
	assert.False(t, due(15).IsPastDue(today))
	assert.False(t, due(16).IsPastDue(today))
}

func TestIsPastDueFollowsCalendarDateNotUTC(t *testing.T) {
	due := &DebtRecord{DueDate: time.Date(2026, 9, 15, 0, 0, 0, 0, time.Local)}

	// Late evening west of UTC is still the due date itself
	west := time.Date(2026, 9, 15, 20, 0, 0, 0, time.FixedZone("UTC-6", -6*3600))
	assert.False(t, due.IsPastDue(west))

	// Early morning east of UTC the day after is already past due
	east := time.Date(2026, 9, 16, 5, 0, 0, 0, time.FixedZone("UTC+9", 9*3600))
	assert.True(t, due.IsPastDue(east))
}

func TestLifecycleGuards(t *testing.T) {
	pendingID := uint(1)

	inReview := &DebtRecord{Status: DebtStatusInReview, PendingEntryID: &pendingID}
	assert.True(t, inReview.MayApprove())
	assert.True(t, inReview.MayReject())
	assert.False(t, inReview.MaySubmit())
	assert.False(t, inReview.MayAdjust())
	assert.False(t, inReview.MayDelete())

	// In review without a pending entry is corrupt, never approvable
	orphan := &DebtRecord{Status: DebtStatusInReview}
	assert.False(t, orphan.MayApprove())

	open := &DebtRecord{Status: DebtStatusOpen, OpenAmount: 100}
	assert.True(t, open.MaySubmit())
	assert.True(t, open.MayAdjust())
	assert.True(t, open.MayDelete())

	paid := &DebtRecord{Status: DebtStatusPartiallySettled, Payments: []DebtPayment{{Amount: 50}}}
	assert.True(t, paid.MaySubmit())
	assert.False(t, paid.MayDelete())
}
