package services

import (
	"context"
	"testing"
	"time"

	"github.com/dojoflow/tuition-api/internal/models"
	"github.com/stretchr/testify/assert"
)

type debtFixture struct {
	service    *DebtService
	debtRepo   *mockDebtRepository
	ledgerRepo *mockLedgerRepository
	memberRepo *mockMemberRepository
}

func newDebtFixture(t *testing.T) *debtFixture {
	t.Helper()

	memberRepo := newMockMemberRepository()
	memberRepo.Create(context.Background(), &models.Member{
		ID: 1, OrganizationID: 1, FullName: "Carlos Lopez", Rank: "white",
	})

	ledgerRepo := &mockLedgerRepository{}
	debtRepo := newMockDebtRepository()
	accountSvc := NewAccountService(ledgerRepo, memberRepo, newMockOrganizationRepository(), nil)

	return &debtFixture{
		service:    NewDebtService(debtRepo, ledgerRepo, accountSvc, nil),
		debtRepo:   debtRepo,
		ledgerRepo: ledgerRepo,
		memberRepo: memberRepo,
	}
}

// seedDebt creates a record along with its open charge entry so the ledger
// and the record agree, the way CreateCharge leaves them.
func (f *debtFixture) seedDebt(amount float64, dueDate time.Time, splittable bool) *models.DebtRecord {
	principal := amount
	record := f.debtRepo.add(&models.DebtRecord{
		OrganizationID:          1,
		MemberID:                1,
		Category:                models.CategoryTuition,
		Description:             "Monthly tuition",
		Principal:               &principal,
		OpenAmount:              amount,
		DueDate:                 dueDate,
		AllowsPartialSettlement: splittable,
		Status:                  models.DebtStatusOpen,
	})
	f.ledgerRepo.Create(context.Background(), &models.LedgerEntry{
		OrganizationID: 1, MemberID: 1, DebtRecordID: &record.ID,
		Kind: models.EntryKindCharge, Status: models.ChargeStatusOpen,
		Category: models.CategoryTuition, Amount: amount, OccurredOn: dueDate,
	})
	return record
}

func futureDate() time.Time {
	return time.Now().AddDate(0, 1, 0)
}

func TestCreateCharge(t *testing.T) {
	f := newDebtFixture(t)

	record, err := f.service.CreateCharge(context.Background(), CreateChargeInput{
		OrganizationID:          1,
		MemberID:                1,
		Category:                models.CategoryEquipment,
		Description:             "Sparring gloves",
		Amount:                  45.50,
		DueDate:                 "2026-10-01",
		AllowsPartialSettlement: false,
	}, 1, "", "")

	assert.NoError(t, err)
	assert.Equal(t, models.DebtStatusOpen, record.Status)
	assert.Equal(t, 45.50, record.OpenAmount)

	entries, _ := f.ledgerRepo.FindByDebtRecord(context.Background(), record.ID)
	assert.Len(t, entries, 1)
	assert.True(t, entries[0].IsOpenCharge())

	member, _ := f.memberRepo.FindByID(context.Background(), 1)
	assert.Equal(t, 45.50, member.Balance)
	assert.Equal(t, models.AccountStatusDebtor, member.AccountStatus)
}

func TestCreateChargeRejectsBadInput(t *testing.T) {
	f := newDebtFixture(t)

	_, err := f.service.CreateCharge(context.Background(), CreateChargeInput{
		OrganizationID: 1, MemberID: 1, Category: models.CategoryTuition,
		Amount: -10, DueDate: "2026-10-01",
	}, 1, "", "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = f.service.CreateCharge(context.Background(), CreateChargeInput{
		OrganizationID: 1, MemberID: 1, Category: "groceries",
		Amount: 10, DueDate: "2026-10-01",
	}, 1, "", "")
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestApplyPaymentSettlesInFull(t *testing.T) {
	f := newDebtFixture(t)
	record := f.seedDebt(800, futureDate(), true)

	updated, err := f.service.ApplyPayment(context.Background(), record.ID, 800, models.MethodCash, time.Now(), 1, "", "")

	assert.NoError(t, err)
	assert.Equal(t, models.DebtStatusSettled, updated.Status)
	assert.Equal(t, 0.0, updated.CurrentDue())

	member, _ := f.memberRepo.FindByID(context.Background(), 1)
	assert.Equal(t, 0.0, member.Balance)
	assert.Equal(t, models.AccountStatusActive, member.AccountStatus)
}

func TestApplyPaymentPartial(t *testing.T) {
	f := newDebtFixture(t)
	record := f.seedDebt(800, futureDate(), true)

	updated, err := f.service.ApplyPayment(context.Background(), record.ID, 300, models.MethodTransfer, time.Now(), 1, "", "")

	assert.NoError(t, err)
	assert.Equal(t, models.DebtStatusPartiallySettled, updated.Status)
	assert.Equal(t, 500.0, updated.CurrentDue())
	assert.Equal(t, 300.0, updated.TotalPaid())
}

func TestApplyPaymentPaysPenaltyLast(t *testing.T) {
	f := newDebtFixture(t)
	record := f.seedDebt(800, futureDate(), true)
	record.Penalty = 50
	f.debtRepo.Update(context.Background(), record)

	updated, err := f.service.ApplyPayment(context.Background(), record.ID, 820, models.MethodCash, time.Now(), 1, "", "")

	assert.NoError(t, err)
	assert.Equal(t, 0.0, updated.OpenAmount)
	assert.Equal(t, 30.0, updated.Penalty)
	assert.Equal(t, models.DebtStatusPartiallySettled, updated.Status)
}

func TestApplyPaymentRejectsOverpayment(t *testing.T) {
	f := newDebtFixture(t)
	record := f.seedDebt(800, futureDate(), true)

	_, err := f.service.ApplyPayment(context.Background(), record.ID, 850, models.MethodCash, time.Now(), 1, "", "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = f.service.ApplyPayment(context.Background(), record.ID, 0, models.MethodCash, time.Now(), 1, "", "")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestApplyPaymentFlipsPastDueToOverdue(t *testing.T) {
	f := newDebtFixture(t)
	record := f.seedDebt(800, time.Now().AddDate(0, 0, -10), true)

	updated, err := f.service.ApplyPayment(context.Background(), record.ID, 100, models.MethodCash, time.Now(), 1, "", "")

	assert.NoError(t, err)
	// Overdue behaves like open: the payment still lands, the record moves on.
	assert.Equal(t, models.DebtStatusPartiallySettled, updated.Status)
}

func TestApplyPaymentSettledRecordIsStale(t *testing.T) {
	f := newDebtFixture(t)
	record := f.seedDebt(800, futureDate(), true)
	record.Status = models.DebtStatusSettled
	record.OpenAmount = 0
	f.debtRepo.Update(context.Background(), record)

	_, err := f.service.ApplyPayment(context.Background(), record.ID, 100, models.MethodCash, time.Now(), 1, "", "")
	assert.ErrorIs(t, err, ErrStaleRecord)
}

func TestSubmitApproveFlow(t *testing.T) {
	f := newDebtFixture(t)
	record := f.seedDebt(800, futureDate(), true)

	submitted, err := f.service.SubmitForReview(context.Background(), record.ID, 800, models.MethodTransfer, time.Now(), 1, "", "")
	assert.NoError(t, err)
	assert.Equal(t, models.DebtStatusInReview, submitted.Status)
	assert.NotNil(t, submitted.PendingEntryID)

	// Nothing moved yet: the open amount waits for approval
	assert.Equal(t, 800.0, submitted.OpenAmount)

	approved, err := f.service.Approve(context.Background(), record.ID, 2, "", "")
	assert.NoError(t, err)
	assert.Equal(t, models.DebtStatusSettled, approved.Status)
	assert.Nil(t, approved.PendingEntryID)
	assert.Nil(t, approved.PriorStatus)

	member, _ := f.memberRepo.FindByID(context.Background(), 1)
	assert.Equal(t, 0.0, member.Balance)
}

func TestSubmitWhileInReviewIsStale(t *testing.T) {
	f := newDebtFixture(t)
	record := f.seedDebt(800, futureDate(), true)

	_, err := f.service.SubmitForReview(context.Background(), record.ID, 400, models.MethodTransfer, time.Now(), 1, "", "")
	assert.NoError(t, err)

	_, err = f.service.SubmitForReview(context.Background(), record.ID, 400, models.MethodTransfer, time.Now(), 1, "", "")
	assert.ErrorIs(t, err, ErrStaleRecord)
}

func TestRejectRestoresPriorStatus(t *testing.T) {
	f := newDebtFixture(t)
	record := f.seedDebt(800, futureDate(), true)

	// A partial payment first, so the pre-submission state is partially_settled
	_, err := f.service.ApplyPayment(context.Background(), record.ID, 200, models.MethodCash, time.Now(), 1, "", "")
	assert.NoError(t, err)

	_, err = f.service.SubmitForReview(context.Background(), record.ID, 600, models.MethodTransfer, time.Now(), 1, "", "")
	assert.NoError(t, err)

	rejected, err := f.service.Reject(context.Background(), record.ID, 2, "illegible receipt", "", "")
	assert.NoError(t, err)
	assert.Equal(t, models.DebtStatusPartiallySettled, rejected.Status)
	assert.Nil(t, rejected.PendingEntryID)

	// The pending entry stays in the ledger, marked rejected
	entries, _ := f.ledgerRepo.FindByDebtRecord(context.Background(), record.ID)
	var sawRejected bool
	for _, e := range entries {
		if e.Kind == models.EntryKindPayment && e.Status == models.PaymentEntryRejected {
			sawRejected = true
		}
	}
	assert.True(t, sawRejected)

	// The balance still reflects the full remaining due
	member, _ := f.memberRepo.FindByID(context.Background(), 1)
	assert.Equal(t, 600.0, member.Balance)
}

func TestAdjustTotalDownSettles(t *testing.T) {
	f := newDebtFixture(t)
	record := f.seedDebt(800, futureDate(), true)

	_, err := f.service.ApplyPayment(context.Background(), record.ID, 300, models.MethodCash, time.Now(), 1, "", "")
	assert.NoError(t, err)

	// Scholarship: the member only owes what was already paid
	adjusted, err := f.service.AdjustTotal(context.Background(), record.ID, 300, 1, "", "")
	assert.NoError(t, err)
	assert.Equal(t, models.DebtStatusSettled, adjusted.Status)
	assert.Equal(t, 0.0, adjusted.CurrentDue())

	member, _ := f.memberRepo.FindByID(context.Background(), 1)
	assert.Equal(t, 0.0, member.Balance)
}

func TestAdjustTotalUpReopens(t *testing.T) {
	f := newDebtFixture(t)
	record := f.seedDebt(800, futureDate(), true)

	_, err := f.service.ApplyPayment(context.Background(), record.ID, 800, models.MethodCash, time.Now(), 1, "", "")
	assert.NoError(t, err)

	adjusted, err := f.service.AdjustTotal(context.Background(), record.ID, 900, 1, "", "")
	assert.NoError(t, err)
	assert.Equal(t, models.DebtStatusPartiallySettled, adjusted.Status)
	assert.Equal(t, 100.0, adjusted.CurrentDue())

	member, _ := f.memberRepo.FindByID(context.Background(), 1)
	assert.Equal(t, 100.0, member.Balance)
}

func TestAdjustTotalBelowCollectedRejected(t *testing.T) {
	f := newDebtFixture(t)
	record := f.seedDebt(800, futureDate(), true)

	_, err := f.service.ApplyPayment(context.Background(), record.ID, 500, models.MethodCash, time.Now(), 1, "", "")
	assert.NoError(t, err)

	_, err = f.service.AdjustTotal(context.Background(), record.ID, 400, 1, "", "")
	assert.ErrorIs(t, err, ErrInvalidAdjustment)
}

func TestAdjustTotalKeepsPenalty(t *testing.T) {
	f := newDebtFixture(t)
	record := f.seedDebt(800, futureDate(), true)
	record.Penalty = 50
	f.debtRepo.Update(context.Background(), record)

	// The adjustment lands on the principal; the accrued penalty stays
	adjusted, err := f.service.AdjustTotal(context.Background(), record.ID, 300, 1, "", "")
	assert.NoError(t, err)
	assert.Equal(t, 50.0, adjusted.Penalty)
	assert.Equal(t, 250.0, adjusted.OpenAmount)
	assert.Equal(t, 300.0, adjusted.CurrentDue())
}

func TestAdjustTotalOverdueKeepsNonzeroPenalty(t *testing.T) {
	f := newDebtFixture(t)
	record := f.seedDebt(800, futureDate(), true)
	record.Status = models.DebtStatusOverdue
	record.Penalty = 50
	f.debtRepo.Update(context.Background(), record)

	// Shrinking the total below the penalty shrinks the penalty with it,
	// so an overdue record never shows a zero penalty while it still owes
	adjusted, err := f.service.AdjustTotal(context.Background(), record.ID, 30, 1, "", "")
	assert.NoError(t, err)
	assert.Equal(t, models.DebtStatusOverdue, adjusted.Status)
	assert.Equal(t, 30.0, adjusted.Penalty)
	assert.Equal(t, 0.0, adjusted.OpenAmount)

	// Down to zero settles and clears the penalty outright
	adjusted, err = f.service.AdjustTotal(context.Background(), adjusted.ID, 0, 1, "", "")
	assert.NoError(t, err)
	assert.Equal(t, models.DebtStatusSettled, adjusted.Status)
	assert.Equal(t, 0.0, adjusted.Penalty)
}

func TestDeleteWritesOffCharges(t *testing.T) {
	f := newDebtFixture(t)
	record := f.seedDebt(800, futureDate(), true)

	err := f.service.Delete(context.Background(), record.ID, 1, "", "")
	assert.NoError(t, err)

	_, err = f.service.FindByID(context.Background(), record.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	member, _ := f.memberRepo.FindByID(context.Background(), 1)
	assert.Equal(t, 0.0, member.Balance)
}

func TestDeleteWithHistoryRejected(t *testing.T) {
	f := newDebtFixture(t)
	record := f.seedDebt(800, futureDate(), true)

	_, err := f.service.ApplyPayment(context.Background(), record.ID, 100, models.MethodCash, time.Now(), 1, "", "")
	assert.NoError(t, err)

	err = f.service.Delete(context.Background(), record.ID, 1, "", "")
	assert.ErrorIs(t, err, ErrStaleRecord)
}

func TestValidatePaymentAmount(t *testing.T) {
	record := &models.DebtRecord{OpenAmount: 100, Penalty: 20}

	assert.NoError(t, validatePaymentAmount(record, 120))
	assert.NoError(t, validatePaymentAmount(record, 120.005))
	assert.NoError(t, validatePaymentAmount(record, 0.5))
	assert.ErrorIs(t, validatePaymentAmount(record, 0), ErrInvalidAmount)
	assert.ErrorIs(t, validatePaymentAmount(record, -5), ErrInvalidAmount)
	assert.ErrorIs(t, validatePaymentAmount(record, 120.5), ErrInvalidAmount)
}
