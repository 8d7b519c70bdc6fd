package statemachine

import (
	"context"
	"fmt"

	"github.com/dojoflow/tuition-api/internal/models"
	"github.com/looplab/fsm"
)

// DebtFSM wraps a debt record with its lifecycle state machine.
// Overdue behaves like open for every transition; it only adds a penalty.
type DebtFSM struct {
	record *models.DebtRecord
	fsm    *fsm.FSM
}

// NewDebtFSM creates a new debt record state machine
func NewDebtFSM(record *models.DebtRecord) *DebtFSM {
	d := &DebtFSM{
		record: record,
	}

	payable := []string{models.DebtStatusOpen, models.DebtStatusPartiallySettled, models.DebtStatusOverdue}

	d.fsm = fsm.NewFSM(
		record.Status,
		fsm.Events{
			// open/partially_settled/overdue → in_review
			{Name: "submit", Src: payable, Dst: models.DebtStatusInReview},

			// any payable state or an approved review → settled
			{Name: "settle", Src: append([]string{models.DebtStatusInReview}, payable...), Dst: models.DebtStatusSettled},

			// partial payment applied, directly or via approval
			{Name: "pay_partial", Src: append([]string{models.DebtStatusInReview}, payable...), Dst: models.DebtStatusPartiallySettled},

			// rejection reverts to the exact pre-submission state
			{Name: "reject_open", Src: []string{models.DebtStatusInReview}, Dst: models.DebtStatusOpen},
			{Name: "reject_partial", Src: []string{models.DebtStatusInReview}, Dst: models.DebtStatusPartiallySettled},
			{Name: "reject_overdue", Src: []string{models.DebtStatusInReview}, Dst: models.DebtStatusOverdue},

			// time-based, no approval needed
			{Name: "mark_overdue", Src: []string{models.DebtStatusOpen}, Dst: models.DebtStatusOverdue},

			// an upward adjustment can owe money again
			{Name: "reopen", Src: []string{models.DebtStatusSettled, models.DebtStatusPartiallySettled}, Dst: models.DebtStatusOpen},
		},
		fsm.Callbacks{},
	)

	return d
}

// Submit transitions the record into review
func (d *DebtFSM) Submit(ctx context.Context) error {
	if !d.record.MaySubmit() {
		return fmt.Errorf("debt record cannot be submitted in current state: %s", d.record.Status)
	}

	if err := d.fsm.Event(ctx, "submit"); err != nil {
		return fmt.Errorf("failed to submit debt record: %w", err)
	}

	d.record.Status = d.fsm.Current()
	return nil
}

// Settle transitions the record to settled
func (d *DebtFSM) Settle(ctx context.Context) error {
	if err := d.fsm.Event(ctx, "settle"); err != nil {
		return fmt.Errorf("failed to settle debt record: %w", err)
	}

	d.record.Status = d.fsm.Current()
	return nil
}

// PayPartial transitions the record to partially settled
func (d *DebtFSM) PayPartial(ctx context.Context) error {
	if err := d.fsm.Event(ctx, "pay_partial"); err != nil {
		return fmt.Errorf("failed to record partial payment: %w", err)
	}

	d.record.Status = d.fsm.Current()
	return nil
}

// Reject reverts an in-review record to its pre-submission state
func (d *DebtFSM) Reject(ctx context.Context) error {
	if !d.record.MayReject() {
		return fmt.Errorf("debt record cannot be rejected in current state: %s", d.record.Status)
	}

	event := "reject_open"
	if d.record.PriorStatus != nil {
		switch *d.record.PriorStatus {
		case models.DebtStatusPartiallySettled:
			event = "reject_partial"
		case models.DebtStatusOverdue:
			event = "reject_overdue"
		}
	}

	if err := d.fsm.Event(ctx, event); err != nil {
		return fmt.Errorf("failed to reject debt record: %w", err)
	}

	d.record.Status = d.fsm.Current()
	return nil
}

// MarkOverdue transitions an open record past its due date to overdue
func (d *DebtFSM) MarkOverdue(ctx context.Context) error {
	if err := d.fsm.Event(ctx, "mark_overdue"); err != nil {
		return fmt.Errorf("failed to mark debt record overdue: %w", err)
	}

	d.record.Status = d.fsm.Current()
	return nil
}

// Reopen transitions a settled record back to open after an upward adjustment
func (d *DebtFSM) Reopen(ctx context.Context) error {
	if err := d.fsm.Event(ctx, "reopen"); err != nil {
		return fmt.Errorf("failed to reopen debt record: %w", err)
	}

	d.record.Status = d.fsm.Current()
	return nil
}

// Current returns the current state
func (d *DebtFSM) Current() string {
	return d.fsm.Current()
}

// Can checks if a transition is possible
func (d *DebtFSM) Can(event string) bool {
	return d.fsm.Can(event)
}
