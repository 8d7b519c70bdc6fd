package models

import (
	"math"
	"time"
)

// AmountEpsilon absorbs floating point rounding when comparing money values.
const AmountEpsilon = 0.01

// Round2 rounds a money value to 2 decimal places.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// DebtRecord is the user-facing view of one billable item: a charge plus its
// accumulated payment history, tracked through a lifecycle. Principal may be
// unknown for legacy records and is reconstructed on demand.
type DebtRecord struct {
	ID                      uint       `json:"id" gorm:"primaryKey"`
	OrganizationID          uint       `json:"organization_id" gorm:"not null;index"`
	MemberID                uint       `json:"member_id" gorm:"not null;index"`
	Category                string     `json:"category" gorm:"size:20;not null"`
	Description             string     `json:"description"`
	Principal               *float64   `json:"principal,omitempty" gorm:"type:decimal(10,2)"`
	OpenAmount              float64    `json:"open_amount" gorm:"type:decimal(10,2);not null"`
	Penalty                 float64    `json:"penalty" gorm:"type:decimal(10,2);default:0"`
	DueDate                 time.Time  `json:"due_date" gorm:"type:date;not null;index"`
	AllowsPartialSettlement bool       `json:"allows_partial_settlement" gorm:"default:true"`
	Status                  string     `json:"status" gorm:"size:20;not null;index;default:open"`
	PriorStatus             *string    `json:"-" gorm:"size:20"`
	PendingEntryID          *uint      `json:"-" gorm:"index"`
	CreatedAt               time.Time  `json:"created_at" gorm:"index"`
	UpdatedAt               time.Time  `json:"updated_at"`

	// Associations
	Payments []DebtPayment `json:"payments,omitempty" gorm:"foreignKey:DebtRecordID"`
}

// TableName specifies the table name for DebtRecord
func (DebtRecord) TableName() string {
	return "debt_records"
}

// DebtPayment is one item of a debt record's payment history. Append-only,
// kept in chronological order.
type DebtPayment struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	DebtRecordID uint      `json:"debt_record_id" gorm:"not null;index"`
	Amount       float64   `json:"amount" gorm:"type:decimal(10,2);not null"`
	Method       string    `json:"method" gorm:"size:20;not null"`
	PaidOn       time.Time `json:"paid_on" gorm:"type:date;not null"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName specifies the table name for DebtPayment
func (DebtPayment) TableName() string {
	return "debt_payments"
}

// Debt lifecycle status constants
const (
	DebtStatusOpen             = "open"
	DebtStatusPartiallySettled = "partially_settled"
	DebtStatusInReview         = "in_review"
	DebtStatusSettled          = "settled"
	DebtStatusOverdue          = "overdue"
)

// TotalPaid returns the sum of the payment history
func (d *DebtRecord) TotalPaid() float64 {
	total := 0.0
	for _, p := range d.Payments {
		total += p.Amount
	}
	return Round2(total)
}

// CurrentDue returns the live, not-yet-paid figure including penalty
func (d *DebtRecord) CurrentDue() float64 {
	return Round2(d.OpenAmount + d.Penalty)
}

// IsOwing returns true while the record still has an outstanding amount
func (d *DebtRecord) IsOwing() bool {
	return d.CurrentDue() > AmountEpsilon
}

// IsPastDue returns true if the due date has passed on the given day.
// Due dates are local calendar midnights, so the comparison point is the
// local midnight of today's calendar date, not a UTC day boundary.
func (d *DebtRecord) IsPastDue(today time.Time) bool {
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.Local)
	return d.DueDate.Before(day)
}

// MayApplyPayment returns true if a payment can be applied directly.
// Overdue behaves like open for all transition purposes.
func (d *DebtRecord) MayApplyPayment() bool {
	switch d.Status {
	case DebtStatusOpen, DebtStatusPartiallySettled, DebtStatusOverdue:
		return true
	}
	return false
}

// MaySubmit returns true if the record can go into review
func (d *DebtRecord) MaySubmit() bool {
	return d.MayApplyPayment()
}

// MayApprove returns true if a pending submission can be approved
func (d *DebtRecord) MayApprove() bool {
	return d.Status == DebtStatusInReview && d.PendingEntryID != nil
}

// MayReject returns true if a pending submission can be rejected
func (d *DebtRecord) MayReject() bool {
	return d.Status == DebtStatusInReview && d.PendingEntryID != nil
}

// MayAdjust returns true if a master can override the record total
func (d *DebtRecord) MayAdjust() bool {
	return d.Status != DebtStatusInReview
}

// MayDelete returns true only for records with no payment history.
// Records in review hold a pending ledger entry and cannot go away either.
func (d *DebtRecord) MayDelete() bool {
	return len(d.Payments) == 0 && d.Status != DebtStatusInReview
}

// AmountBreakdown is the reconstructed money view of a debt record
type AmountBreakdown struct {
	Principal  float64 `json:"principal"`
	Penalty    float64 `json:"penalty"`
	TotalPaid  float64 `json:"total_paid"`
	CurrentDue float64 `json:"current_due"`
	GrandTotal float64 `json:"grand_total"`
}

// ReconstructAmounts infers the original principal and accrued penalty of the
// record. GrandTotal is the full historical value of the obligation, whether
// or not the principal was ever recorded: everything paid so far plus
// everything still due. A recorded principal is reproduced exactly; a missing
// one degrades to treating the whole grand total as principal.
func (d *DebtRecord) ReconstructAmounts() AmountBreakdown {
	totalPaid := d.TotalPaid()
	currentDue := d.CurrentDue()
	grandTotal := Round2(totalPaid + currentDue)

	principal := grandTotal
	if d.Principal != nil {
		principal = *d.Principal
	}

	impliedPenalty := grandTotal - principal
	if impliedPenalty < AmountEpsilon {
		impliedPenalty = 0
	}

	return AmountBreakdown{
		Principal:  principal,
		Penalty:    Round2(impliedPenalty),
		TotalPaid:  totalPaid,
		CurrentDue: currentDue,
		GrandTotal: grandTotal,
	}
}

// DebtRecordResponse is the JSON response format for debt records
type DebtRecordResponse struct {
	ID                      uint            `json:"id"`
	OrganizationID          uint            `json:"organization_id"`
	MemberID                uint            `json:"member_id"`
	Category                string          `json:"category"`
	Description             string          `json:"description"`
	DueDate                 string          `json:"due_date"`
	AllowsPartialSettlement bool            `json:"allows_partial_settlement"`
	Status                  string          `json:"status"`
	Amounts                 AmountBreakdown `json:"amounts"`
	Payments                []DebtPayment   `json:"payments"`
	CreatedAt               time.Time       `json:"created_at"`
}

// ToResponse converts DebtRecord to DebtRecordResponse
func (d *DebtRecord) ToResponse() DebtRecordResponse {
	return DebtRecordResponse{
		ID:                      d.ID,
		OrganizationID:          d.OrganizationID,
		MemberID:                d.MemberID,
		Category:                d.Category,
		Description:             d.Description,
		DueDate:                 d.DueDate.Format(time.DateOnly),
		AllowsPartialSettlement: d.AllowsPartialSettlement,
		Status:                  d.Status,
		Amounts:                 d.ReconstructAmounts(),
		Payments:                d.Payments,
		CreatedAt:               d.CreatedAt,
	}
}
