package models

import (
	"time"
)

// LedgerEntry represents a single charge or payment fact against a member's
// account. Entries are append-mostly: once a charge is open or a payment is
// approved the row is never deleted, corrections happen through offsetting
// entries. Only payments still pending review may be edited in place.
type LedgerEntry struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	OrganizationID uint       `json:"organization_id" gorm:"not null;index"`
	MemberID       uint       `json:"member_id" gorm:"not null;index"`
	DebtRecordID   *uint      `json:"debt_record_id,omitempty" gorm:"index"`
	BatchPaymentID *uint      `json:"batch_payment_id,omitempty" gorm:"index"`
	Kind           string     `json:"kind" gorm:"size:20;not null;index"`
	Status         string     `json:"status" gorm:"size:20;not null;index"`
	Category       string     `json:"category" gorm:"size:20;not null;index"`
	Amount         float64    `json:"amount" gorm:"type:decimal(10,2);not null"`
	Method         *string    `json:"method,omitempty" gorm:"size:20"`
	OccurredOn     time.Time  `json:"occurred_on" gorm:"type:date;not null;index"`
	Description    string     `json:"description" gorm:"not null"`
	CreatedAt      time.Time  `json:"created_at" gorm:"index"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName specifies the table name for LedgerEntry
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// Entry kind constants
const (
	EntryKindCharge  = "charge"
	EntryKindPayment = "payment"
)

// Settlement status constants. Charges are open or written off; payments move
// from pending review to approved or rejected.
const (
	ChargeStatusOpen       = "open"
	ChargeStatusWrittenOff = "written_off"

	PaymentEntryPendingReview = "pending_review"
	PaymentEntryApproved      = "approved"
	PaymentEntryRejected      = "rejected"
)

// Entry category constants
const (
	CategoryTuition    = "tuition"
	CategoryLateFee    = "late_fee"
	CategoryEquipment  = "equipment"
	CategoryExam       = "exam"
	CategoryAdjustment = "adjustment"
	CategoryOther      = "other"
)

// Payment method constants
const (
	MethodCash     = "cash"
	MethodTransfer = "transfer"
	MethodCard     = "card"
)

// IsOpenCharge returns true if the entry is a charge that counts toward debt
func (e *LedgerEntry) IsOpenCharge() bool {
	return e.Kind == EntryKindCharge && e.Status == ChargeStatusOpen
}

// IsApprovedPayment returns true if the entry is a payment that reduces debt
func (e *LedgerEntry) IsApprovedPayment() bool {
	return e.Kind == EntryKindPayment && e.Status == PaymentEntryApproved
}

// Mutable returns true if the entry may still be edited in place.
// Everything already seen by the balance derivation is locked.
func (e *LedgerEntry) Mutable() bool {
	return e.Kind == EntryKindPayment && e.Status == PaymentEntryPendingReview
}

// MayApprove returns true if the payment entry can be approved
func (e *LedgerEntry) MayApprove() bool {
	return e.Kind == EntryKindPayment && e.Status == PaymentEntryPendingReview
}

// MayReject returns true if the payment entry can be rejected
func (e *LedgerEntry) MayReject() bool {
	return e.Kind == EntryKindPayment && e.Status == PaymentEntryPendingReview
}

// ValidCategories returns the closed set of entry categories
func ValidCategories() map[string]bool {
	return map[string]bool{
		CategoryTuition:    true,
		CategoryLateFee:    true,
		CategoryEquipment:  true,
		CategoryExam:       true,
		CategoryAdjustment: true,
		CategoryOther:      true,
	}
}

// LedgerEntryResponse is the JSON response format for ledger entries
type LedgerEntryResponse struct {
	ID             uint      `json:"id"`
	OrganizationID uint      `json:"organization_id"`
	MemberID       uint      `json:"member_id"`
	DebtRecordID   *uint     `json:"debt_record_id,omitempty"`
	BatchPaymentID *uint     `json:"batch_payment_id,omitempty"`
	Kind           string    `json:"kind"`
	Status         string    `json:"status"`
	Category       string    `json:"category"`
	Amount         float64   `json:"amount"`
	Method         *string   `json:"method,omitempty"`
	OccurredOn     string    `json:"occurred_on"`
	Description    string    `json:"description"`
	CreatedAt      time.Time `json:"created_at"`
}

// ToResponse converts LedgerEntry to LedgerEntryResponse
func (e *LedgerEntry) ToResponse() LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:             e.ID,
		OrganizationID: e.OrganizationID,
		MemberID:       e.MemberID,
		DebtRecordID:   e.DebtRecordID,
		BatchPaymentID: e.BatchPaymentID,
		Kind:           e.Kind,
		Status:         e.Status,
		Category:       e.Category,
		Amount:         e.Amount,
		Method:         e.Method,
		OccurredOn:     e.OccurredOn.Format(time.DateOnly),
		Description:    e.Description,
		CreatedAt:      e.CreatedAt,
	}
}
