package models

import (
	"time"
)

// BatchPayment is one multi-debt payment submission. A single aggregate
// payment ledger entry and a single proof attachment (or the cash
// placeholder) belong to the whole batch; the planned per-record amounts are
// kept as allocations and fanned out to the debt records only on approval.
type BatchPayment struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	OrganizationID uint      `json:"organization_id" gorm:"not null;index"`
	MemberID       uint      `json:"member_id" gorm:"not null;index"`
	Reference      string    `json:"reference" gorm:"size:36;uniqueIndex;not null"`
	Amount         float64   `json:"amount" gorm:"type:decimal(10,2);not null"`
	Method         string    `json:"method" gorm:"size:20;not null"`
	Status         string    `json:"status" gorm:"size:20;not null;default:pending_review;index"`
	ProofPath      *string   `json:"-"`
	ProofMimeType  *string   `json:"proof_mime_type,omitempty" gorm:"size:100"`
	LedgerEntryID  *uint     `json:"ledger_entry_id,omitempty" gorm:"index"`
	SubmittedBy    uint      `json:"submitted_by"`
	CreatedAt      time.Time `json:"created_at" gorm:"index"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Associations
	Allocations []BatchAllocation `json:"allocations,omitempty" gorm:"foreignKey:BatchPaymentID"`
}

// TableName specifies the table name for BatchPayment
func (BatchPayment) TableName() string {
	return "batch_payments"
}

// Batch status constants
const (
	BatchStatusPendingReview = "pending_review"
	BatchStatusApproved      = "approved"
	BatchStatusRejected      = "rejected"
)

// MayApprove returns true if the batch can be approved
func (b *BatchPayment) MayApprove() bool {
	return b.Status == BatchStatusPendingReview
}

// MayReject returns true if the batch can be rejected
func (b *BatchPayment) MayReject() bool {
	return b.Status == BatchStatusPendingReview
}

// HasProof returns true when a proof-of-payment file is attached
func (b *BatchPayment) HasProof() bool {
	return b.ProofPath != nil && *b.ProofPath != ""
}

// BatchAllocation is the planned amount of a batch payment going to one debt
// record, decided at submission time and applied at approval time.
type BatchAllocation struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	BatchPaymentID uint      `json:"batch_payment_id" gorm:"not null;index"`
	DebtRecordID   uint      `json:"debt_record_id" gorm:"not null;index"`
	Amount         float64   `json:"amount" gorm:"type:decimal(10,2);not null"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName specifies the table name for BatchAllocation
func (BatchAllocation) TableName() string {
	return "batch_allocations"
}
