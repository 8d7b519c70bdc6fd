package models

import (
	"time"
)

// BillingAutomationState is the per-organization marker row the billing
// scheduler checks before, and advances after, each daily job. Dates are
// local-calendar YYYY-MM-DD strings, never UTC-shifted. Nothing else reads
// this row.
type BillingAutomationState struct {
	ID                    uint      `json:"id" gorm:"primaryKey"`
	OrganizationID        uint      `json:"organization_id" gorm:"not null;uniqueIndex"`
	LastMonthlyBillingRun string    `json:"last_monthly_billing_run" gorm:"size:10"`
	LastLateFeeRun        string    `json:"last_late_fee_run" gorm:"size:10"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// TableName specifies the table name for BillingAutomationState
func (BillingAutomationState) TableName() string {
	return "billing_automation_states"
}
