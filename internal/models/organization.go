package models

import (
	"time"
)

// Organization represents one academy using the system
type Organization struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Settings OrganizationSettings `json:"settings,omitempty" gorm:"foreignKey:OrganizationID"`
}

// TableName specifies the table name for Organization
func (Organization) TableName() string {
	return "organizations"
}

// OrganizationSettings holds the billing configuration for one organization.
// LateFeeDay must fall strictly after BillingDay in the same cycle; the
// settings service rejects writes that violate that order.
type OrganizationSettings struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	OrganizationID  uint      `json:"organization_id" gorm:"not null;uniqueIndex"`
	BillingDay      int       `json:"billing_day" gorm:"not null;default:1"`
	LateFeeDay      int       `json:"late_fee_day" gorm:"not null;default:15"`
	MonthlyTuition  float64   `json:"monthly_tuition" gorm:"type:decimal(10,2);not null"`
	LateFeeAmount   float64   `json:"late_fee_amount" gorm:"type:decimal(10,2);not null"`
	AutoApproveCash bool      `json:"auto_approve_cash" gorm:"default:false"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for OrganizationSettings
func (OrganizationSettings) TableName() string {
	return "organization_settings"
}

// RankRequirement is the attendance threshold a member of the given rank must
// reach before being flagged exam ready.
type RankRequirement struct {
	ID                  uint      `json:"id" gorm:"primaryKey"`
	OrganizationID      uint      `json:"organization_id" gorm:"not null;index:idx_rank_req_org_rank,unique"`
	Rank                string    `json:"rank" gorm:"size:30;not null;index:idx_rank_req_org_rank,unique"`
	AttendanceThreshold int       `json:"attendance_threshold" gorm:"not null"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// TableName specifies the table name for RankRequirement
func (RankRequirement) TableName() string {
	return "rank_requirements"
}
