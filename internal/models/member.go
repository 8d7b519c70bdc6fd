package models

import (
	"time"
)

// Member represents one person in the organization's roster. Balance and
// AccountStatus are derived snapshots: they are recomputed from the ledger
// after every mutation and never hand-edited, except the explicit Inactive
// flag and the attendance-driven exam flip.
type Member struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	OrganizationID  uint      `json:"organization_id" gorm:"not null;index"`
	FullName        string    `json:"full_name" gorm:"not null"`
	Rank            string    `json:"rank" gorm:"size:30;not null;default:white"`
	AttendanceCount int       `json:"attendance_count" gorm:"default:0"`
	Inactive        bool      `json:"inactive" gorm:"default:false;index"`
	Balance         float64   `json:"balance" gorm:"type:decimal(10,2);default:0"`
	AccountStatus   string    `json:"account_status" gorm:"size:20;not null;default:active;index"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for Member
func (Member) TableName() string {
	return "members"
}

// Account status constants
const (
	AccountStatusActive    = "active"
	AccountStatusDebtor    = "debtor"
	AccountStatusInactive  = "inactive"
	AccountStatusExamReady = "exam_ready"
)

// IsBillable returns true if the member should receive recurring charges
func (m *Member) IsBillable() bool {
	return !m.Inactive
}

// MemberResponse is the JSON response format for members
type MemberResponse struct {
	ID              uint    `json:"id"`
	OrganizationID  uint    `json:"organization_id"`
	FullName        string  `json:"full_name"`
	Rank            string  `json:"rank"`
	AttendanceCount int     `json:"attendance_count"`
	Balance         float64 `json:"balance"`
	AccountStatus   string  `json:"account_status"`
}

// ToResponse converts Member to MemberResponse
func (m *Member) ToResponse() MemberResponse {
	return MemberResponse{
		ID:              m.ID,
		OrganizationID:  m.OrganizationID,
		FullName:        m.FullName,
		Rank:            m.Rank,
		AttendanceCount: m.AttendanceCount,
		Balance:         m.Balance,
		AccountStatus:   m.AccountStatus,
	}
}
