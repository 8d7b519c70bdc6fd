package repository

import (
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	Ledger       LedgerRepository
	Debt         DebtRepository
	Member       MemberRepository
	Organization OrganizationRepository
	Automation   AutomationRepository
	Batch        BatchRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Ledger:       NewLedgerRepository(db),
		Debt:         NewDebtRepository(db),
		Member:       NewMemberRepository(db),
		Organization: NewOrganizationRepository(db),
		Automation:   NewAutomationRepository(db),
		Batch:        NewBatchRepository(db),
	}
}

// ListQuery holds common pagination and filter parameters
type ListQuery struct {
	Page    int
	PerPage int
	Search  string
	SortBy  string
	SortDir string
	Filters map[string]string
}

// NewListQuery creates a ListQuery with defaults
func NewListQuery() *ListQuery {
	return &ListQuery{
		Page:    1,
		PerPage: 20,
		Filters: make(map[string]string),
	}
}

func (q *ListQuery) offset() int {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 || q.PerPage > 200 {
		q.PerPage = 20
	}
	return (q.Page - 1) * q.PerPage
}
