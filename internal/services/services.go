package services

import (
	"github.com/dojoflow/tuition-api/internal/jobs"
	"github.com/dojoflow/tuition-api/internal/repository"
	"github.com/dojoflow/tuition-api/internal/storage"
	"gorm.io/gorm"
)

// Services holds all service instances
type Services struct {
	Account      *AccountService
	Debt         *DebtService
	Batch        *BatchService
	Billing      *BillingService
	Member       *MemberService
	Organization *OrganizationService
	Ledger       *LedgerService
	Export       *ExportService
	Audit        *AuditService
	Job          *JobService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, worker *jobs.Worker, storage *storage.LocalStorage, db *gorm.DB) *Services {
	auditSvc := NewAuditService(db)
	accountSvc := NewAccountService(repos.Ledger, repos.Member, repos.Organization, auditSvc)

	return &Services{
		Account:      accountSvc,
		Debt:         NewDebtService(repos.Debt, repos.Ledger, accountSvc, auditSvc),
		Batch:        NewBatchService(repos.Batch, repos.Debt, repos.Ledger, repos.Organization, accountSvc, auditSvc, storage),
		Billing:      NewBillingService(repos.Organization, repos.Member, repos.Debt, repos.Ledger, repos.Automation, accountSvc, auditSvc),
		Member:       NewMemberService(repos.Member, repos.Organization, accountSvc, auditSvc),
		Organization: NewOrganizationService(repos.Organization, auditSvc),
		Ledger:       NewLedgerService(repos.Ledger, repos.Member),
		Export:       NewExportService(repos.Ledger),
		Audit:        auditSvc,
		Job:          NewJobService(worker),
	}
}
