package port

import (
	"context"

	"github.com/hongquyngo/authority-management-system/internal/core/domain"
)

// ApprovalTypeRepository reads the approval type catalogue. Lookups see only
// active, non-deleted types.
type ApprovalTypeRepository interface {
	ListActive(ctx context.Context) ([]domain.ApprovalType, error)
	GetByID(ctx context.Context, id int64) (*domain.ApprovalType, error)
}

// CompanyRepository reads the company catalogue.
type CompanyRepository interface {
	List(ctx context.Context) ([]domain.Company, error)
	GetByID(ctx context.Context, id int64) (*domain.Company, error)
}

// EmployeeRepository reads employees. Lookups see only active, non-deleted
// employees; ListAvailable additionally excludes employees already linked to
// a user account.
type EmployeeRepository interface {
	ListActive(ctx context.Context) ([]domain.Employee, error)
	GetByID(ctx context.Context, id int64) (*domain.Employee, error)
	ListAvailable(ctx context.Context) ([]domain.Employee, error)
}
