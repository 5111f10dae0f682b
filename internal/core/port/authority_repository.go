package port

import (
	"context"

	"github.com/hongquyngo/authority-management-system/internal/core/domain"
)

// AuthorityFilter narrows authority listings. Nil fields are skipped; the
// remaining conditions are AND-combined.
type AuthorityFilter struct {
	EmployeeID     *int64
	ApprovalTypeID *int64
	CompanyID      *int64
	Status         *domain.AuthorityStatus
	Page           int
	Limit          int
}

// AuthorityPage is one page of listing results. HasNext is derived by
// fetching one row beyond the requested limit.
type AuthorityPage struct {
	Items   []domain.AuthorityDetail
	HasNext bool
}

// AuthorityRepository exposes persistence behavior for approval authorities.
// Create and Update run inside a serializable transaction that re-checks for
// an active duplicate before writing, closing the gap between a validation
// pass and the insert.
type AuthorityRepository interface {
	Create(ctx context.Context, authority domain.Authority) (int64, error)
	Update(ctx context.Context, authority domain.Authority) error
	GetByID(ctx context.Context, id int64) (*domain.AuthorityDetail, error)
	List(ctx context.Context, filter AuthorityFilter) (*AuthorityPage, error)
	SetActive(ctx context.Context, id int64, active bool, modifiedBy string) error
	SoftDelete(ctx context.Context, id int64, deletedBy string) error
	ExistsActiveDuplicate(ctx context.Context, employeeID, approvalTypeID int64, companyID, excludeID *int64) (bool, error)
	Summary(ctx context.Context) (*domain.DashboardSummary, error)
}
