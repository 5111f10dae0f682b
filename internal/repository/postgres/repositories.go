package postgres

import "github.com/jackc/pgx/v5/pgxpool"

// Repositories groups concrete PostgreSQL repository implementations.
type Repositories struct {
	Authorities   *AuthorityRepository
	ApprovalTypes *ApprovalTypeRepository
	Companies     *CompanyRepository
	Employees     *EmployeeRepository
	Users         *UserRepository
}

// NewRepositories wires all repositories backed by the provided pool.
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Authorities:   NewAuthorityRepository(pool),
		ApprovalTypes: NewApprovalTypeRepository(pool),
		Companies:     NewCompanyRepository(pool),
		Employees:     NewEmployeeRepository(pool),
		Users:         NewUserRepository(pool),
	}
}
