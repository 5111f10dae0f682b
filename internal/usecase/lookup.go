package usecase

import (
	"context"
	"fmt"

	"github.com/hongquyngo/authority-management-system/internal/core/domain"
	"github.com/hongquyngo/authority-management-system/internal/core/port"
)

// LookupService serves the reference lists backing the form pickers.
type LookupService struct {
	approvalTypes port.ApprovalTypeRepository
	companies     port.CompanyRepository
	employees     port.EmployeeRepository
}

// NewLookupService constructs a LookupService.
func NewLookupService(approvalTypes port.ApprovalTypeRepository, companies port.CompanyRepository, employees port.EmployeeRepository) *LookupService {
	return &LookupService{
		approvalTypes: approvalTypes,
		companies:     companies,
		employees:     employees,
	}
}

// ApprovalTypes returns active approval types ordered by name.
func (s *LookupService) ApprovalTypes(ctx context.Context) ([]domain.ApprovalType, error) {
	types, err := s.approvalTypes.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list approval types: %w", err)
	}
	return types, nil
}

// Companies returns companies ordered by english name.
func (s *LookupService) Companies(ctx context.Context) ([]domain.Company, error) {
	companies, err := s.companies.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return companies, nil
}

// Employees returns active employees ordered by name.
func (s *LookupService) Employees(ctx context.Context) ([]domain.Employee, error) {
	employees, err := s.employees.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return employees, nil
}
