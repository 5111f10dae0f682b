package postgres

import (
	"context"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/hongquyngo/authority-management-system/internal/core/domain"
	"github.com/hongquyngo/authority-management-system/internal/core/port"
	"github.com/hongquyngo/authority-management-system/internal/repository"
)

// EmployeeRepository implements port.EmployeeRepository using PostgreSQL.
type EmployeeRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewEmployeeRepository wires a PostgreSQL-backed employee repository.
func NewEmployeeRepository(exec pgExecutor) *EmployeeRepository {
	return &EmployeeRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *EmployeeRepository) selectEmployees() squirrel.SelectBuilder {
	return r.builder.Select("id", "first_name", "last_name", "email", "status").
		From("employees").
		Where(squirrel.Eq{"delete_flag": false, "status": domain.EmployeeStatusActive})
}

func (r *EmployeeRepository) queryEmployees(ctx context.Context, query squirrel.SelectBuilder, label string) ([]domain.Employee, error) {
	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s sql: %w", label, err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", label, err)
	}
	defer rows.Close()

	employees := make([]domain.Employee, 0)
	for rows.Next() {
		var employee domain.Employee
		if err := rows.Scan(
			&employee.ID,
			&employee.FirstName,
			&employee.LastName,
			&employee.Email,
			&employee.Status,
		); err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		employees = append(employees, employee)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", label, err)
	}

	return employees, nil
}

// ListActive returns active employees ordered by first then last name.
func (r *EmployeeRepository) ListActive(ctx context.Context) ([]domain.Employee, error) {
	return r.queryEmployees(ctx, r.selectEmployees().OrderBy("first_name", "last_name"), "list employees")
}

// ListAvailable returns active employees not yet linked to a user account.
func (r *EmployeeRepository) ListAvailable(ctx context.Context) ([]domain.Employee, error) {
	query := r.selectEmployees().
		Where("id NOT IN (SELECT employee_id FROM users WHERE employee_id IS NOT NULL AND delete_flag = FALSE)").
		OrderBy("first_name", "last_name")
	return r.queryEmployees(ctx, query, "list available employees")
}

// GetByID retrieves an active employee by identifier.
func (r *EmployeeRepository) GetByID(ctx context.Context, id int64) (*domain.Employee, error) {
	stmt, args, err := r.selectEmployees().Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select employee sql: %w", err)
	}

	var employee domain.Employee
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&employee.ID,
		&employee.FirstName,
		&employee.LastName,
		&employee.Email,
		&employee.Status,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan employee: %w", err)
	}

	return &employee, nil
}

var _ port.EmployeeRepository = (*EmployeeRepository)(nil)
