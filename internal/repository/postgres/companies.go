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

// CompanyRepository implements port.CompanyRepository using PostgreSQL.
type CompanyRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewCompanyRepository wires a PostgreSQL-backed company repository.
func NewCompanyRepository(exec pgExecutor) *CompanyRepository {
	return &CompanyRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// List returns non-deleted companies ordered by english name.
func (r *CompanyRepository) List(ctx context.Context) ([]domain.Company, error) {
	stmt, args, err := r.builder.Select("id", "company_code", "english_name").
		From("companies").
		Where(squirrel.Eq{"delete_flag": false}).
		OrderBy("english_name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list companies sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query companies: %w", err)
	}
	defer rows.Close()

	companies := make([]domain.Company, 0)
	for rows.Next() {
		var company domain.Company
		if err := rows.Scan(&company.ID, &company.Code, &company.Name); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		companies = append(companies, company)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate companies: %w", err)
	}

	return companies, nil
}

// GetByID retrieves a non-deleted company by identifier.
func (r *CompanyRepository) GetByID(ctx context.Context, id int64) (*domain.Company, error) {
	stmt, args, err := r.builder.Select("id", "company_code", "english_name").
		From("companies").
		Where(squirrel.Eq{"id": id, "delete_flag": false}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select company sql: %w", err)
	}

	var company domain.Company
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&company.ID, &company.Code, &company.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan company: %w", err)
	}

	return &company, nil
}

var _ port.CompanyRepository = (*CompanyRepository)(nil)
