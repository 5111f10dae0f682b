package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/hongquyngo/authority-management-system/internal/core/domain"
	"github.com/hongquyngo/authority-management-system/internal/core/port"
	"github.com/hongquyngo/authority-management-system/internal/repository"
)

// ApprovalTypeRepository implements port.ApprovalTypeRepository using PostgreSQL.
type ApprovalTypeRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewApprovalTypeRepository wires a PostgreSQL-backed approval type repository.
func NewApprovalTypeRepository(exec pgExecutor) *ApprovalTypeRepository {
	return &ApprovalTypeRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *ApprovalTypeRepository) selectTypes() squirrel.SelectBuilder {
	return r.builder.Select("id", "code", "name", "description", "is_active").
		From("approval_types").
		Where(squirrel.Eq{"delete_flag": false, "is_active": true})
}

// ListActive returns active approval types ordered by name.
func (r *ApprovalTypeRepository) ListActive(ctx context.Context) ([]domain.ApprovalType, error) {
	stmt, args, err := r.selectTypes().OrderBy("name").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list approval types sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query approval types: %w", err)
	}
	defer rows.Close()

	types := make([]domain.ApprovalType, 0)
	for rows.Next() {
		approvalType, err := scanApprovalType(rows)
		if err != nil {
			return nil, fmt.Errorf("scan approval type: %w", err)
		}
		types = append(types, *approvalType)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate approval types: %w", err)
	}

	return types, nil
}

// GetByID retrieves an active approval type by identifier.
func (r *ApprovalTypeRepository) GetByID(ctx context.Context, id int64) (*domain.ApprovalType, error) {
	stmt, args, err := r.selectTypes().Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select approval type sql: %w", err)
	}

	approvalType, err := scanApprovalType(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan approval type: %w", err)
	}

	return approvalType, nil
}

func scanApprovalType(row pgx.Row) (*domain.ApprovalType, error) {
	var (
		approvalType domain.ApprovalType
		description  sql.NullString
	)

	if err := row.Scan(
		&approvalType.ID,
		&approvalType.Code,
		&approvalType.Name,
		&description,
		&approvalType.IsActive,
	); err != nil {
		return nil, err
	}

	if description.Valid {
		val := description.String
		approvalType.Description = &val
	}

	return &approvalType, nil
}

var _ port.ApprovalTypeRepository = (*ApprovalTypeRepository)(nil)
