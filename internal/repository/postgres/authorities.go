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

// statusCaseSQL derives the presentation status inside the query. The
// branches mirror domain.ClassifyStatus and must stay in lockstep with it.
const statusCaseSQL = `CASE
	WHEN a.is_active = FALSE THEN 'Inactive'
	WHEN a.valid_to IS NOT NULL AND a.valid_to < CURRENT_DATE THEN 'Expired'
	WHEN a.valid_to IS NOT NULL AND a.valid_to <= CURRENT_DATE + 30 THEN 'Expiring Soon'
	ELSE 'Active'
END`

// AuthorityRepository implements port.AuthorityRepository using PostgreSQL.
type AuthorityRepository struct {
	db      pgDatabase
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewAuthorityRepository wires a PostgreSQL-backed authority repository.
func NewAuthorityRepository(db pgDatabase) *AuthorityRepository {
	return &AuthorityRepository{
		db:      db,
		exec:    db,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *AuthorityRepository) WithTx(tx pgx.Tx) *AuthorityRepository {
	if tx == nil {
		return r
	}
	return &AuthorityRepository{
		db:      r.db,
		exec:    tx,
		builder: r.builder,
	}
}

// Create inserts a new authority row. The duplicate re-check and the insert
// run inside one serializable transaction so a concurrent insert of the same
// combination cannot slip between them; a clash returns repository.ErrDuplicate.
func (r *AuthorityRepository) Create(ctx context.Context, authority domain.Authority) (int64, error) {
	var id int64
	err := pgx.BeginTxFunc(ctx, r.db, pgx.TxOptions{IsoLevel: pgx.Serializable}, func(tx pgx.Tx) error {
		exists, err := r.existsActiveDuplicate(ctx, tx, authority.EmployeeID, authority.ApprovalTypeID, authority.CompanyID, nil)
		if err != nil {
			return err
		}
		if exists {
			return repository.ErrDuplicate
		}

		stmt, args, err := r.builder.Insert("approval_authorities").
			Columns(
				"employee_id",
				"approval_type_id",
				"company_id",
				"is_active",
				"valid_from",
				"valid_to",
				"max_amount",
				"notes",
				"created_by",
				"created_date",
			).
			Values(
				authority.EmployeeID,
				authority.ApprovalTypeID,
				authority.CompanyID,
				authority.IsActive,
				authority.ValidFrom,
				authority.ValidTo,
				authority.MaxAmount,
				authority.Notes,
				authority.CreatedBy,
				authority.CreatedAt,
			).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return fmt.Errorf("build insert authority sql: %w", err)
		}

		if err := tx.QueryRow(ctx, stmt, args...).Scan(&id); err != nil {
			return fmt.Errorf("insert authority: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Update modifies an existing authority's fields. Like Create, it re-checks
// for an active duplicate (excluding the row itself) inside a serializable
// transaction before writing.
func (r *AuthorityRepository) Update(ctx context.Context, authority domain.Authority) error {
	return pgx.BeginTxFunc(ctx, r.db, pgx.TxOptions{IsoLevel: pgx.Serializable}, func(tx pgx.Tx) error {
		exists, err := r.existsActiveDuplicate(ctx, tx, authority.EmployeeID, authority.ApprovalTypeID, authority.CompanyID, &authority.ID)
		if err != nil {
			return err
		}
		if exists {
			return repository.ErrDuplicate
		}

		stmt, args, err := r.builder.Update("approval_authorities").
			Set("employee_id", authority.EmployeeID).
			Set("approval_type_id", authority.ApprovalTypeID).
			Set("company_id", authority.CompanyID).
			Set("valid_from", authority.ValidFrom).
			Set("valid_to", authority.ValidTo).
			Set("max_amount", authority.MaxAmount).
			Set("notes", authority.Notes).
			Set("modified_by", authority.ModifiedBy).
			Set("modified_date", authority.ModifiedAt).
			Where(squirrel.Eq{"id": authority.ID, "delete_flag": false}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build update authority sql: %w", err)
		}

		ct, err := tx.Exec(ctx, stmt, args...)
		if err != nil {
			return fmt.Errorf("update authority: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
}

func (r *AuthorityRepository) detailQuery() squirrel.SelectBuilder {
	return r.builder.Select(
		"a.id",
		"a.employee_id",
		"a.approval_type_id",
		"a.company_id",
		"a.is_active",
		"a.valid_from",
		"a.valid_to",
		"a.max_amount",
		"a.notes",
		"a.created_by",
		"a.created_date",
		"a.modified_by",
		"a.modified_date",
		"e.first_name || ' ' || e.last_name AS employee_name",
		"e.email AS employee_email",
		"t.code AS approval_type_code",
		"t.name AS approval_type_name",
		"c.english_name AS company_name",
		statusCaseSQL+" AS status",
	).
		From("approval_authorities a").
		Join("employees e ON e.id = a.employee_id").
		Join("approval_types t ON t.id = a.approval_type_id").
		LeftJoin("companies c ON c.id = a.company_id").
		Where(squirrel.Eq{"a.delete_flag": false})
}

func scanAuthorityDetail(row pgx.Row) (*domain.AuthorityDetail, error) {
	var (
		detail      domain.AuthorityDetail
		notes       sql.NullString
		modifiedBy  sql.NullString
		companyName sql.NullString
	)

	if err := row.Scan(
		&detail.ID,
		&detail.EmployeeID,
		&detail.ApprovalTypeID,
		&detail.CompanyID,
		&detail.IsActive,
		&detail.ValidFrom,
		&detail.ValidTo,
		&detail.MaxAmount,
		&notes,
		&detail.CreatedBy,
		&detail.CreatedAt,
		&modifiedBy,
		&detail.ModifiedAt,
		&detail.EmployeeName,
		&detail.EmployeeEmail,
		&detail.ApprovalTypeCode,
		&detail.ApprovalTypeName,
		&companyName,
		&detail.Status,
	); err != nil {
		return nil, err
	}

	if notes.Valid {
		val := notes.String
		detail.Notes = &val
	}
	if modifiedBy.Valid {
		val := modifiedBy.String
		detail.ModifiedBy = &val
	}
	if companyName.Valid {
		val := companyName.String
		detail.CompanyName = &val
	}

	return &detail, nil
}

// GetByID retrieves an authority with its joined names and derived status.
func (r *AuthorityRepository) GetByID(ctx context.Context, id int64) (*domain.AuthorityDetail, error) {
	stmt, args, err := r.detailQuery().
		Where(squirrel.Eq{"a.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select authority sql: %w", err)
	}

	detail, err := scanAuthorityDetail(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan authority: %w", err)
	}

	return detail, nil
}

// List returns one page of authorities matching the filter. Conditions are
// AND-combined; a company filter also admits global (NULL company) grants.
// One extra row beyond the limit is fetched to derive HasNext.
func (r *AuthorityRepository) List(ctx context.Context, filter port.AuthorityFilter) (*port.AuthorityPage, error) {
	query := r.detailQuery().
		OrderBy("e.first_name", "e.last_name", "t.name", "a.id")

	if filter.EmployeeID != nil {
		query = query.Where(squirrel.Eq{"a.employee_id": *filter.EmployeeID})
	}
	if filter.ApprovalTypeID != nil {
		query = query.Where(squirrel.Eq{"a.approval_type_id": *filter.ApprovalTypeID})
	}
	if filter.CompanyID != nil {
		query = query.Where(squirrel.Or{
			squirrel.Eq{"a.company_id": *filter.CompanyID},
			squirrel.Eq{"a.company_id": nil},
		})
	}
	if filter.Status != nil {
		query = query.Where(statusCondition(*filter.Status))
	}

	limit := filter.Limit
	if limit > 0 {
		query = query.Limit(uint64(limit + 1))
		if filter.Page > 0 {
			query = query.Offset(uint64(filter.Page * limit))
		}
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list authorities sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query authorities: %w", err)
	}
	defer rows.Close()

	items := make([]domain.AuthorityDetail, 0)
	for rows.Next() {
		detail, err := scanAuthorityDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("scan authority: %w", err)
		}
		items = append(items, *detail)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate authorities: %w", err)
	}

	page := &port.AuthorityPage{Items: items}
	if limit > 0 && len(items) > limit {
		page.Items = items[:limit]
		page.HasNext = true
	}

	return page, nil
}

// statusCondition restates a presentation status as the flag and range
// conditions the classifier implies, so filtering and classification agree.
func statusCondition(status domain.AuthorityStatus) squirrel.Sqlizer {
	switch status {
	case domain.AuthorityStatusInactive:
		return squirrel.Eq{"a.is_active": false}
	case domain.AuthorityStatusExpired:
		return squirrel.And{
			squirrel.Eq{"a.is_active": true},
			squirrel.Expr("a.valid_to < CURRENT_DATE"),
		}
	case domain.AuthorityStatusExpiringSoon:
		return squirrel.And{
			squirrel.Eq{"a.is_active": true},
			squirrel.Expr("a.valid_to BETWEEN CURRENT_DATE AND CURRENT_DATE + 30"),
		}
	default:
		return squirrel.And{
			squirrel.Eq{"a.is_active": true},
			squirrel.Or{
				squirrel.Eq{"a.valid_to": nil},
				squirrel.Expr("a.valid_to >= CURRENT_DATE"),
			},
		}
	}
}

// SetActive flips the active flag of a non-deleted authority.
func (r *AuthorityRepository) SetActive(ctx context.Context, id int64, active bool, modifiedBy string) error {
	stmt, args, err := r.builder.Update("approval_authorities").
		Set("is_active", active).
		Set("modified_by", modifiedBy).
		Set("modified_date", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "delete_flag": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set authority active sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("set authority active: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// SoftDelete marks an authority deleted and inactive in one update.
func (r *AuthorityRepository) SoftDelete(ctx context.Context, id int64, deletedBy string) error {
	stmt, args, err := r.builder.Update("approval_authorities").
		Set("delete_flag", true).
		Set("is_active", false).
		Set("modified_by", deletedBy).
		Set("modified_date", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "delete_flag": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build soft delete authority sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("soft delete authority: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ExistsActiveDuplicate reports whether a non-deleted, active, non-expired
// authority already covers the same employee, approval type and company
// scope. A global (NULL) company only matches another global grant.
func (r *AuthorityRepository) ExistsActiveDuplicate(ctx context.Context, employeeID, approvalTypeID int64, companyID, excludeID *int64) (bool, error) {
	return r.existsActiveDuplicate(ctx, r.exec, employeeID, approvalTypeID, companyID, excludeID)
}

func (r *AuthorityRepository) existsActiveDuplicate(ctx context.Context, exec pgExecutor, employeeID, approvalTypeID int64, companyID, excludeID *int64) (bool, error) {
	query := r.builder.Select("1").
		From("approval_authorities").
		Where(squirrel.Eq{
			"employee_id":      employeeID,
			"approval_type_id": approvalTypeID,
			"delete_flag":      false,
			"is_active":        true,
		}).
		Where(squirrel.Or{
			squirrel.Eq{"valid_to": nil},
			squirrel.Expr("valid_to >= CURRENT_DATE"),
		})

	if companyID != nil {
		query = query.Where(squirrel.Eq{"company_id": *companyID})
	} else {
		query = query.Where(squirrel.Eq{"company_id": nil})
	}
	if excludeID != nil {
		query = query.Where(squirrel.NotEq{"id": *excludeID})
	}

	stmt, args, err := query.Limit(1).ToSql()
	if err != nil {
		return false, fmt.Errorf("build duplicate check sql: %w", err)
	}

	var one int
	if err := exec.QueryRow(ctx, stmt, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("scan duplicate check: %w", err)
	}

	return true, nil
}

// Summary aggregates the dashboard headline numbers in one query.
func (r *AuthorityRepository) Summary(ctx context.Context) (*domain.DashboardSummary, error) {
	stmt, args, err := r.builder.Select(
		"COUNT(DISTINCT employee_id) FILTER (WHERE is_active AND (valid_to IS NULL OR valid_to >= CURRENT_DATE)) AS active_approvers",
		"COUNT(*) FILTER (WHERE is_active AND valid_to BETWEEN CURRENT_DATE AND CURRENT_DATE + 30) AS expiring_soon",
		"COUNT(*) AS total",
		"COUNT(*) FILTER (WHERE is_active AND (valid_to IS NULL OR valid_to >= CURRENT_DATE)) AS active",
	).
		From("approval_authorities").
		Where(squirrel.Eq{"delete_flag": false}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build summary sql: %w", err)
	}

	var summary domain.DashboardSummary
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&summary.ActiveApprovers,
		&summary.ExpiringSoon,
		&summary.TotalAuthorities,
		&summary.ActiveAuthorities,
	); err != nil {
		return nil, fmt.Errorf("scan summary: %w", err)
	}

	return &summary, nil
}

var _ port.AuthorityRepository = (*AuthorityRepository)(nil)
