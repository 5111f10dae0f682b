package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/hongquyngo/authority-management-system/internal/core/domain"
	"github.com/hongquyngo/authority-management-system/internal/core/port"
	"github.com/hongquyngo/authority-management-system/internal/repository"
)

// UserRepository implements port.UserRepository using PostgreSQL.
type UserRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewUserRepository wires a PostgreSQL-backed user repository.
func NewUserRepository(exec pgExecutor) *UserRepository {
	return &UserRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *UserRepository) WithTx(tx pgx.Tx) *UserRepository {
	if tx == nil {
		return r
	}
	return &UserRepository{
		exec:    tx,
		builder: r.builder,
	}
}

const userColumns = "id, username, email, password_hash, role, employee_id, is_active, last_login, created_date, created_by, modified_date"

// Create inserts a new user row and returns its identifier.
func (r *UserRepository) Create(ctx context.Context, user domain.User) (int64, error) {
	stmt, args, err := r.builder.Insert("users").
		Columns(
			"username",
			"email",
			"password_hash",
			"role",
			"employee_id",
			"is_active",
			"created_date",
			"created_by",
		).
		Values(
			user.Username,
			user.Email,
			user.PasswordHash,
			user.Role,
			user.EmployeeID,
			user.IsActive,
			user.CreatedAt,
			user.CreatedBy,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert user sql: %w", err)
	}

	var id int64
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}

	return id, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user      domain.User
		email     sql.NullString
		createdBy sql.NullString
	)

	if err := row.Scan(
		&user.ID,
		&user.Username,
		&email,
		&user.PasswordHash,
		&user.Role,
		&user.EmployeeID,
		&user.IsActive,
		&user.LastLogin,
		&user.CreatedAt,
		&createdBy,
		&user.ModifiedAt,
	); err != nil {
		return nil, err
	}

	if email.Valid {
		val := email.String
		user.Email = &val
	}
	if createdBy.Valid {
		val := createdBy.String
		user.CreatedBy = &val
	}

	return &user, nil
}

// GetByID retrieves a non-deleted user by identifier.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	stmt, args, err := r.builder.Select(userColumns).
		From("users").
		Where(squirrel.Eq{"id": id, "delete_flag": false}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user sql: %w", err)
	}

	user, err := scanUser(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	return user, nil
}

// GetByUsername retrieves a non-deleted user by exact username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	stmt, args, err := r.builder.Select(userColumns).
		From("users").
		Where(squirrel.Eq{"username": username, "delete_flag": false}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user by username sql: %w", err)
	}

	user, err := scanUser(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user by username: %w", err)
	}

	return user, nil
}

// List returns users matching the filter, ordered by username, joined with
// the linked employee's full name when present.
func (r *UserRepository) List(ctx context.Context, filter port.UserFilter) ([]domain.UserDetail, error) {
	query := r.builder.Select(
		"u.id",
		"u.username",
		"u.email",
		"u.password_hash",
		"u.role",
		"u.employee_id",
		"u.is_active",
		"u.last_login",
		"u.created_date",
		"u.created_by",
		"u.modified_date",
		"e.first_name || ' ' || e.last_name AS employee_name",
	).
		From("users u").
		LeftJoin("employees e ON e.id = u.employee_id").
		Where(squirrel.Eq{"u.delete_flag": false}).
		OrderBy("u.username")

	if filter.Username != "" {
		query = query.Where(squirrel.ILike{"u.username": "%" + filter.Username + "%"})
	}
	if filter.Role != nil {
		query = query.Where(squirrel.Eq{"u.role": *filter.Role})
	}
	if filter.IsActive != nil {
		query = query.Where(squirrel.Eq{"u.is_active": *filter.IsActive})
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list users sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.UserDetail, 0)
	for rows.Next() {
		var (
			detail       domain.UserDetail
			email        sql.NullString
			createdBy    sql.NullString
			employeeName sql.NullString
		)

		if err := rows.Scan(
			&detail.ID,
			&detail.Username,
			&email,
			&detail.PasswordHash,
			&detail.Role,
			&detail.EmployeeID,
			&detail.IsActive,
			&detail.LastLogin,
			&detail.CreatedAt,
			&createdBy,
			&detail.ModifiedAt,
			&employeeName,
		); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}

		if email.Valid {
			val := email.String
			detail.Email = &val
		}
		if createdBy.Valid {
			val := createdBy.String
			detail.CreatedBy = &val
		}
		if employeeName.Valid {
			val := employeeName.String
			detail.EmployeeName = &val
		}

		users = append(users, detail)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

// Update modifies an existing user's profile fields.
func (r *UserRepository) Update(ctx context.Context, user domain.User) error {
	stmt, args, err := r.builder.Update("users").
		Set("username", user.Username).
		Set("email", user.Email).
		Set("role", user.Role).
		Set("employee_id", user.EmployeeID).
		Set("is_active", user.IsActive).
		Set("modified_date", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": user.ID, "delete_flag": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update user sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// UpdatePassword replaces a user's password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	stmt, args, err := r.builder.Update("users").
		Set("password_hash", passwordHash).
		Set("modified_date", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "delete_flag": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update password sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// SetActive flips the active flag of a non-deleted user.
func (r *UserRepository) SetActive(ctx context.Context, id int64, active bool) error {
	stmt, args, err := r.builder.Update("users").
		Set("is_active", active).
		Set("modified_date", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "delete_flag": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set user active sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("set user active: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// SoftDelete marks a user deleted and inactive in one update.
func (r *UserRepository) SoftDelete(ctx context.Context, id int64) error {
	stmt, args, err := r.builder.Update("users").
		Set("delete_flag", true).
		Set("is_active", false).
		Set("modified_date", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "delete_flag": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build soft delete user sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("soft delete user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// UpdateLastLogin stamps the most recent successful login.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	stmt, args, err := r.builder.Update("users").
		Set("last_login", at).
		Where(squirrel.Eq{"id": id, "delete_flag": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update last login sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// UsernameTaken reports whether another non-deleted user already holds the
// username. excludeID skips the user being updated.
func (r *UserRepository) UsernameTaken(ctx context.Context, username string, excludeID *int64) (bool, error) {
	query := r.builder.Select("1").
		From("users").
		Where(squirrel.Eq{"username": username, "delete_flag": false})

	if excludeID != nil {
		query = query.Where(squirrel.NotEq{"id": *excludeID})
	}

	stmt, args, err := query.Limit(1).ToSql()
	if err != nil {
		return false, fmt.Errorf("build username taken sql: %w", err)
	}

	var one int
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("scan username taken: %w", err)
	}

	return true, nil
}

// CountOtherActiveAdmins counts active, non-deleted admins besides the given
// user. Zero means the user is the last admin standing.
func (r *UserRepository) CountOtherActiveAdmins(ctx context.Context, excludeID int64) (int64, error) {
	stmt, args, err := r.builder.Select("COUNT(*)").
		From("users").
		Where(squirrel.Eq{
			"role":        domain.RoleAdmin,
			"is_active":   true,
			"delete_flag": false,
		}).
		Where(squirrel.NotEq{"id": excludeID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count admins sql: %w", err)
	}

	var count int64
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("scan count admins: %w", err)
	}

	return count, nil
}

// Stats aggregates the user-management headline numbers in one query.
func (r *UserRepository) Stats(ctx context.Context) (*domain.UserStats, error) {
	stmt, args, err := r.builder.Select(
		"COUNT(*) AS total",
		"COUNT(*) FILTER (WHERE is_active) AS active",
		"COUNT(*) FILTER (WHERE role = 'admin') AS admins",
		"COUNT(*) FILTER (WHERE role = 'manager') AS managers",
		"COUNT(*) FILTER (WHERE role = 'user') AS regular",
		"COUNT(*) FILTER (WHERE last_login >= NOW() - INTERVAL '7 days') AS recent_logins",
	).
		From("users").
		Where(squirrel.Eq{"delete_flag": false}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build user stats sql: %w", err)
	}

	var stats domain.UserStats
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&stats.Total,
		&stats.Active,
		&stats.Admins,
		&stats.Managers,
		&stats.Regular,
		&stats.RecentLogins,
	); err != nil {
		return nil, fmt.Errorf("scan user stats: %w", err)
	}

	return &stats, nil
}

var _ port.UserRepository = (*UserRepository)(nil)
