package handlers

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hongquyngo/authority-management-system/internal/core/domain"
)

// dateLayout is the wire format for validity dates.
const dateLayout = "2006-01-02"

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, message string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Success: false,
		Message: message,
		TraceID: traceIDStr,
	}
}

// ValidationErrorResponse carries the ordered list of rule violations for a
// rejected submission.
type ValidationErrorResponse struct {
	Success bool     `json:"success"`
	Errors  []string `json:"errors"`
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// AuthLoginRequest defines the payload for the login endpoint.
type AuthLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// PermissionsPayload mirrors the per-role capability flags.
type PermissionsPayload struct {
	CanCreate      bool `json:"can_create"`
	CanEdit        bool `json:"can_edit"`
	CanDelete      bool `json:"can_delete"`
	CanApprove     bool `json:"can_approve"`
	CanViewAll     bool `json:"can_view_all"`
	CanExport      bool `json:"can_export"`
	CanManageUsers bool `json:"can_manage_users"`
}

// AuthLoginResponse describes the response returned for a successful login.
type AuthLoginResponse struct {
	Token       string             `json:"token"`
	TokenType   string             `json:"token_type"`
	ExpiresAt   time.Time          `json:"expires_at"`
	User        UserPayload        `json:"user"`
	Permissions PermissionsPayload `json:"permissions"`
}

// AuthMeResponse returns the authenticated identity and its permissions.
type AuthMeResponse struct {
	User        UserPayload        `json:"user"`
	Permissions PermissionsPayload `json:"permissions"`
}

// PasswordChangeRequest captures a password change request body.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// AuthorityRequest is the submitted form for creating, updating or
// validating an approval authority. Dates travel as YYYY-MM-DD strings so
// the validation engine, not the JSON decoder, reports missing or
// out-of-range values.
type AuthorityRequest struct {
	EmployeeID     int64    `json:"employee_id"`
	ApprovalTypeID int64    `json:"approval_type_id"`
	CompanyID      *int64   `json:"company_id"`
	ValidFrom      string   `json:"valid_from"`
	ValidTo        string   `json:"valid_to"`
	MaxAmount      *float64 `json:"max_amount"`
	Notes          *string  `json:"notes"`
}

// AuthorityValidateRequest carries a draft authority for dry-run validation.
// ID is set when revalidating an existing record so the duplicate check
// excludes it.
type AuthorityValidateRequest struct {
	AuthorityRequest
	ID *int64 `json:"id"`
}

// AuthorityValidateResponse reports the outcome of a dry-run validation.
type AuthorityValidateResponse struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// AuthorityStatusRequest toggles the active flag of an authority.
type AuthorityStatusRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// AuthorityBatchEntry pairs an approval type with its optional amount cap.
type AuthorityBatchEntry struct {
	ApprovalTypeID int64    `json:"approval_type_id"`
	MaxAmount      *float64 `json:"max_amount"`
}

// AuthorityBatchRequest expands into one authority per type/company pair.
// An empty company list grants each type globally.
type AuthorityBatchRequest struct {
	EmployeeID int64                 `json:"employee_id"`
	Entries    []AuthorityBatchEntry `json:"entries" binding:"required"`
	CompanyIDs []int64               `json:"company_ids"`
	ValidFrom  string                `json:"valid_from"`
	ValidTo    string                `json:"valid_to"`
	Notes      *string               `json:"notes"`
}

// AuthorityBatchFailure identifies one rejected type/company pair.
type AuthorityBatchFailure struct {
	Label  string `json:"label"`
	Reason string `json:"reason"`
}

// AuthorityBatchResponse summarises a batch grant.
type AuthorityBatchResponse struct {
	SuccessCount int                     `json:"success_count"`
	Failures     []AuthorityBatchFailure `json:"failures"`
}

// AuthorityPayload is the API view of an authority with its joined names
// and derived status.
type AuthorityPayload struct {
	ID               int64      `json:"id"`
	EmployeeID       int64      `json:"employee_id"`
	EmployeeName     string     `json:"employee_name"`
	EmployeeEmail    string     `json:"employee_email"`
	ApprovalTypeID   int64      `json:"approval_type_id"`
	ApprovalTypeCode string     `json:"approval_type_code"`
	ApprovalTypeName string     `json:"approval_type_name"`
	CompanyID        *int64     `json:"company_id,omitempty"`
	CompanyName      *string    `json:"company_name,omitempty"`
	IsActive         bool       `json:"is_active"`
	ValidFrom        string     `json:"valid_from"`
	ValidTo          *string    `json:"valid_to,omitempty"`
	MaxAmount        *float64   `json:"max_amount,omitempty"`
	Notes            *string    `json:"notes,omitempty"`
	Status           string     `json:"status"`
	CreatedBy        string     `json:"created_by"`
	CreatedAt        time.Time  `json:"created_at"`
	ModifiedBy       *string    `json:"modified_by,omitempty"`
	ModifiedAt       *time.Time `json:"modified_at,omitempty"`
}

// AuthorityListResponse wraps one page of authorities.
type AuthorityListResponse struct {
	Items   []AuthorityPayload `json:"items"`
	Page    int                `json:"page"`
	Limit   int                `json:"limit"`
	HasNext bool               `json:"has_next"`
}

// UserPayload is the API view of a user account.
type UserPayload struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Email        *string    `json:"email,omitempty"`
	Role         string     `json:"role"`
	EmployeeID   *int64     `json:"employee_id,omitempty"`
	EmployeeName *string    `json:"employee_name,omitempty"`
	IsActive     bool       `json:"is_active"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// UserCreateRequest defines the payload for creating a user account.
type UserCreateRequest struct {
	Username   string  `json:"username" binding:"required"`
	Password   string  `json:"password" binding:"required"`
	Email      *string `json:"email" binding:"omitempty,email"`
	Role       string  `json:"role" binding:"required"`
	EmployeeID *int64  `json:"employee_id"`
}

// UserUpdateRequest defines the payload for updating a user account.
type UserUpdateRequest struct {
	Username   string  `json:"username" binding:"required"`
	Email      *string `json:"email" binding:"omitempty,email"`
	Role       string  `json:"role" binding:"required"`
	EmployeeID *int64  `json:"employee_id"`
	IsActive   *bool   `json:"is_active" binding:"required"`
}

// UserListResponse wraps the user listing.
type UserListResponse struct {
	Items []UserPayload `json:"items"`
	Total int           `json:"total"`
}

// UserStatusResponse reports the state after a toggle.
type UserStatusResponse struct {
	ID       int64 `json:"id"`
	IsActive bool  `json:"is_active"`
}

// PasswordResetResponse returns the generated plaintext password exactly once.
type PasswordResetResponse struct {
	Password string `json:"password"`
}

// UserStatsResponse summarises account counts for the admin page.
type UserStatsResponse struct {
	Total        int64 `json:"total"`
	Active       int64 `json:"active"`
	Admins       int64 `json:"admins"`
	Managers     int64 `json:"managers"`
	Regular      int64 `json:"regular"`
	RecentLogins int64 `json:"recent_logins"`
}

// ApprovalTypePayload describes an approval type lookup row.
type ApprovalTypePayload struct {
	ID             int64   `json:"id"`
	Code           string  `json:"code"`
	Name           string  `json:"name"`
	Description    *string `json:"description,omitempty"`
	RequiresAmount bool    `json:"requires_amount"`
}

// CompanyPayload describes a company lookup row.
type CompanyPayload struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// EmployeePayload describes an employee lookup row.
type EmployeePayload struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// DashboardSummaryResponse carries the headline counters.
type DashboardSummaryResponse struct {
	ActiveApprovers   int64 `json:"active_approvers"`
	ExpiringSoon      int64 `json:"expiring_soon"`
	TotalAuthorities  int64 `json:"total_authorities"`
	ActiveAuthorities int64 `json:"active_authorities"`
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadyResponse describes readiness probe results with dependency checks.
type ReadyResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// parseDate converts a YYYY-MM-DD string, mapping empty input to the zero
// time so the validation engine reports the missing field.
func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", value)
	}
	return parsed, nil
}

// parseDatePtr converts an optional YYYY-MM-DD string, mapping empty input
// to nil.
func parseDatePtr(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := parseDate(value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func newPermissionsPayload(p domain.Permissions) PermissionsPayload {
	return PermissionsPayload{
		CanCreate:      p.CanCreate,
		CanEdit:        p.CanEdit,
		CanDelete:      p.CanDelete,
		CanApprove:     p.CanApprove,
		CanViewAll:     p.CanViewAll,
		CanExport:      p.CanExport,
		CanManageUsers: p.CanManageUsers,
	}
}

// newAuthorityPayload converts an authority detail to its API view.
func newAuthorityPayload(detail domain.AuthorityDetail) AuthorityPayload {
	payload := AuthorityPayload{
		ID:               detail.ID,
		EmployeeID:       detail.EmployeeID,
		EmployeeName:     detail.EmployeeName,
		EmployeeEmail:    detail.EmployeeEmail,
		ApprovalTypeID:   detail.ApprovalTypeID,
		ApprovalTypeCode: detail.ApprovalTypeCode,
		ApprovalTypeName: detail.ApprovalTypeName,
		CompanyID:        detail.CompanyID,
		CompanyName:      detail.CompanyName,
		IsActive:         detail.IsActive,
		ValidFrom:        detail.ValidFrom.Format(dateLayout),
		MaxAmount:        detail.MaxAmount,
		Notes:            detail.Notes,
		Status:           string(detail.Status),
		CreatedBy:        detail.CreatedBy,
		CreatedAt:        detail.CreatedAt,
		ModifiedBy:       detail.ModifiedBy,
		ModifiedAt:       detail.ModifiedAt,
	}

	if detail.ValidTo != nil {
		formatted := detail.ValidTo.Format(dateLayout)
		payload.ValidTo = &formatted
	}

	return payload
}

// newUserPayload converts a domain user to its API view.
func newUserPayload(user domain.User) UserPayload {
	return UserPayload{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		Role:       string(user.Role),
		EmployeeID: user.EmployeeID,
		IsActive:   user.IsActive,
		LastLogin:  user.LastLogin,
		CreatedAt:  user.CreatedAt,
	}
}

func newUserDetailPayload(detail domain.UserDetail) UserPayload {
	payload := newUserPayload(detail.User)
	payload.EmployeeName = detail.EmployeeName
	return payload
}

func newEmployeePayload(employee domain.Employee) EmployeePayload {
	return EmployeePayload{
		ID:          employee.ID,
		FirstName:   employee.FirstName,
		LastName:    employee.LastName,
		Email:       employee.Email,
		DisplayName: employee.DisplayName(),
	}
}
