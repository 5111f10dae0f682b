package domain

import "time"

// AuthorityStatus is the presentation status derived from an authority's
// active flag and validity window, never stored.
type AuthorityStatus string

const (
	AuthorityStatusActive       AuthorityStatus = "Active"
	AuthorityStatusInactive     AuthorityStatus = "Inactive"
	AuthorityStatusExpired      AuthorityStatus = "Expired"
	AuthorityStatusExpiringSoon AuthorityStatus = "Expiring Soon"
)

const (
	// ExpiryWarningDays is the lookahead window for Expiring Soon.
	ExpiryWarningDays = 30
	// MaxValidFromPastDays bounds how far in the past a window may start.
	MaxValidFromPastDays = 365
	// MaxValiditySpanDays bounds the length of a validity window (5 years).
	MaxValiditySpanDays = 1825
	// MaxApprovalAmount is the upper bound for a maximum approvable amount.
	MaxApprovalAmount = 999_999_999
)

// Authority mirrors the persisted representation in the approval_authorities
// table. CompanyID nil means the grant is global across companies.
type Authority struct {
	ID             int64
	EmployeeID     int64
	ApprovalTypeID int64
	CompanyID      *int64
	IsActive       bool
	ValidFrom      time.Time
	ValidTo        *time.Time
	MaxAmount      *float64
	Notes          *string
	CreatedBy      string
	CreatedAt      time.Time
	ModifiedBy     *string
	ModifiedAt     *time.Time
}

// AuthorityDetail is an authority joined with the names needed for listing.
// Status carries the classification computed by the list query.
type AuthorityDetail struct {
	Authority
	EmployeeName     string
	EmployeeEmail    string
	ApprovalTypeCode string
	ApprovalTypeName string
	CompanyName      *string
	Status           AuthorityStatus
}

// ApprovalType is a kind of approval an authority can be granted for.
type ApprovalType struct {
	ID          int64
	Code        string
	Name        string
	Description *string
	IsActive    bool
}

// Company scopes an authority; authorities without a company are global.
type Company struct {
	ID   int64
	Code string
	Name string
}

// DashboardSummary aggregates the headline numbers for the landing view.
type DashboardSummary struct {
	ActiveApprovers   int64
	ExpiringSoon      int64
	TotalAuthorities  int64
	ActiveAuthorities int64
}

var amountRequiredCodes = map[string]struct{}{
	"PO_SUGGESTION":   {},
	"PO_CANCELLATION": {},
	"OC_CANCELLATION": {},
	"OC_RETURN":       {},
}

// AmountRequired reports whether authorities of the given approval type code
// must carry a maximum approvable amount. Amounts submitted for other codes
// are discarded before persistence.
func AmountRequired(code string) bool {
	_, ok := amountRequiredCodes[code]
	return ok
}

// RequiresAmount reports whether the approval type carries an amount ceiling.
func (t ApprovalType) RequiresAmount() bool {
	return AmountRequired(t.Code)
}

// DateOnly strips the time-of-day component of t in its own location.
// Status and window checks compare at day granularity.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ClassifyStatus derives the presentation status for an authority.
// Precedence, first match wins: Inactive, Expired, Expiring Soon, Active.
// A validTo equal to today is Expiring Soon, not Expired; a nil validTo is
// open-ended and never expires.
func ClassifyStatus(isActive bool, validTo *time.Time, today time.Time) AuthorityStatus {
	if !isActive {
		return AuthorityStatusInactive
	}
	if validTo == nil {
		return AuthorityStatusActive
	}
	day := DateOnly(today)
	expiry := DateOnly(*validTo)
	if expiry.Before(day) {
		return AuthorityStatusExpired
	}
	if !expiry.After(day.AddDate(0, 0, ExpiryWarningDays)) {
		return AuthorityStatusExpiringSoon
	}
	return AuthorityStatusActive
}

// StatusOn classifies the authority as of the given day.
func (a Authority) StatusOn(today time.Time) AuthorityStatus {
	return ClassifyStatus(a.IsActive, a.ValidTo, today)
}
