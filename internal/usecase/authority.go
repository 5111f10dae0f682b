package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hongquyngo/authority-management-system/internal/core/domain"
	"github.com/hongquyngo/authority-management-system/internal/core/port"
	"github.com/hongquyngo/authority-management-system/internal/repository"
)

var (
	// ErrAuthorityNotFound indicates the requested authority does not exist.
	ErrAuthorityNotFound = errors.New("authority not found")
)

// ValidationError carries the full ordered list of rule violations for one
// submitted authority. It is user input feedback, not a system fault.
type ValidationError struct {
	Violations []string
}

// Error implements error for ValidationError.
func (e *ValidationError) Error() string {
	if e == nil || len(e.Violations) == 0 {
		return "validation failed"
	}
	return strings.Join(e.Violations, "; ")
}

// AuthorityInput captures the submitted form for creating or updating an
// authority. A nil or non-positive CompanyID means the grant is global.
type AuthorityInput struct {
	EmployeeID     int64
	ApprovalTypeID int64
	CompanyID      *int64
	ValidFrom      time.Time
	ValidTo        *time.Time
	MaxAmount      *float64
	Notes          *string
}

// AuthorityService coordinates approval authority workflows: validation,
// duplicate detection, persistence and lifecycle events.
type AuthorityService struct {
	authorities   port.AuthorityRepository
	approvalTypes port.ApprovalTypeRepository
	employees     port.EmployeeRepository
	companies     port.CompanyRepository
	events        port.EventPublisher
	logger        *zap.Logger
	now           func() time.Time
}

// NewAuthorityService constructs an AuthorityService.
func NewAuthorityService(
	authorities port.AuthorityRepository,
	approvalTypes port.ApprovalTypeRepository,
	employees port.EmployeeRepository,
	companies port.CompanyRepository,
	events port.EventPublisher,
	logger *zap.Logger,
) *AuthorityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	service := &AuthorityService{
		authorities:   authorities,
		approvalTypes: approvalTypes,
		employees:     employees,
		companies:     companies,
		events:        events,
		logger:        logger,
	}
	service.now = func() time.Time { return time.Now() }
	return service
}

// WithClock overrides the internal clock for deterministic tests.
func (s *AuthorityService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// normalizeAuthorityInput maps a non-positive company selection to the
// global (nil) scope. This is the single place that normalization happens.
func normalizeAuthorityInput(input AuthorityInput) AuthorityInput {
	if input.CompanyID != nil && *input.CompanyID <= 0 {
		input.CompanyID = nil
	}
	return input
}

// Validate runs the full rule set against a prospective authority and
// returns every violation in presentation order, never just the first.
// excludeID skips the record itself during the duplicate check on updates.
func (s *AuthorityService) Validate(ctx context.Context, input AuthorityInput, excludeID *int64) ([]string, error) {
	violations, _, err := s.validate(ctx, normalizeAuthorityInput(input), excludeID)
	return violations, err
}

func (s *AuthorityService) validate(ctx context.Context, input AuthorityInput, excludeID *int64) ([]string, *domain.ApprovalType, error) {
	violations := make([]string, 0)

	if input.EmployeeID <= 0 {
		violations = append(violations, "Employee is required")
	}
	if input.ApprovalTypeID <= 0 {
		violations = append(violations, "Approval type is required")
	}
	if input.ValidFrom.IsZero() {
		violations = append(violations, "Valid from date is required")
	}

	// The duplicate check needs a resolvable employee and approval type;
	// without them there is no combination to collide with.
	identityKnown := input.EmployeeID > 0 && input.ApprovalTypeID > 0

	if input.EmployeeID > 0 {
		if _, err := s.employees.GetByID(ctx, input.EmployeeID); err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				return nil, nil, fmt.Errorf("lookup employee: %w", err)
			}
			violations = append(violations, "Selected employee does not exist")
			identityKnown = false
		}
	}

	var approvalType *domain.ApprovalType
	if input.ApprovalTypeID > 0 {
		found, err := s.approvalTypes.GetByID(ctx, input.ApprovalTypeID)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				return nil, nil, fmt.Errorf("lookup approval type: %w", err)
			}
			violations = append(violations, "Selected approval type does not exist")
			identityKnown = false
		} else {
			approvalType = found
		}
	}

	if !input.ValidFrom.IsZero() {
		today := domain.DateOnly(s.now())
		from := domain.DateOnly(input.ValidFrom)

		if from.Before(today.AddDate(0, 0, -domain.MaxValidFromPastDays)) {
			violations = append(violations, "Valid from date cannot be more than 1 year in the past")
		}
		if input.ValidTo != nil {
			to := domain.DateOnly(*input.ValidTo)
			if !to.After(from) {
				violations = append(violations, "Valid to date must be after valid from date")
			}
			if to.After(from.AddDate(0, 0, domain.MaxValiditySpanDays)) {
				violations = append(violations, "Date range cannot exceed 5 years")
			}
		}
	}

	if approvalType != nil && approvalType.RequiresAmount() {
		switch {
		case input.MaxAmount == nil || *input.MaxAmount <= 0:
			violations = append(violations, "Maximum amount is required for this approval type")
		case *input.MaxAmount > domain.MaxApprovalAmount:
			violations = append(violations, "Maximum amount cannot exceed 999,999,999")
		}
	}

	if identityKnown {
		exists, err := s.authorities.ExistsActiveDuplicate(ctx, input.EmployeeID, input.ApprovalTypeID, input.CompanyID, excludeID)
		if err != nil {
			return nil, nil, fmt.Errorf("check duplicate authority: %w", err)
		}
		if exists {
			violations = append(violations, "Active authority already exists for this combination")
		}
	}

	return violations, approvalType, nil
}

// buildAuthority assembles the row to persist. Amounts submitted for types
// that do not carry a ceiling are discarded here, exactly once.
func buildAuthority(input AuthorityInput, approvalType *domain.ApprovalType, actor string, now time.Time) domain.Authority {
	authority := domain.Authority{
		EmployeeID:     input.EmployeeID,
		ApprovalTypeID: input.ApprovalTypeID,
		CompanyID:      input.CompanyID,
		IsActive:       true,
		ValidFrom:      domain.DateOnly(input.ValidFrom),
		Notes:          input.Notes,
		CreatedBy:      actor,
		CreatedAt:      now,
	}
	if input.ValidTo != nil {
		to := domain.DateOnly(*input.ValidTo)
		authority.ValidTo = &to
	}
	if approvalType != nil && approvalType.RequiresAmount() {
		authority.MaxAmount = input.MaxAmount
	}
	return authority
}

// Create validates and persists a new authority. Validation failures come
// back as *ValidationError; a duplicate that only appears inside the
// serializable insert transaction surfaces as the same violation.
func (s *AuthorityService) Create(ctx context.Context, actor string, input AuthorityInput) (*domain.AuthorityDetail, error) {
	input = normalizeAuthorityInput(input)

	violations, approvalType, err := s.validate(ctx, input, nil)
	if err != nil {
		return nil, err
	}
	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	authority := buildAuthority(input, approvalType, actor, s.now())

	id, err := s.authorities.Create(ctx, authority)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &ValidationError{Violations: []string{"Active authority already exists for this combination"}}
		}
		return nil, fmt.Errorf("create authority: %w", err)
	}

	s.publishCreated(ctx, id, authority)

	detail, err := s.authorities.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload authority: %w", err)
	}
	return detail, nil
}

// Update validates and persists changes to an existing authority. The
// duplicate check excludes the record itself so it never collides with its
// own previous state.
func (s *AuthorityService) Update(ctx context.Context, actor string, id int64, input AuthorityInput) (*domain.AuthorityDetail, error) {
	input = normalizeAuthorityInput(input)

	if _, err := s.authorities.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAuthorityNotFound
		}
		return nil, fmt.Errorf("lookup authority: %w", err)
	}

	violations, approvalType, err := s.validate(ctx, input, &id)
	if err != nil {
		return nil, err
	}
	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	now := s.now()
	authority := buildAuthority(input, approvalType, actor, now)
	authority.ID = id
	authority.ModifiedBy = &actor
	authority.ModifiedAt = &now

	if err := s.authorities.Update(ctx, authority); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, &ValidationError{Violations: []string{"Active authority already exists for this combination"}}
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrAuthorityNotFound
		}
		return nil, fmt.Errorf("update authority: %w", err)
	}

	s.publishUpdated(ctx, id, actor, now)

	detail, err := s.authorities.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload authority: %w", err)
	}
	return detail, nil
}

// Get returns one authority with joined names and derived status.
func (s *AuthorityService) Get(ctx context.Context, id int64) (*domain.AuthorityDetail, error) {
	detail, err := s.authorities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAuthorityNotFound
		}
		return nil, fmt.Errorf("get authority: %w", err)
	}
	return detail, nil
}

// List returns one page of authorities matching the filter.
func (s *AuthorityService) List(ctx context.Context, filter port.AuthorityFilter) (*port.AuthorityPage, error) {
	page, err := s.authorities.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list authorities: %w", err)
	}
	return page, nil
}

// SetActive flips the active flag of an authority.
func (s *AuthorityService) SetActive(ctx context.Context, actor string, id int64, active bool) error {
	if err := s.authorities.SetActive(ctx, id, active, actor); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAuthorityNotFound
		}
		return fmt.Errorf("set authority active: %w", err)
	}

	if s.events != nil {
		event := domain.AuthorityStatusChangedEvent{
			EventID:     uuid.NewString(),
			AuthorityID: id,
			IsActive:    active,
			ChangedBy:   actor,
			ChangedAt:   s.now(),
		}
		if err := s.events.PublishAuthorityStatusChanged(ctx, event); err != nil {
			s.logger.Warn("publish authority status changed event", zap.Error(err))
		}
	}
	return nil
}

// Delete soft-deletes an authority; a deleted authority is also inactive.
func (s *AuthorityService) Delete(ctx context.Context, actor string, id int64) error {
	if err := s.authorities.SoftDelete(ctx, id, actor); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAuthorityNotFound
		}
		return fmt.Errorf("delete authority: %w", err)
	}

	if s.events != nil {
		event := domain.AuthorityDeletedEvent{
			EventID:     uuid.NewString(),
			AuthorityID: id,
			DeletedBy:   actor,
			DeletedAt:   s.now(),
		}
		if err := s.events.PublishAuthorityDeleted(ctx, event); err != nil {
			s.logger.Warn("publish authority deleted event", zap.Error(err))
		}
	}
	return nil
}

// Summary returns the dashboard headline numbers.
func (s *AuthorityService) Summary(ctx context.Context) (*domain.DashboardSummary, error) {
	summary, err := s.authorities.Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("load summary: %w", err)
	}
	return summary, nil
}

func (s *AuthorityService) publishCreated(ctx context.Context, id int64, authority domain.Authority) {
	if s.events == nil {
		return
	}
	event := domain.AuthorityCreatedEvent{
		EventID:        uuid.NewString(),
		AuthorityID:    id,
		EmployeeID:     authority.EmployeeID,
		ApprovalTypeID: authority.ApprovalTypeID,
		CompanyID:      authority.CompanyID,
		ValidFrom:      authority.ValidFrom,
		ValidTo:        authority.ValidTo,
		MaxAmount:      authority.MaxAmount,
		CreatedBy:      authority.CreatedBy,
		CreatedAt:      authority.CreatedAt,
	}
	if err := s.events.PublishAuthorityCreated(ctx, event); err != nil {
		s.logger.Warn("publish authority created event", zap.Error(err))
	}
}

func (s *AuthorityService) publishUpdated(ctx context.Context, id int64, actor string, at time.Time) {
	if s.events == nil {
		return
	}
	event := domain.AuthorityUpdatedEvent{
		EventID:     uuid.NewString(),
		AuthorityID: id,
		ModifiedBy:  actor,
		ModifiedAt:  at,
	}
	if err := s.events.PublishAuthorityUpdated(ctx, event); err != nil {
		s.logger.Warn("publish authority updated event", zap.Error(err))
	}
}
