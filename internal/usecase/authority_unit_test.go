package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/hongquyngo/authority-management-system/internal/core/domain"
	"github.com/hongquyngo/authority-management-system/internal/core/port"
	"github.com/hongquyngo/authority-management-system/internal/repository"
)

type duplicateProbe struct {
	employeeID     int64
	approvalTypeID int64
	companyID      *int64
	excludeID      *int64
}

type authorityRepoStub struct {
	nextID      int64
	created     []domain.Authority
	updated     []domain.Authority
	createErr   error
	updateErr   error
	duplicate   bool
	duplicateFn func(duplicateProbe) bool
	probes      []duplicateProbe
	missing     map[int64]bool
	details     map[int64]*domain.AuthorityDetail
	activeCalls []int64
	deleted     []int64
	page        *port.AuthorityPage
	summary     *domain.DashboardSummary
}

func (s *authorityRepoStub) Create(_ context.Context, authority domain.Authority) (int64, error) {
	if s.createErr != nil {
		return 0, s.createErr
	}
	s.nextID++
	authority.ID = s.nextID
	s.created = append(s.created, authority)
	return s.nextID, nil
}

func (s *authorityRepoStub) Update(_ context.Context, authority domain.Authority) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updated = append(s.updated, authority)
	return nil
}

func (s *authorityRepoStub) GetByID(_ context.Context, id int64) (*domain.AuthorityDetail, error) {
	if s.missing[id] {
		return nil, repository.ErrNotFound
	}
	if detail, ok := s.details[id]; ok {
		snapshot := *detail
		return &snapshot, nil
	}
	return &domain.AuthorityDetail{Authority: domain.Authority{ID: id}}, nil
}

func (s *authorityRepoStub) List(_ context.Context, _ port.AuthorityFilter) (*port.AuthorityPage, error) {
	if s.page != nil {
		return s.page, nil
	}
	return &port.AuthorityPage{}, nil
}

func (s *authorityRepoStub) SetActive(_ context.Context, id int64, _ bool, _ string) error {
	if s.missing[id] {
		return repository.ErrNotFound
	}
	s.activeCalls = append(s.activeCalls, id)
	return nil
}

func (s *authorityRepoStub) SoftDelete(_ context.Context, id int64, _ string) error {
	if s.missing[id] {
		return repository.ErrNotFound
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *authorityRepoStub) ExistsActiveDuplicate(_ context.Context, employeeID, approvalTypeID int64, companyID, excludeID *int64) (bool, error) {
	probe := duplicateProbe{
		employeeID:     employeeID,
		approvalTypeID: approvalTypeID,
		companyID:      companyID,
		excludeID:      excludeID,
	}
	s.probes = append(s.probes, probe)
	if s.duplicateFn != nil {
		return s.duplicateFn(probe), nil
	}
	return s.duplicate, nil
}

func (s *authorityRepoStub) Summary(_ context.Context) (*domain.DashboardSummary, error) {
	if s.summary != nil {
		return s.summary, nil
	}
	return &domain.DashboardSummary{}, nil
}

type approvalTypeRepoStub struct {
	types map[int64]domain.ApprovalType
}

func (s *approvalTypeRepoStub) ListActive(_ context.Context) ([]domain.ApprovalType, error) {
	out := make([]domain.ApprovalType, 0, len(s.types))
	for _, t := range s.types {
		out = append(out, t)
	}
	return out, nil
}

func (s *approvalTypeRepoStub) GetByID(_ context.Context, id int64) (*domain.ApprovalType, error) {
	t, ok := s.types[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

type employeeRepoStub struct {
	employees map[int64]domain.Employee
}

func (s *employeeRepoStub) ListActive(context.Context) ([]domain.Employee, error) {
	return nil, errors.New("unexpected call: ListActive")
}

func (s *employeeRepoStub) GetByID(_ context.Context, id int64) (*domain.Employee, error) {
	e, ok := s.employees[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (s *employeeRepoStub) ListAvailable(context.Context) ([]domain.Employee, error) {
	return nil, errors.New("unexpected call: ListAvailable")
}

type companyRepoStub struct {
	companies map[int64]domain.Company
}

func (s *companyRepoStub) List(context.Context) ([]domain.Company, error) {
	return nil, errors.New("unexpected call: List companies")
}

func (s *companyRepoStub) GetByID(_ context.Context, id int64) (*domain.Company, error) {
	c, ok := s.companies[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

type recordingPublisher struct {
	authorityCreated []domain.AuthorityCreatedEvent
	authorityUpdated []domain.AuthorityUpdatedEvent
	authorityStatus  []domain.AuthorityStatusChangedEvent
	authorityDeleted []domain.AuthorityDeletedEvent
	userCreated      []domain.UserCreatedEvent
	userStatus       []domain.UserStatusChangedEvent
	userDeleted      []domain.UserDeletedEvent
	loggedIn         []domain.UserLoggedInEvent
	passwordChanged  []domain.PasswordChangedEvent
	passwordReset    []domain.PasswordResetEvent
}

func (p *recordingPublisher) PublishAuthorityCreated(_ context.Context, e domain.AuthorityCreatedEvent) error {
	p.authorityCreated = append(p.authorityCreated, e)
	return nil
}

func (p *recordingPublisher) PublishAuthorityUpdated(_ context.Context, e domain.AuthorityUpdatedEvent) error {
	p.authorityUpdated = append(p.authorityUpdated, e)
	return nil
}

func (p *recordingPublisher) PublishAuthorityStatusChanged(_ context.Context, e domain.AuthorityStatusChangedEvent) error {
	p.authorityStatus = append(p.authorityStatus, e)
	return nil
}

func (p *recordingPublisher) PublishAuthorityDeleted(_ context.Context, e domain.AuthorityDeletedEvent) error {
	p.authorityDeleted = append(p.authorityDeleted, e)
	return nil
}

func (p *recordingPublisher) PublishUserCreated(_ context.Context, e domain.UserCreatedEvent) error {
	p.userCreated = append(p.userCreated, e)
	return nil
}

func (p *recordingPublisher) PublishUserStatusChanged(_ context.Context, e domain.UserStatusChangedEvent) error {
	p.userStatus = append(p.userStatus, e)
	return nil
}

func (p *recordingPublisher) PublishUserDeleted(_ context.Context, e domain.UserDeletedEvent) error {
	p.userDeleted = append(p.userDeleted, e)
	return nil
}

func (p *recordingPublisher) PublishUserLoggedIn(_ context.Context, e domain.UserLoggedInEvent) error {
	p.loggedIn = append(p.loggedIn, e)
	return nil
}

func (p *recordingPublisher) PublishPasswordChanged(_ context.Context, e domain.PasswordChangedEvent) error {
	p.passwordChanged = append(p.passwordChanged, e)
	return nil
}

func (p *recordingPublisher) PublishPasswordReset(_ context.Context, e domain.PasswordResetEvent) error {
	p.passwordReset = append(p.passwordReset, e)
	return nil
}

var authorityTestToday = time.Date(2025, 11, 10, 9, 0, 0, 0, time.UTC)

const (
	amountTypeID    = int64(10)
	nonAmountTypeID = int64(11)
)

func newAuthorityFixture(t *testing.T) (*AuthorityService, *authorityRepoStub, *recordingPublisher) {
	t.Helper()

	repo := &authorityRepoStub{missing: map[int64]bool{}, details: map[int64]*domain.AuthorityDetail{}}
	types := &approvalTypeRepoStub{types: map[int64]domain.ApprovalType{
		amountTypeID:    {ID: amountTypeID, Code: "PO_SUGGESTION", Name: "PO Suggestion", IsActive: true},
		nonAmountTypeID: {ID: nonAmountTypeID, Code: "INVENTORY_ADJUSTMENT", Name: "Inventory Adjustment", IsActive: true},
	}}
	employees := &employeeRepoStub{employees: map[int64]domain.Employee{
		1: {ID: 1, FirstName: "Anna", LastName: "Tran", Email: "anna.tran@example.com", Status: domain.EmployeeStatusActive},
	}}
	companies := &companyRepoStub{companies: map[int64]domain.Company{
		3: {ID: 3, Code: "PTVN", Name: "Prostech VN"},
		4: {ID: 4, Code: "PTTH", Name: "Prostech TH"},
	}}
	publisher := &recordingPublisher{}

	svc := NewAuthorityService(repo, types, employees, companies, publisher, zaptest.NewLogger(t))
	svc.WithClock(func() time.Time { return authorityTestToday })
	return svc, repo, publisher
}

func validInput() AuthorityInput {
	amount := 50000.0
	company := int64(3)
	return AuthorityInput{
		EmployeeID:     1,
		ApprovalTypeID: amountTypeID,
		CompanyID:      &company,
		ValidFrom:      authorityTestToday,
		MaxAmount:      &amount,
	}
}

func TestValidateRequiredFields(t *testing.T) {
	svc, repo, _ := newAuthorityFixture(t)

	violations, err := svc.Validate(context.Background(), AuthorityInput{}, nil)
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}

	want := []string{
		"Employee is required",
		"Approval type is required",
		"Valid from date is required",
	}
	assertViolations(t, violations, want)

	if len(repo.probes) != 0 {
		t.Fatalf("duplicate probe must be skipped without a resolvable combination, got %d probes", len(repo.probes))
	}
}

func TestValidateUnknownReferencesAndWindow(t *testing.T) {
	svc, repo, _ := newAuthorityFixture(t)

	from := authorityTestToday.AddDate(-2, 0, 0)
	to := from.AddDate(0, 0, -1)
	violations, err := svc.Validate(context.Background(), AuthorityInput{
		EmployeeID:     99,
		ApprovalTypeID: 88,
		ValidFrom:      from,
		ValidTo:        &to,
	}, nil)
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}

	want := []string{
		"Selected employee does not exist",
		"Selected approval type does not exist",
		"Valid from date cannot be more than 1 year in the past",
		"Valid to date must be after valid from date",
	}
	assertViolations(t, violations, want)

	if len(repo.probes) != 0 {
		t.Fatalf("duplicate probe must be skipped for unknown references, got %d probes", len(repo.probes))
	}
}

func TestValidateSpanAmountAndDuplicateOrdering(t *testing.T) {
	svc, repo, _ := newAuthorityFixture(t)
	repo.duplicate = true

	to := authorityTestToday.AddDate(0, 0, domain.MaxValiditySpanDays+1)
	violations, err := svc.Validate(context.Background(), AuthorityInput{
		EmployeeID:     1,
		ApprovalTypeID: amountTypeID,
		ValidFrom:      authorityTestToday,
		ValidTo:        &to,
	}, nil)
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}

	want := []string{
		"Date range cannot exceed 5 years",
		"Maximum amount is required for this approval type",
		"Active authority already exists for this combination",
	}
	assertViolations(t, violations, want)
}

func TestValidateWindowBoundaries(t *testing.T) {
	svc, _, _ := newAuthorityFixture(t)

	cases := []struct {
		name     string
		from     time.Time
		to       *time.Time
		expected []string
	}{
		{
			name: "exactly one year in the past is allowed",
			from: authorityTestToday.AddDate(0, 0, -domain.MaxValidFromPastDays),
		},
		{
			name:     "one day beyond a year is rejected",
			from:     authorityTestToday.AddDate(0, 0, -(domain.MaxValidFromPastDays + 1)),
			expected: []string{"Valid from date cannot be more than 1 year in the past"},
		},
		{
			name: "five year span is allowed",
			from: authorityTestToday,
			to:   datePtr(authorityTestToday.AddDate(0, 0, domain.MaxValiditySpanDays)),
		},
		{
			name:     "same day window is rejected",
			from:     authorityTestToday,
			to:       datePtr(authorityTestToday),
			expected: []string{"Valid to date must be after valid from date"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			amount := 1000.0
			input := AuthorityInput{
				EmployeeID:     1,
				ApprovalTypeID: amountTypeID,
				ValidFrom:      tc.from,
				ValidTo:        tc.to,
				MaxAmount:      &amount,
			}
			violations, err := svc.Validate(context.Background(), input, nil)
			if err != nil {
				t.Fatalf("Validate returned error: %v", err)
			}
			assertViolations(t, violations, tc.expected)
		})
	}
}

func TestValidateAmountBoundaries(t *testing.T) {
	svc, _, _ := newAuthorityFixture(t)

	cases := []struct {
		name     string
		typeID   int64
		amount   *float64
		expected []string
	}{
		{
			name:     "missing amount for amount type",
			typeID:   amountTypeID,
			expected: []string{"Maximum amount is required for this approval type"},
		},
		{
			name:     "zero amount for amount type",
			typeID:   amountTypeID,
			amount:   floatPtr(0),
			expected: []string{"Maximum amount is required for this approval type"},
		},
		{
			name:     "negative amount for amount type",
			typeID:   amountTypeID,
			amount:   floatPtr(-500),
			expected: []string{"Maximum amount is required for this approval type"},
		},
		{
			name:   "minimum positive amount is allowed",
			typeID: amountTypeID,
			amount: floatPtr(1),
		},
		{
			name:   "ceiling amount is allowed",
			typeID: amountTypeID,
			amount: floatPtr(domain.MaxApprovalAmount),
		},
		{
			name:     "above ceiling is rejected",
			typeID:   amountTypeID,
			amount:   floatPtr(domain.MaxApprovalAmount + 1),
			expected: []string{"Maximum amount cannot exceed 999,999,999"},
		},
		{
			name:   "amount ignored for non amount type",
			typeID: nonAmountTypeID,
			amount: floatPtr(domain.MaxApprovalAmount * 10),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := AuthorityInput{
				EmployeeID:     1,
				ApprovalTypeID: tc.typeID,
				ValidFrom:      authorityTestToday,
				MaxAmount:      tc.amount,
			}
			violations, err := svc.Validate(context.Background(), input, nil)
			if err != nil {
				t.Fatalf("Validate returned error: %v", err)
			}
			assertViolations(t, violations, tc.expected)
		})
	}
}

func TestCreatePersistsAndPublishes(t *testing.T) {
	svc, repo, publisher := newAuthorityFixture(t)

	detail, err := svc.Create(context.Background(), "admin", validInput())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if detail == nil || detail.ID != 1 {
		t.Fatalf("unexpected created detail: %+v", detail)
	}

	if len(repo.created) != 1 {
		t.Fatalf("expected one insert, got %d", len(repo.created))
	}
	row := repo.created[0]
	if !row.IsActive {
		t.Fatal("new authority must start active")
	}
	if row.CreatedBy != "admin" {
		t.Fatalf("unexpected created_by: %s", row.CreatedBy)
	}
	if !row.ValidFrom.Equal(domain.DateOnly(authorityTestToday)) {
		t.Fatalf("valid_from must be stored at day granularity: %v", row.ValidFrom)
	}
	if row.MaxAmount == nil || *row.MaxAmount != 50000 {
		t.Fatalf("amount not persisted: %v", row.MaxAmount)
	}

	if len(publisher.authorityCreated) != 1 {
		t.Fatalf("expected one created event, got %d", len(publisher.authorityCreated))
	}
	event := publisher.authorityCreated[0]
	if event.AuthorityID != 1 || event.EmployeeID != 1 || event.CreatedBy != "admin" {
		t.Fatalf("unexpected event contents: %+v", event)
	}
	if event.EventID == "" {
		t.Fatal("event must carry a generated event id")
	}
}

func TestCreateDiscardsAmountForNonAmountType(t *testing.T) {
	svc, repo, _ := newAuthorityFixture(t)

	input := validInput()
	input.ApprovalTypeID = nonAmountTypeID

	if _, err := svc.Create(context.Background(), "admin", input); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if len(repo.created) != 1 {
		t.Fatalf("expected one insert, got %d", len(repo.created))
	}
	if repo.created[0].MaxAmount != nil {
		t.Fatalf("amount must be discarded for non amount types, got %v", *repo.created[0].MaxAmount)
	}
}

func TestCreateNormalizesGlobalCompany(t *testing.T) {
	svc, repo, _ := newAuthorityFixture(t)

	input := validInput()
	zero := int64(0)
	input.CompanyID = &zero

	if _, err := svc.Create(context.Background(), "admin", input); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if len(repo.probes) != 1 || repo.probes[0].companyID != nil {
		t.Fatalf("duplicate probe must use the global scope: %+v", repo.probes)
	}
	if repo.created[0].CompanyID != nil {
		t.Fatalf("persisted company must be global, got %v", *repo.created[0].CompanyID)
	}
}

func TestCreateValidationFailure(t *testing.T) {
	svc, repo, publisher := newAuthorityFixture(t)
	repo.duplicate = true

	_, err := svc.Create(context.Background(), "admin", validInput())
	if err == nil {
		t.Fatal("expected validation error")
	}

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	assertViolations(t, validationErr.Violations, []string{"Active authority already exists for this combination"})

	if len(repo.created) != 0 {
		t.Fatal("nothing must be persisted on validation failure")
	}
	if len(publisher.authorityCreated) != 0 {
		t.Fatal("no event must be published on validation failure")
	}
}

func TestCreateDuplicateRaceSurfacesAsViolation(t *testing.T) {
	svc, repo, _ := newAuthorityFixture(t)
	repo.createErr = repository.ErrDuplicate

	_, err := svc.Create(context.Background(), "admin", validInput())
	if err == nil {
		t.Fatal("expected error from duplicate insert")
	}

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	assertViolations(t, validationErr.Violations, []string{"Active authority already exists for this combination"})
}

func TestUpdateExcludesSelfFromDuplicateCheck(t *testing.T) {
	svc, repo, publisher := newAuthorityFixture(t)

	if _, err := svc.Update(context.Background(), "manager", 42, validInput()); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	if len(repo.probes) != 1 {
		t.Fatalf("expected one duplicate probe, got %d", len(repo.probes))
	}
	probe := repo.probes[0]
	if probe.excludeID == nil || *probe.excludeID != 42 {
		t.Fatalf("duplicate probe must exclude the record itself: %+v", probe)
	}

	if len(repo.updated) != 1 {
		t.Fatalf("expected one update, got %d", len(repo.updated))
	}
	row := repo.updated[0]
	if row.ID != 42 {
		t.Fatalf("unexpected updated id: %d", row.ID)
	}
	if row.ModifiedBy == nil || *row.ModifiedBy != "manager" {
		t.Fatalf("modified_by not stamped: %v", row.ModifiedBy)
	}

	if len(publisher.authorityUpdated) != 1 {
		t.Fatalf("expected one updated event, got %d", len(publisher.authorityUpdated))
	}
}

func TestUpdateUnknownAuthority(t *testing.T) {
	svc, repo, _ := newAuthorityFixture(t)
	repo.missing[7] = true

	_, err := svc.Update(context.Background(), "manager", 7, validInput())
	if !errors.Is(err, ErrAuthorityNotFound) {
		t.Fatalf("expected ErrAuthorityNotFound, got %v", err)
	}
}

func TestSetActivePublishesStatusEvent(t *testing.T) {
	svc, repo, publisher := newAuthorityFixture(t)

	if err := svc.SetActive(context.Background(), "admin", 5, false); err != nil {
		t.Fatalf("SetActive returned error: %v", err)
	}

	if len(repo.activeCalls) != 1 || repo.activeCalls[0] != 5 {
		t.Fatalf("unexpected SetActive calls: %v", repo.activeCalls)
	}
	if len(publisher.authorityStatus) != 1 {
		t.Fatalf("expected one status event, got %d", len(publisher.authorityStatus))
	}
	if publisher.authorityStatus[0].IsActive {
		t.Fatal("status event must carry the new inactive state")
	}
}

func TestDeletePublishesDeletedEvent(t *testing.T) {
	svc, repo, publisher := newAuthorityFixture(t)

	if err := svc.Delete(context.Background(), "admin", 9); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != 9 {
		t.Fatalf("unexpected soft delete calls: %v", repo.deleted)
	}
	if len(publisher.authorityDeleted) != 1 {
		t.Fatalf("expected one deleted event, got %d", len(publisher.authorityDeleted))
	}

	repo.missing[10] = true
	if err := svc.Delete(context.Background(), "admin", 10); !errors.Is(err, ErrAuthorityNotFound) {
		t.Fatalf("expected ErrAuthorityNotFound, got %v", err)
	}
}

func assertViolations(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("violation count mismatch: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("violation %d mismatch: got %q, want %q", i, got[i], want[i])
		}
	}
}

func floatPtr(v float64) *float64 {
	return &v
}

func datePtr(t time.Time) *time.Time {
	return &t
}
