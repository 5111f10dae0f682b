package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/hongquyngo/authority-management-system/internal/core/domain"
	"github.com/hongquyngo/authority-management-system/internal/core/port"
	"github.com/hongquyngo/authority-management-system/internal/infra/security"
	"github.com/hongquyngo/authority-management-system/internal/repository"
)

const strongUserPassword = "Br1ght-Harbor-2025"

type usernameProbe struct {
	username  string
	excludeID *int64
}

type userRepoStub struct {
	nextID         int64
	users          map[int64]*domain.User
	created        []domain.User
	taken          bool
	takenProbes    []usernameProbe
	otherAdmins    int64
	adminCountErr  error
	passwordHashes map[int64]string
	lastLoginErr   error
	lastLogins     map[int64]time.Time
	softDeleted    []int64
	listResult     []domain.UserDetail
	stats          *domain.UserStats
}

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{
		users:          map[int64]*domain.User{},
		passwordHashes: map[int64]string{},
		lastLogins:     map[int64]time.Time{},
	}
}

func (s *userRepoStub) add(user domain.User) {
	copied := user
	s.users[user.ID] = &copied
}

func (s *userRepoStub) Create(_ context.Context, user domain.User) (int64, error) {
	s.nextID++
	user.ID = s.nextID
	s.created = append(s.created, user)
	s.add(user)
	return s.nextID, nil
}

func (s *userRepoStub) GetByID(_ context.Context, id int64) (*domain.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *userRepoStub) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, user := range s.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *userRepoStub) List(_ context.Context, _ port.UserFilter) ([]domain.UserDetail, error) {
	return s.listResult, nil
}

func (s *userRepoStub) Update(_ context.Context, user domain.User) error {
	if _, ok := s.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	s.add(user)
	return nil
}

func (s *userRepoStub) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	if _, ok := s.users[id]; !ok {
		return repository.ErrNotFound
	}
	s.passwordHashes[id] = passwordHash
	s.users[id].PasswordHash = passwordHash
	return nil
}

func (s *userRepoStub) SetActive(_ context.Context, id int64, active bool) error {
	user, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.IsActive = active
	return nil
}

func (s *userRepoStub) SoftDelete(_ context.Context, id int64) error {
	if _, ok := s.users[id]; !ok {
		return repository.ErrNotFound
	}
	s.softDeleted = append(s.softDeleted, id)
	delete(s.users, id)
	return nil
}

func (s *userRepoStub) UpdateLastLogin(_ context.Context, id int64, at time.Time) error {
	if s.lastLoginErr != nil {
		return s.lastLoginErr
	}
	s.lastLogins[id] = at
	return nil
}

func (s *userRepoStub) UsernameTaken(_ context.Context, username string, excludeID *int64) (bool, error) {
	s.takenProbes = append(s.takenProbes, usernameProbe{username: username, excludeID: excludeID})
	return s.taken, nil
}

func (s *userRepoStub) CountOtherActiveAdmins(_ context.Context, _ int64) (int64, error) {
	if s.adminCountErr != nil {
		return 0, s.adminCountErr
	}
	return s.otherAdmins, nil
}

func (s *userRepoStub) Stats(_ context.Context) (*domain.UserStats, error) {
	if s.stats != nil {
		return s.stats, nil
	}
	return &domain.UserStats{}, nil
}

var userTestNow = time.Date(2025, 11, 12, 14, 0, 0, 0, time.UTC)

func newUserFixture(t *testing.T) (*UserService, *userRepoStub, *recordingPublisher) {
	t.Helper()

	repo := newUserRepoStub()
	publisher := &recordingPublisher{}
	employees := &employeeRepoStub{employees: map[int64]domain.Employee{}}

	svc := NewUserService(repo, employees, publisher, security.DefaultPasswordValidator(), zaptest.NewLogger(t))
	svc.WithClock(func() time.Time { return userTestNow })
	return svc, repo, publisher
}

func TestCreateUserRejectsBadInput(t *testing.T) {
	svc, repo, _ := newUserFixture(t)

	if _, err := svc.Create(context.Background(), "admin", CreateUserInput{
		Username: "   ",
		Password: strongUserPassword,
		Role:     domain.RoleUser,
	}); err == nil {
		t.Fatal("expected error for blank username")
	}

	if _, err := svc.Create(context.Background(), "admin", CreateUserInput{
		Username: "jdoe",
		Password: strongUserPassword,
		Role:     domain.Role("superuser"),
	}); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}

	if _, err := svc.Create(context.Background(), "admin", CreateUserInput{
		Username: "jdoe",
		Password: "abc12345",
		Role:     domain.RoleUser,
	}); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}

	repo.taken = true
	if _, err := svc.Create(context.Background(), "admin", CreateUserInput{
		Username: "jdoe",
		Password: strongUserPassword,
		Role:     domain.RoleUser,
	}); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	if len(repo.created) != 0 {
		t.Fatal("no account must be persisted for rejected input")
	}
}

func TestCreateUserHashesPasswordAndPublishes(t *testing.T) {
	svc, repo, publisher := newUserFixture(t)

	user, err := svc.Create(context.Background(), "admin", CreateUserInput{
		Username: "  jdoe  ",
		Password: strongUserPassword,
		Role:     domain.RoleManager,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if user.Username != "jdoe" {
		t.Fatalf("username must be trimmed, got %q", user.Username)
	}
	if !user.IsActive {
		t.Fatal("new accounts must start active")
	}

	if len(repo.created) != 1 {
		t.Fatalf("expected one insert, got %d", len(repo.created))
	}
	stored := repo.created[0]
	if stored.PasswordHash == strongUserPassword {
		t.Fatal("password must never be stored in plaintext")
	}
	if !strings.HasPrefix(stored.PasswordHash, "$argon2id$") {
		t.Fatalf("expected argon2id hash, got %q", stored.PasswordHash)
	}
	ok, err := security.VerifyPassword(strongUserPassword, stored.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("stored hash does not verify: ok=%v err=%v", ok, err)
	}
	if stored.CreatedBy == nil || *stored.CreatedBy != "admin" {
		t.Fatalf("created_by not stamped: %v", stored.CreatedBy)
	}

	if len(publisher.userCreated) != 1 {
		t.Fatalf("expected one created event, got %d", len(publisher.userCreated))
	}
	if publisher.userCreated[0].Role != string(domain.RoleManager) {
		t.Fatalf("unexpected event role: %s", publisher.userCreated[0].Role)
	}
}

func TestUpdateUserUsernameConflict(t *testing.T) {
	svc, repo, _ := newUserFixture(t)
	repo.add(domain.User{ID: 5, Username: "jdoe", Role: domain.RoleUser, IsActive: true})
	repo.taken = true

	_, err := svc.Update(context.Background(), 5, UpdateUserInput{
		Username: "other",
		Role:     domain.RoleUser,
		IsActive: true,
	})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	if len(repo.takenProbes) != 1 {
		t.Fatalf("expected one username probe, got %d", len(repo.takenProbes))
	}
	probe := repo.takenProbes[0]
	if probe.excludeID == nil || *probe.excludeID != 5 {
		t.Fatalf("uniqueness probe must exclude the account itself: %+v", probe)
	}
}

func TestToggleActiveGuardsLastAdmin(t *testing.T) {
	svc, repo, publisher := newUserFixture(t)
	repo.add(domain.User{ID: 1, Username: "root", Role: domain.RoleAdmin, IsActive: true})

	if _, err := svc.ToggleActive(context.Background(), "root", 1); !errors.Is(err, ErrLastAdminDeactivate) {
		t.Fatalf("expected ErrLastAdminDeactivate, got %v", err)
	}
	if !repo.users[1].IsActive {
		t.Fatal("guarded account must stay active")
	}

	repo.otherAdmins = 1
	state, err := svc.ToggleActive(context.Background(), "root", 1)
	if err != nil {
		t.Fatalf("ToggleActive returned error: %v", err)
	}
	if state {
		t.Fatal("expected account to be deactivated")
	}
	if len(publisher.userStatus) != 1 || publisher.userStatus[0].IsActive {
		t.Fatalf("unexpected status events: %+v", publisher.userStatus)
	}
}

func TestToggleActiveReactivatesWithoutGuard(t *testing.T) {
	svc, repo, _ := newUserFixture(t)
	repo.add(domain.User{ID: 2, Username: "former", Role: domain.RoleAdmin, IsActive: false})

	state, err := svc.ToggleActive(context.Background(), "root", 2)
	if err != nil {
		t.Fatalf("ToggleActive returned error: %v", err)
	}
	if !state {
		t.Fatal("expected account to be reactivated")
	}
}

func TestDeleteGuardsLastAdmin(t *testing.T) {
	svc, repo, publisher := newUserFixture(t)
	repo.add(domain.User{ID: 1, Username: "root", Role: domain.RoleAdmin, IsActive: true})
	repo.add(domain.User{ID: 2, Username: "clerk", Role: domain.RoleUser, IsActive: true})

	if err := svc.Delete(context.Background(), "root", 1); !errors.Is(err, ErrLastAdminDelete) {
		t.Fatalf("expected ErrLastAdminDelete, got %v", err)
	}
	if len(repo.softDeleted) != 0 {
		t.Fatal("guarded account must not be deleted")
	}

	if err := svc.Delete(context.Background(), "root", 2); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if len(repo.softDeleted) != 1 || repo.softDeleted[0] != 2 {
		t.Fatalf("unexpected soft deletes: %v", repo.softDeleted)
	}
	if len(publisher.userDeleted) != 1 {
		t.Fatalf("expected one deleted event, got %d", len(publisher.userDeleted))
	}
}

func TestDeleteUnknownUser(t *testing.T) {
	svc, _, _ := newUserFixture(t)

	if err := svc.Delete(context.Background(), "root", 404); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestResetPasswordGeneratesAndStores(t *testing.T) {
	svc, repo, publisher := newUserFixture(t)
	repo.add(domain.User{ID: 3, Username: "jdoe", Role: domain.RoleUser, IsActive: true})

	password, err := svc.ResetPassword(context.Background(), "admin", 3)
	if err != nil {
		t.Fatalf("ResetPassword returned error: %v", err)
	}

	if len(password) != 12 {
		t.Fatalf("expected a 12 character password, got %d", len(password))
	}

	hash, ok := repo.passwordHashes[3]
	if !ok {
		t.Fatal("new hash was not stored")
	}
	verified, err := security.VerifyPassword(password, hash)
	if err != nil || !verified {
		t.Fatalf("generated password does not verify: ok=%v err=%v", verified, err)
	}

	if len(publisher.passwordReset) != 1 {
		t.Fatalf("expected one reset event, got %d", len(publisher.passwordReset))
	}
	if publisher.passwordReset[0].ResetBy != "admin" {
		t.Fatalf("unexpected reset actor: %s", publisher.passwordReset[0].ResetBy)
	}

	if _, err := svc.ResetPassword(context.Background(), "admin", 404); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
