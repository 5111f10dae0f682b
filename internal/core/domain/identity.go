package domain

import (
	"fmt"
	"time"
)

// EmployeeStatus enumerates possible employment states.
type EmployeeStatus string

const (
	EmployeeStatusActive   EmployeeStatus = "ACTIVE"
	EmployeeStatusInactive EmployeeStatus = "INACTIVE"
)

// User mirrors the persisted representation in the users table.
type User struct {
	ID           int64
	Username     string
	Email        *string
	PasswordHash string
	Role         Role
	EmployeeID   *int64
	IsActive     bool
	LastLogin    *time.Time
	CreatedAt    time.Time
	CreatedBy    *string
	ModifiedAt   *time.Time
}

// UserDetail is a user joined with the linked employee's full name.
type UserDetail struct {
	User
	EmployeeName *string
}

// Employee is a person eligible to hold approval authorities.
type Employee struct {
	ID        int64
	FirstName string
	LastName  string
	Email     string
	Status    EmployeeStatus
}

// FullName joins first and last name.
func (e Employee) FullName() string {
	return fmt.Sprintf("%s %s", e.FirstName, e.LastName)
}

// DisplayName is the selection label shown in pickers.
func (e Employee) DisplayName() string {
	return fmt.Sprintf("%s %s (%s)", e.FirstName, e.LastName, e.Email)
}

// UserStats aggregates account counts for the user-management view.
type UserStats struct {
	Total        int64
	Active       int64
	Admins       int64
	Managers     int64
	Regular      int64
	RecentLogins int64
}
