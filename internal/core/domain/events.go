package domain

import "time"

// AuthorityCreatedEvent represents the payload for ams.authority.created messages.
type AuthorityCreatedEvent struct {
	EventID        string
	AuthorityID    int64
	EmployeeID     int64
	ApprovalTypeID int64
	CompanyID      *int64
	ValidFrom      time.Time
	ValidTo        *time.Time
	MaxAmount      *float64
	CreatedBy      string
	CreatedAt      time.Time
	Metadata       map[string]any
}

// AuthorityUpdatedEvent represents the payload for ams.authority.updated messages.
type AuthorityUpdatedEvent struct {
	EventID     string
	AuthorityID int64
	ModifiedBy  string
	ModifiedAt  time.Time
	Metadata    map[string]any
}

// AuthorityStatusChangedEvent represents the payload for ams.authority.status_changed messages.
type AuthorityStatusChangedEvent struct {
	EventID     string
	AuthorityID int64
	IsActive    bool
	ChangedBy   string
	ChangedAt   time.Time
	Metadata    map[string]any
}

// AuthorityDeletedEvent represents the payload for ams.authority.deleted messages.
type AuthorityDeletedEvent struct {
	EventID     string
	AuthorityID int64
	DeletedBy   string
	DeletedAt   time.Time
	Metadata    map[string]any
}

// UserCreatedEvent represents the payload for ams.user.created messages.
type UserCreatedEvent struct {
	EventID   string
	UserID    int64
	Username  string
	Role      string
	CreatedBy string
	CreatedAt time.Time
	Metadata  map[string]any
}

// UserStatusChangedEvent represents the payload for ams.user.status_changed messages.
type UserStatusChangedEvent struct {
	EventID   string
	UserID    int64
	IsActive  bool
	ChangedBy string
	ChangedAt time.Time
	Metadata  map[string]any
}

// UserDeletedEvent represents the payload for ams.user.deleted messages.
type UserDeletedEvent struct {
	EventID   string
	UserID    int64
	DeletedBy string
	DeletedAt time.Time
	Metadata  map[string]any
}

// UserLoggedInEvent represents the payload for ams.user.logged_in messages.
type UserLoggedInEvent struct {
	EventID  string
	UserID   int64
	Username string
	LoginAt  time.Time
	Metadata map[string]any
}

// PasswordChangedEvent represents the payload for ams.user.password.changed messages.
type PasswordChangedEvent struct {
	EventID   string
	UserID    int64
	ChangedAt time.Time
	ChangedBy string
	Metadata  map[string]any
}

// PasswordResetEvent represents the payload for ams.user.password.reset messages.
type PasswordResetEvent struct {
	EventID  string
	UserID   int64
	ResetBy  string
	ResetAt  time.Time
	Metadata map[string]any
}
