package domain

// Role defines the capability tier of a user account.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleUser:
		return true
	}
	return false
}

// Permissions is the capability set attached to a role.
type Permissions struct {
	CanCreate      bool
	CanEdit        bool
	CanDelete      bool
	CanApprove     bool
	CanViewAll     bool
	CanExport      bool
	CanManageUsers bool
}

// PermissionsForRole resolves the static role capability table. Unknown
// roles get the regular user set.
func PermissionsForRole(r Role) Permissions {
	switch r {
	case RoleAdmin:
		return Permissions{
			CanCreate:      true,
			CanEdit:        true,
			CanDelete:      true,
			CanApprove:     true,
			CanViewAll:     true,
			CanExport:      true,
			CanManageUsers: true,
		}
	case RoleManager:
		return Permissions{
			CanCreate:  true,
			CanEdit:    true,
			CanApprove: true,
			CanViewAll: true,
			CanExport:  true,
		}
	default:
		return Permissions{
			CanCreate: true,
			CanEdit:   true,
		}
	}
}
