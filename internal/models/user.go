package models

import "time"

type Role string

const (
	RoleEditor     Role = "editor"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// rank gives the position of a role in the hierarchy
// editor < admin < super_admin. Unknown roles rank below everything.
func (r Role) rank() int {
	switch r {
	case RoleEditor:
		return 0
	case RoleAdmin:
		return 1
	case RoleSuperAdmin:
		return 2
	default:
		return -1
	}
}

func (r Role) Valid() bool {
	return r.rank() >= 0
}

// AtLeast reports whether r grants every permission of min.
func (r Role) AtLeast(min Role) bool {
	return r.rank() >= 0 && r.rank() >= min.rank()
}

type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash []byte
	FullName     string
	Role         Role
	IsActive     bool
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
