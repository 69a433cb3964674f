package types

import "time"

// Role is the authorization level of a portal account. Roles carry no
// implied ordering; every guarded route lists the roles it admits.
type Role string

const (
	RoleSuperAdmin Role = "SUPERADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleRRHH       Role = "RRHH"
	RoleLector     Role = "LECTOR"
)

// Roles lists every valid role.
var Roles = []Role{RoleSuperAdmin, RoleAdmin, RoleRRHH, RoleLector}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// User represents a portal account.
type User struct {
	// ID is assigned by the database and never changes.
	ID int `json:"id" db:"id"`

	// Username is the unique, case-sensitive login name.
	Username string `json:"username" db:"username"`

	// Role is the authorization level of the account.
	Role Role `json:"role" db:"role"`

	// IsActive is false for deactivated accounts, which cannot log in.
	IsActive bool `json:"is_active" db:"is_active"`

	// PasswordHash stores the bcrypt hash of the password.
	// This field is never rendered.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
