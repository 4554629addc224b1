package domain

import "time"

// Role enumerates what a user may do in the helpdesk.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleUser       Role = "user"
	RoleTechnician Role = "technician"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleTechnician:
		return true
	}
	return false
}

// User is a registered account without its credential. It is also the
// value stored as a session.
type User struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Telephone  string    `json:"telephone,omitempty"`
	Department string    `json:"department,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	Role       Role      `json:"role,omitempty"`
}

// EffectiveRole treats a missing role as RoleUser.
func (u User) EffectiveRole() Role {
	if u.Role == "" {
		return RoleUser
	}
	return u.Role
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.EffectiveRole() == RoleAdmin
}

// IsTechnician reports whether the user holds the technician role.
func (u User) IsTechnician() bool {
	return u.EffectiveRole() == RoleTechnician
}

// UserRecord is the persisted form of a user, credential included.
type UserRecord struct {
	User
	PasswordHash string `json:"password"`
}
