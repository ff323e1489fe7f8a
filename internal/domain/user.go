package domain

import "time"

// Role enumerates the access levels a user can hold.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleCustomer  Role = "CUSTOMER"
	RoleModerator Role = "MODERATOR"
)

// ParseRole maps a raw string to a known role.
func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleAdmin, RoleCustomer, RoleModerator:
		return Role(raw), true
	default:
		return "", false
	}
}

// User is the domain model for authenticated identities.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         Role
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
