package domain

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ValidRole reports whether role is one of the roles the system issues.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

// User models an authenticated account. The password hash never leaves the
// server: it is excluded from every JSON rendering.
type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	Username     string         `json:"username"`
	PasswordHash string         `json:"-"`
	FirstName    string         `json:"firstName,omitempty"`
	LastName     string         `json:"lastName,omitempty"`
	Role         string         `json:"role"`
	IsActive     bool           `json:"isActive"`
	IsVerified   bool           `json:"isVerified"`
	Preferences  map[string]any `json:"preferences,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	LastLogin    *time.Time     `json:"lastLogin,omitempty"`
	LoginCount   int64          `json:"loginCount"`
}
