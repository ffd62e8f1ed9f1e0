package models

import "time"

const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

type User struct {
	ID                  string
	Email               string
	UserName            string
	Password            string
	FailedLoginAttempts int
	LockoutEnd          *time.Time
	Roles               []string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type Role struct {
	ID   string
	Name string
}

type PasswordResetToken struct {
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the token can no longer be redeemed at now.
func (t *PasswordResetToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
