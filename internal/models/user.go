package models

import (
	"time"

	"github.com/google/uuid"
)

// Canonical role names, matching the rows seeded into the roles table.
const (
	RoleAdmin   = "Admin"
	RoleManager = "Gerente"
	RoleUser    = "Usuario"
)

// User is the persisted account row. PasswordHash never leaves the server;
// outward-facing code converts to UserView instead.
type User struct {
	ID                  uuid.UUID
	Username            string
	Email               string
	FullName            string
	PasswordHash        string
	TenantID            *uuid.UUID
	Active              bool
	FailedLoginAttempts int
	LockoutUntil        *time.Time
	LastLoginAt         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Locked reports whether the account is locked out at the given instant.
func (u User) Locked(now time.Time) bool {
	return u.LockoutUntil != nil && u.LockoutUntil.After(now)
}

// UserView is the outward representation of a user, safe to serialize.
type UserView struct {
	ID        uuid.UUID  `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	FullName  string     `json:"fullName,omitempty"`
	TenantID  *uuid.UUID `json:"tenantId,omitempty"`
	Roles     []string   `json:"roles"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// View assembles the outward representation of the user with its roles.
func (u User) View(roles []string) UserView {
	if roles == nil {
		roles = []string{}
	}
	return UserView{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		TenantID:  u.TenantID,
		Roles:     roles,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type Role struct {
	ID   uuid.UUID
	Name string
}
