package model

import "time"

// Role values stored in users.role.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User represents an application user record as stored in the
// `users` table.  PasswordHash is never serialised; handlers expose
// UserSummary instead.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Name         – display name.
//  Username     – unique login name.
//  Email        – unique email address (lower-cased).
//  PasswordHash – bcrypt hashed password.
//  Role         – USER or ADMIN.
//  IsActive     – whether the account may log in.
type User struct {
	ID           uint64    `json:"id"`        // users.id
	Name         string    `json:"name"`      // users.name
	Username     string    `json:"username"`  // users.username
	Email        string    `json:"email"`     // users.email
	PasswordHash string    `json:"-"`         // users.password_hash
	Role         string    `json:"role"`      // users.role
	IsActive     bool      `json:"isActive"`  // users.is_active
	CreatedAt    time.Time `json:"createdAt"` // users.created_at
	UpdatedAt    time.Time `json:"updatedAt"` // users.updated_at
}

// UserSummary is the redacted view of a user returned by auth endpoints.
type UserSummary struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Summary strips credentials and bookkeeping fields from u.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Username: u.Username, Email: u.Email, Role: u.Role}
}
