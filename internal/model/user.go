package model

import "time"

// Role is the closed set of account roles.  Authorization code switches on
// this value; there is no role hierarchy.
type Role string

const (
	RoleCitizen Role = "citizen"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool { return r == RoleCitizen || r == RoleAdmin }

// User represents an identity record as stored in the `users` table.
// The password is only ever held as a bcrypt hash.  Role is fixed when the
// row is created.
//
// Fields:
//
//	ID           – ULID primary key, immutable.
//	Username     – unique login name.
//	Email        – contact address, not unique.
//	PasswordHash – bcrypt hash of the password.
//	Role         – citizen or admin.
//	CreatedAt    – timestamp of registration.
type User struct {
	ID           string    // users.id
	Username     string    // users.username
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         Role      // users.role
	CreatedAt    time.Time // users.created_at
}

// Caller is the authenticated identity attached to a single request.  It is
// a copy taken when the token was resolved, never a shared slot.
type Caller struct {
	ID       string
	Username string
	Email    string
	Role     Role
}

// IsAdmin reports whether the caller holds the admin role.
func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }

// CallerOf builds the request-scoped view of u.
func CallerOf(u User) Caller {
	return Caller{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}
