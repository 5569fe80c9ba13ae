package model

import "time"

// Roles carried in the bearer credential and stored on the users table.
const (
	RoleMember     = "MEMBER"
	RoleAdmin      = "ADMIN"
	RoleSuperAdmin = "SUPER_ADMIN"
)

// ValidRole reports whether r is one of the known member roles.
func ValidRole(r string) bool {
	switch r {
	case RoleMember, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Member represents a club member as stored in the `users` table. The uid
// comes from the external identity provider and is used verbatim as the
// primary key.
//
// Fields:
//  UID          – identity provider subject, primary key.
//  Email        – contact address shown to admins.
//  FirstName    – given name.
//  LastName     – family name.
//  PhotoURL     – avatar url (nullable).
//  Role         – MEMBER, ADMIN or SUPER_ADMIN.
//  TokenBalance – spendable credit, never negative.
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type Member struct {
	UID          string    // users.uid
	Email        string    // users.email
	FirstName    string    // users.first_name
	LastName     string    // users.last_name
	PhotoURL     *string   // users.photo_url (nullable)
	Role         string    // users.role
	TokenBalance int64     // users.token_balance
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}
