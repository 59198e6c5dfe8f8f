// Package models contains the persistent row types shared by repositories
// and services.
package models

import "time"

// Role tags a user account. The set is closed; role-specific relations
// (coach-client links etc.) are modeled as separate records keyed by user id,
// not as distinct user types.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleCoach Role = "COACH"
	RoleUser  Role = "USER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCoach, RoleUser:
		return true
	}
	return false
}

// User is an account row. HashedPassword holds a bcrypt hash; the plaintext
// never reaches storage. Only active users may obtain new tokens.
type User struct {
	ID             string
	Email          string
	HashedPassword string
	FullName       string
	Role           Role
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
