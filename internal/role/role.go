package role

import (
	"errors"
	"time"
)

// Name identifies an authorisation tier in the system.
type Name string

const (
	// Admin has full control: user, role, and vehicle management plus
	// the audit trail.
	Admin Name = "ADMIN"

	// User is a standard account. Can manage vehicles and its own
	// vehicle assignments.
	User Name = "USER"

	// Master is a supervisory account with the same vehicle access as
	// User. Reserved for fleet supervisors.
	Master Name = "MASTER"
)

// SeedNames is the set of roles guaranteed to exist after startup.
var SeedNames = []Name{Admin, User, Master}

// IsValid returns true if the name is one of the known roles.
func IsValid(n Name) bool {
	for _, v := range SeedNames {
		if n == v {
			return true
		}
	}
	return false
}

// Role represents an authorisation tier record.
type Role struct {
	ID          int64     `json:"id"`
	Name        Name      `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Sentinel errors for role operations.
var (
	ErrNotFound   = errors.New("role not found")
	ErrNameExists = errors.New("role name already exists")
)
