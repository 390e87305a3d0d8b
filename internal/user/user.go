package user

import (
	"errors"
	"time"

	"github.com/nerrad567/fleetgate/internal/role"
)

// User represents a registered account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Number       string    `json:"number"`
	PasswordHash string    `json:"-"` // never serialised
	RoleID       int64     `json:"role_id"`
	Role         role.Name `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Sentinel errors for user operations.
var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailOrNumberInUse = errors.New("email or phone number already in use")
	ErrVehicleLinkExists  = errors.New("vehicle already assigned to user")
)
