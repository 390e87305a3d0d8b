package vehicle

import (
	"errors"
	"time"
)

// Vehicle represents a registered vehicle identified by its VIN.
type Vehicle struct {
	ID        string    `json:"id"`
	VIN       string    `json:"vin"`
	Make      string    `json:"make"`
	Model     string    `json:"model"`
	Year      int       `json:"year"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Sentinel errors for vehicle operations.
var (
	ErrNotFound  = errors.New("vehicle not found")
	ErrVINExists = errors.New("vin already registered")
)
