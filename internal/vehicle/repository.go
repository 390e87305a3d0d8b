package vehicle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const selectColumns = "id, vin, make, model, year, created_at, updated_at"

// Repository defines the interface for vehicle persistence.
type Repository interface {
	Create(ctx context.Context, v *Vehicle) error
	GetByID(ctx context.Context, id string) (*Vehicle, error)
	GetByVIN(ctx context.Context, vin string) (*Vehicle, error)
	List(ctx context.Context) ([]Vehicle, error)
	Update(ctx context.Context, v *Vehicle) error
	Delete(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewRepository creates a new SQLite-backed vehicle repository.
func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a new vehicle. The ID is generated if empty.
func (r *SQLiteRepository) Create(ctx context.Context, v *Vehicle) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}

	now := time.Now().UTC().Format(time.RFC3339)
	v.CreatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled
	v.UpdatedAt = v.CreatedAt

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO vehicles (id, vin, make, model, year, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.VIN, v.Make, v.Model, v.Year, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrVINExists
		}
		return fmt.Errorf("creating vehicle: %w", err)
	}

	return nil
}

// GetByID retrieves a vehicle by its unique ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Vehicle, error) {
	return r.getVehicle(ctx,
		"SELECT "+selectColumns+" FROM vehicles WHERE id = ?", id)
}

// GetByVIN retrieves a vehicle by its VIN.
func (r *SQLiteRepository) GetByVIN(ctx context.Context, vin string) (*Vehicle, error) {
	return r.getVehicle(ctx,
		"SELECT "+selectColumns+" FROM vehicles WHERE vin = ?", vin)
}

// List returns all vehicles ordered by creation date.
func (r *SQLiteRepository) List(ctx context.Context) ([]Vehicle, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+selectColumns+" FROM vehicles ORDER BY created_at ASC")
	if err != nil {
		return nil, fmt.Errorf("listing vehicles: %w", err)
	}
	defer rows.Close()

	return collectVehicles(rows)
}

// Update modifies a vehicle's mutable fields (vin, make, model, year).
func (r *SQLiteRepository) Update(ctx context.Context, v *Vehicle) error {
	now := time.Now().UTC().Format(time.RFC3339)
	v.UpdatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled

	result, err := r.db.ExecContext(ctx,
		`UPDATE vehicles SET vin = ?, make = ?, model = ?, year = ?, updated_at = ? WHERE id = ?`,
		v.VIN, v.Make, v.Model, v.Year, now, v.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrVINExists
		}
		return fmt.Errorf("updating vehicle: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a vehicle by ID. Ownership links cascade.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM vehicles WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting vehicle: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// getVehicle executes a query and scans a single vehicle result.
func (r *SQLiteRepository) getVehicle(ctx context.Context, query string, args ...any) (*Vehicle, error) {
	row := r.db.QueryRowContext(ctx, query, args...)
	return ScanFrom(row)
}

// collectVehicles drains a result set into a slice.
func collectVehicles(rows *sql.Rows) ([]Vehicle, error) {
	var vehicles []Vehicle
	for rows.Next() {
		v, err := ScanFrom(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vehicles: %w", err)
	}

	if vehicles == nil {
		vehicles = []Vehicle{}
	}
	return vehicles, nil
}

// Scanner is satisfied by both sql.Row and sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// ScanFrom scans a vehicle row in selectColumns order. Exported so the
// user repository can reuse it when joining through user_vehicles.
func ScanFrom(s Scanner) (*Vehicle, error) {
	var v Vehicle
	var createdAt, updatedAt string

	err := s.Scan(&v.ID, &v.VIN, &v.Make, &v.Model, &v.Year, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning vehicle: %w", err)
	}

	v.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	v.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

	return &v, nil
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
