package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/fleetgate/internal/role"
	"github.com/nerrad567/fleetgate/internal/vehicle"
)

// selectColumns joins users to roles so every read carries the role name.
const selectColumns = `u.id, u.email, u.number, u.password_hash, u.role_id, r.name, u.created_at, u.updated_at
	 FROM users u JOIN roles r ON r.id = u.role_id`

// Repository defines the interface for user account persistence.
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailAndNumber(ctx context.Context, email, number string) (*User, error)
	ExistsByEmailOrNumber(ctx context.Context, email, number string) (bool, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id string) error
	AddVehicle(ctx context.Context, userID, vehicleID string) error
	FindVehicles(ctx context.Context, userID string) ([]vehicle.Vehicle, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewRepository creates a new SQLite-backed user repository.
func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a new user account. The ID is generated if empty.
func (r *SQLiteRepository) Create(ctx context.Context, user *User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	now := time.Now().UTC().Format(time.RFC3339)
	user.CreatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled
	user.UpdatedAt = user.CreatedAt

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, number, password_hash, role_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.Number, user.PasswordHash, user.RoleID, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailOrNumberInUse
		}
		return fmt.Errorf("creating user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their unique ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getUser(ctx, "SELECT "+selectColumns+" WHERE u.id = ?", id)
}

// GetByEmail retrieves a user by email.
func (r *SQLiteRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getUser(ctx, "SELECT "+selectColumns+" WHERE u.email = ?", email)
}

// GetByEmailAndNumber retrieves the user matching both the email and the
// phone number. Credentials must match the same account.
func (r *SQLiteRepository) GetByEmailAndNumber(ctx context.Context, email, number string) (*User, error) {
	return r.getUser(ctx, "SELECT "+selectColumns+" WHERE u.email = ? AND u.number = ?", email, number)
}

// ExistsByEmailOrNumber reports whether any account already uses the
// email or the phone number.
func (r *SQLiteRepository) ExistsByEmailOrNumber(ctx context.Context, email, number string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE email = ? OR number = ?", email, number).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking email/number uniqueness: %w", err)
	}
	return count > 0, nil
}

// List returns all users ordered by creation date.
func (r *SQLiteRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+selectColumns+" ORDER BY u.created_at ASC")
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUserFrom(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}

	if users == nil {
		users = []User{}
	}
	return users, nil
}

// Update modifies a user's mutable fields (email, number, password_hash, role_id).
func (r *SQLiteRepository) Update(ctx context.Context, user *User) error {
	now := time.Now().UTC().Format(time.RFC3339)
	user.UpdatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled

	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET email = ?, number = ?, password_hash = ?, role_id = ?, updated_at = ? WHERE id = ?`,
		user.Email, user.Number, user.PasswordHash, user.RoleID, now, user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailOrNumberInUse
		}
		return fmt.Errorf("updating user: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a user account by ID. Vehicle links cascade.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// AddVehicle links a vehicle to a user. Both must already exist.
func (r *SQLiteRepository) AddVehicle(ctx context.Context, userID, vehicleID string) error {
	now := time.Now().UTC().Format(time.RFC3339)

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_vehicles (user_id, vehicle_id, created_at) VALUES (?, ?, ?)`,
		userID, vehicleID, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrVehicleLinkExists
		}
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("linking vehicle to user: %w", err)
	}

	return nil
}

// FindVehicles returns the vehicles linked to a user, oldest link first.
func (r *SQLiteRepository) FindVehicles(ctx context.Context, userID string) ([]vehicle.Vehicle, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT v.id, v.vin, v.make, v.model, v.year, v.created_at, v.updated_at
		 FROM vehicles v
		 JOIN user_vehicles uv ON uv.vehicle_id = v.id
		 WHERE uv.user_id = ?
		 ORDER BY uv.created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing user vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []vehicle.Vehicle
	for rows.Next() {
		v, err := vehicle.ScanFrom(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user vehicles: %w", err)
	}

	if vehicles == nil {
		vehicles = []vehicle.Vehicle{}
	}
	return vehicles, nil
}

// getUser executes a query and scans a single user result.
func (r *SQLiteRepository) getUser(ctx context.Context, query string, args ...any) (*User, error) {
	row := r.db.QueryRowContext(ctx, query, args...)
	return scanUserFrom(row)
}

// scanner is an interface for sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

func scanUserFrom(s scanner) (*User, error) {
	var u User
	var roleName string
	var createdAt, updatedAt string

	err := s.Scan(&u.ID, &u.Email, &u.Number, &u.PasswordHash, &u.RoleID,
		&roleName, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}

	u.Role = role.Name(roleName)
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	u.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

	return &u, nil
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isForeignKeyViolation checks if a SQLite error is a FOREIGN KEY failure.
func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
