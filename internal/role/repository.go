package role

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for role persistence.
type Repository interface {
	Create(ctx context.Context, role *Role) error
	GetByID(ctx context.Context, id int64) (*Role, error)
	GetByName(ctx context.Context, name Name) (*Role, error)
	List(ctx context.Context) ([]Role, error)
	Update(ctx context.Context, role *Role) error
	Delete(ctx context.Context, id int64) error
	Upsert(ctx context.Context, name Name, description string) (*Role, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewRepository creates a new SQLite-backed role repository.
func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a new role.
func (r *SQLiteRepository) Create(ctx context.Context, role *Role) error {
	now := time.Now().UTC().Format(time.RFC3339)
	role.CreatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled
	role.UpdatedAt = role.CreatedAt

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO roles (name, description, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		string(role.Name), role.Description, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrNameExists
		}
		return fmt.Errorf("creating role: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading role id: %w", err)
	}
	role.ID = id

	return nil
}

// GetByID retrieves a role by its numeric ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*Role, error) {
	return r.getRole(ctx,
		"SELECT id, name, description, created_at, updated_at FROM roles WHERE id = ?", id)
}

// GetByName retrieves a role by its unique name.
func (r *SQLiteRepository) GetByName(ctx context.Context, name Name) (*Role, error) {
	return r.getRole(ctx,
		"SELECT id, name, description, created_at, updated_at FROM roles WHERE name = ?", string(name))
}

// List returns all roles ordered by ID.
func (r *SQLiteRepository) List(ctx context.Context) ([]Role, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, description, created_at, updated_at FROM roles ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("listing roles: %w", err)
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, *role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating roles: %w", err)
	}

	if roles == nil {
		roles = []Role{}
	}
	return roles, nil
}

// Update modifies a role's name and description.
func (r *SQLiteRepository) Update(ctx context.Context, role *Role) error {
	now := time.Now().UTC().Format(time.RFC3339)
	role.UpdatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled

	result, err := r.db.ExecContext(ctx,
		`UPDATE roles SET name = ?, description = ?, updated_at = ? WHERE id = ?`,
		string(role.Name), role.Description, now, role.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrNameExists
		}
		return fmt.Errorf("updating role: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a role by ID. Fails if any user still references it.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM roles WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting role: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Upsert inserts the role if missing, otherwise refreshes its description.
// Used by the startup seed.
func (r *SQLiteRepository) Upsert(ctx context.Context, name Name, description string) (*Role, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO roles (name, description, created_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET description = excluded.description, updated_at = excluded.updated_at`,
		string(name), description, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("upserting role %q: %w", name, err)
	}

	return r.GetByName(ctx, name)
}

// getRole executes a query and scans a single role result.
func (r *SQLiteRepository) getRole(ctx context.Context, query string, args ...any) (*Role, error) {
	row := r.db.QueryRowContext(ctx, query, args...)
	return scanRoleFrom(row)
}

// scanner is an interface for sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

func scanRole(rows *sql.Rows) (*Role, error) {
	return scanRoleFrom(rows)
}

func scanRoleFrom(s scanner) (*Role, error) {
	var role Role
	var name string
	var createdAt, updatedAt string

	err := s.Scan(&role.ID, &name, &role.Description, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning role: %w", err)
	}

	role.Name = Name(name)
	role.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	role.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

	return &role, nil
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
