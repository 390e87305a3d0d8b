package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nerrad567/fleetgate/internal/role"
	"github.com/nerrad567/fleetgate/internal/user"
)

// AdminSeed holds the initial admin credentials from configuration.
type AdminSeed struct {
	Email    string
	Password string
	Number   string
}

// Seed ensures the standard roles exist and, when admin credentials are
// configured, that the admin account does too. Idempotent: safe to run
// on every startup.
func Seed(ctx context.Context, roles role.Repository, users user.Repository, admin AdminSeed, logger *slog.Logger) error {
	var adminRole *role.Role

	for _, name := range role.SeedNames {
		r, err := roles.Upsert(ctx, name, string(name)+" role")
		if err != nil {
			return fmt.Errorf("seeding role %s: %w", name, err)
		}
		if name == role.Admin {
			adminRole = r
		}
	}
	logger.Info("roles seeded", "count", len(role.SeedNames))

	if admin.Email == "" || admin.Password == "" || admin.Number == "" {
		logger.Info("admin credentials not configured, skipping admin seed")
		return nil
	}

	_, err := users.GetByEmail(ctx, admin.Email)
	if err == nil {
		logger.Info("admin account exists, skipping admin seed")
		return nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return fmt.Errorf("checking admin account: %w", err)
	}

	hash, err := HashPassword(admin.Password)
	if err != nil {
		return fmt.Errorf("hashing admin password: %w", err)
	}

	u := &user.User{
		Email:        admin.Email,
		Number:       admin.Number,
		PasswordHash: hash,
		RoleID:       adminRole.ID,
		Role:         adminRole.Name,
	}
	if err := users.Create(ctx, u); err != nil {
		return fmt.Errorf("creating admin account: %w", err)
	}

	logger.Warn("admin account seeded",
		"email", admin.Email,
		"action_required", "rotate this password after first login",
	)
	return nil
}
