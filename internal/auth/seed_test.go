package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/nerrad567/fleetgate/internal/role"
	"github.com/nerrad567/fleetgate/internal/user"
)

func TestSeed(t *testing.T) {
	db := testDB(t)
	// Start from an empty roles table to exercise the upsert path.
	if _, err := db.Exec("DELETE FROM roles"); err != nil {
		t.Fatalf("clearing roles: %v", err)
	}

	users := user.NewRepository(db)
	roles := role.NewRepository(db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	admin := AdminSeed{Email: "admin@example.com", Password: "admin-password", Number: "0700000001"}
	if err := Seed(context.Background(), roles, users, admin, logger); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	for _, name := range role.SeedNames {
		r, err := roles.GetByName(context.Background(), name)
		if err != nil {
			t.Fatalf("role %s not seeded: %v", name, err)
		}
		if r.Description != string(name)+" role" {
			t.Errorf("role %s description = %q", name, r.Description)
		}
	}

	u, err := users.GetByEmail(context.Background(), "admin@example.com")
	if err != nil {
		t.Fatalf("admin not seeded: %v", err)
	}
	if u.Role != role.Admin {
		t.Errorf("admin role = %q, want %q", u.Role, role.Admin)
	}

	ok, err := VerifyPassword("admin-password", u.PasswordHash)
	if err != nil || !ok {
		t.Errorf("admin password does not verify: ok=%v err=%v", ok, err)
	}
}

func TestSeed_Idempotent(t *testing.T) {
	db := testDB(t)
	users := user.NewRepository(db)
	roles := role.NewRepository(db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	admin := AdminSeed{Email: "admin@example.com", Password: "admin-password", Number: "0700000001"}
	for i := 0; i < 2; i++ {
		if err := Seed(context.Background(), roles, users, admin, logger); err != nil {
			t.Fatalf("Seed() run %d error = %v", i+1, err)
		}
	}

	all, err := roles.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != len(role.SeedNames) {
		t.Errorf("roles count = %d, want %d", len(all), len(role.SeedNames))
	}

	accounts, err := users.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(accounts) != 1 {
		t.Errorf("users count = %d, want 1", len(accounts))
	}
}

func TestSeed_SkipsAdminWithoutCredentials(t *testing.T) {
	db := testDB(t)
	users := user.NewRepository(db)
	roles := role.NewRepository(db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	if err := Seed(context.Background(), roles, users, AdminSeed{}, logger); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	accounts, err := users.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(accounts) != 0 {
		t.Errorf("users count = %d, want 0", len(accounts))
	}
}
