package auth

import (
	"database/sql"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/mattn/go-sqlite3"

	"github.com/nerrad567/fleetgate/internal/infrastructure/redis"
	"github.com/nerrad567/fleetgate/internal/role"
	"github.com/nerrad567/fleetgate/internal/user"
)

const (
	testAccessSecret  = "test-access-secret-0123456789abcdef"
	testRefreshSecret = "test-refresh-secret-0123456789abcdef"
)

// testDB creates a temporary SQLite database with the identity schema
// applied and the standard roles seeded.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "auth-test-*.db")
	if err != nil {
		t.Fatalf("creating temp db: %v", err)
	}
	dbPath := f.Name()
	f.Close()
	t.Cleanup(func() { os.Remove(dbPath) })

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
		CREATE TABLE roles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;

		CREATE TABLE users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			number TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role_id INTEGER NOT NULL,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			FOREIGN KEY (role_id) REFERENCES roles(id)
		) STRICT;

		INSERT INTO roles (name, description) VALUES
			('ADMIN', 'ADMIN role'),
			('USER', 'USER role'),
			('MASTER', 'MASTER role');
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("applying schema: %v", err)
	}

	return db
}

// testSessionStore creates a session store backed by miniredis.
func testSessionStore(t *testing.T, ttl time.Duration) *SessionStore {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := redis.Connect(redis.Config{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("connecting to miniredis: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return NewSessionStore(client, ttl)
}

// testService wires a full auth service over temp SQLite and miniredis.
func testService(t *testing.T) (*Service, user.Repository, role.Repository) {
	t.Helper()

	db := testDB(t)
	users := user.NewRepository(db)
	roles := role.NewRepository(db)
	issuer := NewTokenIssuer(testAccessSecret, testRefreshSecret, 15*time.Minute, 7*24*time.Hour)
	sessions := testSessionStore(t, issuer.RefreshTTL())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewService(users, roles, issuer, sessions, logger), users, roles
}
