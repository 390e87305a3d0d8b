package audit

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "audit-test-*.db")
	if err != nil {
		t.Fatalf("creating temp db: %v", err)
	}
	dbPath := f.Name()
	f.Close()
	t.Cleanup(func() { os.Remove(dbPath) })

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
		CREATE TABLE audit_logs (
			id TEXT PRIMARY KEY,
			action TEXT NOT NULL,
			entity_type TEXT NOT NULL,
			entity_id TEXT,
			user_id TEXT,
			source TEXT NOT NULL DEFAULT 'api',
			details TEXT,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("applying audit schema: %v", err)
	}

	return db
}

func TestCreate(t *testing.T) {
	repo := NewSQLiteRepository(testDB(t))

	log := &AuditLog{
		Action:     "login",
		EntityType: "session",
		UserID:     "user-1",
		Details:    map[string]any{"ip": "10.0.0.1"},
	}
	if err := repo.Create(context.Background(), log); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if log.ID == "" {
		t.Error("Create() did not generate an ID")
	}
	if log.CreatedAt.IsZero() {
		t.Error("Create() did not set CreatedAt")
	}

	result, err := repo.List(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Total != 1 {
		t.Fatalf("Total = %d, want 1", result.Total)
	}
	got := result.Logs[0]
	if got.Action != "login" || got.UserID != "user-1" {
		t.Errorf("got %+v", got)
	}
	if got.Details["ip"] != "10.0.0.1" {
		t.Errorf("details = %v, want ip 10.0.0.1", got.Details)
	}
}

func TestList_Filters(t *testing.T) {
	repo := NewSQLiteRepository(testDB(t))

	entries := []AuditLog{
		{Action: "register", EntityType: "user", EntityID: "u1", UserID: "u1"},
		{Action: "login", EntityType: "session", UserID: "u1"},
		{Action: "create", EntityType: "vehicle", EntityID: "v1", UserID: "admin"},
		{Action: "delete", EntityType: "vehicle", EntityID: "v1", UserID: "admin"},
	}
	for i := range entries {
		entries[i].CreatedAt = time.Now().UTC().Add(time.Duration(i) * time.Second)
		if err := repo.Create(context.Background(), &entries[i]); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 4},
		{"by action", Filter{Action: "login"}, 1},
		{"by entity type", Filter{EntityType: "vehicle"}, 2},
		{"by entity id", Filter{EntityType: "vehicle", EntityID: "v1"}, 2},
		{"by user", Filter{UserID: "admin"}, 2},
		{"no match", Filter{Action: "logout"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := repo.List(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if result.Total != tt.want {
				t.Errorf("Total = %d, want %d", result.Total, tt.want)
			}
			if len(result.Logs) != tt.want {
				t.Errorf("len(Logs) = %d, want %d", len(result.Logs), tt.want)
			}
		})
	}
}

func TestList_Pagination(t *testing.T) {
	repo := NewSQLiteRepository(testDB(t))

	for i := 0; i < 5; i++ {
		log := &AuditLog{
			Action:     "create",
			EntityType: "vehicle",
			CreatedAt:  time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		if err := repo.Create(context.Background(), log); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	result, err := repo.List(context.Background(), Filter{Limit: 2, Offset: 0})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Total != 5 {
		t.Errorf("Total = %d, want 5", result.Total)
	}
	if len(result.Logs) != 2 {
		t.Errorf("len(Logs) = %d, want 2", len(result.Logs))
	}

	// Most recent first.
	if result.Logs[0].CreatedAt.Before(result.Logs[1].CreatedAt) {
		t.Error("List() not ordered most recent first")
	}

	result, err = repo.List(context.Background(), Filter{Limit: 2, Offset: 4})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(result.Logs) != 1 {
		t.Errorf("len(Logs) at tail = %d, want 1", len(result.Logs))
	}
}

func TestList_ClampsLimit(t *testing.T) {
	repo := NewSQLiteRepository(testDB(t))

	result, err := repo.List(context.Background(), Filter{Limit: 1000})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Limit != maxLimit {
		t.Errorf("Limit = %d, want %d", result.Limit, maxLimit)
	}

	result, err = repo.List(context.Background(), Filter{Limit: -1, Offset: -5})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Limit != defaultLimit {
		t.Errorf("Limit = %d, want %d", result.Limit, defaultLimit)
	}
	if result.Offset != 0 {
		t.Errorf("Offset = %d, want 0", result.Offset)
	}
}
