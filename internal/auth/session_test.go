package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/nerrad567/fleetgate/internal/infrastructure/redis"
)

func sessionStoreWithServer(t *testing.T, ttl time.Duration) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := redis.Connect(redis.Config{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("connecting to miniredis: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return NewSessionStore(client, ttl), mr
}

func TestSessionStore_SaveGet(t *testing.T) {
	store, mr := sessionStoreWithServer(t, time.Hour)
	ctx := context.Background()

	if err := store.Save(ctx, "user-1", "token-a"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// Key shape is part of the contract.
	if !mr.Exists("subject:user-1:refresh") {
		t.Error("expected key subject:user-1:refresh to exist")
	}

	token, found, err := store.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found || token != "token-a" {
		t.Errorf("Get() = (%q, %v), want (token-a, true)", token, found)
	}
}

func TestSessionStore_SaveReplaces(t *testing.T) {
	store, _ := sessionStoreWithServer(t, time.Hour)
	ctx := context.Background()

	if err := store.Save(ctx, "user-1", "token-a"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Save(ctx, "user-1", "token-b"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	token, _, err := store.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if token != "token-b" {
		t.Errorf("Get() = %q, want token-b", token)
	}
}

func TestSessionStore_Expiry(t *testing.T) {
	store, mr := sessionStoreWithServer(t, time.Minute)
	ctx := context.Background()

	if err := store.Save(ctx, "user-1", "token-a"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	mr.FastForward(2 * time.Minute)

	_, found, err := store.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Get() found = true after TTL expiry")
	}
}

func TestSessionStore_Delete(t *testing.T) {
	store, _ := sessionStoreWithServer(t, time.Hour)
	ctx := context.Background()

	if err := store.Save(ctx, "user-1", "token-a"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	existed, err := store.Delete(ctx, "user-1")
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if !existed {
		t.Error("Delete() = false, want true for live session")
	}

	existed, err = store.Delete(ctx, "user-1")
	if err != nil {
		t.Fatalf("Delete() second call error = %v", err)
	}
	if existed {
		t.Error("Delete() = true, want false when no session")
	}
}
