package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nerrad567/fleetgate/internal/user"
)

func TestCreateUser_AsAdmin(t *testing.T) {
	srv, router := testServer(t)

	adminToken, _, _ := registerAccount(t, srv, router, "ADMIN", "admin@example.com", "0712345678")

	body := `{"email":"new@example.com","number":"0787654321","password":"password123","role":"MASTER"}`
	req := authedRequest(http.MethodPost, "/api/v1/users", body, adminToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	var created user.User
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if created.ID == "" {
		t.Error("expected user ID to be generated")
	}
	if created.Role != "MASTER" {
		t.Errorf("role = %q, want MASTER", created.Role)
	}

	// Password hash never leaves the server
	var raw map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	if _, leaked := raw["password_hash"]; leaked {
		t.Error("response must not contain password_hash")
	}
}

func TestCreateUser_DuplicateNumber(t *testing.T) {
	srv, router := testServer(t)

	adminToken, _, _ := registerAccount(t, srv, router, "ADMIN", "admin@example.com", "0712345678")

	body := `{"email":"new@example.com","number":"0712345678","password":"password123"}`
	req := authedRequest(http.MethodPost, "/api/v1/users", body, adminToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d; body: %s", w.Code, http.StatusConflict, w.Body.String())
	}
}

func TestGetUser(t *testing.T) {
	srv, router := testServer(t)

	adminToken, _, admin := registerAccount(t, srv, router, "ADMIN", "admin@example.com", "0712345678")

	req := authedRequest(http.MethodGet, "/api/v1/users/"+admin.ID, "", adminToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var got user.User
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Email != "admin@example.com" {
		t.Errorf("email = %q, want admin@example.com", got.Email)
	}
	if got.Role != "ADMIN" {
		t.Errorf("role = %q, want ADMIN", got.Role)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	srv, router := testServer(t)

	adminToken, _, _ := registerAccount(t, srv, router, "ADMIN", "admin@example.com", "0712345678")

	req := authedRequest(http.MethodGet, "/api/v1/users/nonexistent-id", "", adminToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestUpdateUser_PatchesFields(t *testing.T) {
	srv, router := testServer(t)

	adminToken, _, _ := registerAccount(t, srv, router, "ADMIN", "admin@example.com", "0712345678")
	_, _, target := registerAccount(t, srv, router, "USER", "driver@example.com", "0787654321")

	body := `{"email":"renamed@example.com","role":"MASTER"}`
	req := authedRequest(http.MethodPatch, "/api/v1/users/"+target.ID, body, adminToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var updated user.User
	if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if updated.Email != "renamed@example.com" {
		t.Errorf("email = %q, want renamed@example.com", updated.Email)
	}
	if updated.Role != "MASTER" {
		t.Errorf("role = %q, want MASTER", updated.Role)
	}
	// Untouched fields survive the patch
	if updated.Number != "0787654321" {
		t.Errorf("number = %q, want 0787654321", updated.Number)
	}
}

func TestUpdateUser_RejectsInvalidEmail(t *testing.T) {
	srv, router := testServer(t)

	adminToken, _, admin := registerAccount(t, srv, router, "ADMIN", "admin@example.com", "0712345678")

	body := `{"email":"not-an-email"}`
	req := authedRequest(http.MethodPatch, "/api/v1/users/"+admin.ID, body, adminToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestDeleteUser(t *testing.T) {
	srv, router := testServer(t)

	adminToken, _, _ := registerAccount(t, srv, router, "ADMIN", "admin@example.com", "0712345678")
	_, _, target := registerAccount(t, srv, router, "USER", "driver@example.com", "0787654321")

	req := authedRequest(http.MethodDelete, "/api/v1/users/"+target.ID, "", adminToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	// Confirm gone
	req = authedRequest(http.MethodGet, "/api/v1/users/"+target.ID, "", adminToken)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestListUsers(t *testing.T) {
	srv, router := testServer(t)

	adminToken, _, _ := registerAccount(t, srv, router, "ADMIN", "admin@example.com", "0712345678")
	registerAccount(t, srv, router, "USER", "driver@example.com", "0787654321")

	req := authedRequest(http.MethodGet, "/api/v1/users", "", adminToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if int(resp["count"].(float64)) != 2 {
		t.Errorf("count = %v, want 2", resp["count"])
	}
}

// ─── Vehicle Assignment Tests ──────────────────────────────────────

// createTestVehicle registers a vehicle through the API and returns its ID.
func createTestVehicle(t *testing.T, router http.Handler, token, vin string) string {
	t.Helper()

	body := `{"vin":"` + vin + `","make":"Ford","model":"Transit","year":2021}`
	req := authedRequest(http.MethodPost, "/api/v1/vehicles", body, token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("create vehicle status = %d, want %d; body: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	id, _ := resp["id"].(string)
	if id == "" {
		t.Fatal("expected vehicle ID to be generated")
	}
	return id
}

func TestAddUserVehicle(t *testing.T) {
	srv, router := testServer(t)

	token, _, u := registerAccount(t, srv, router, "USER", "driver@example.com", "0712345678")
	vehicleID := createTestVehicle(t, router, token, "1HGBH41JXMN109186")

	body := `{"vehicle_id":"` + vehicleID + `"}`
	req := authedRequest(http.MethodPost, "/api/v1/users/"+u.ID+"/vehicles", body, token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("assign status = %d, want %d; body: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	// Listed under the user
	req = authedRequest(http.MethodGet, "/api/v1/users/"+u.ID+"/vehicles", "", token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if int(resp["count"].(float64)) != 1 {
		t.Errorf("count = %v, want 1", resp["count"])
	}
}

func TestAddUserVehicle_Duplicate(t *testing.T) {
	srv, router := testServer(t)

	token, _, u := registerAccount(t, srv, router, "USER", "driver@example.com", "0712345678")
	vehicleID := createTestVehicle(t, router, token, "1HGBH41JXMN109186")

	body := `{"vehicle_id":"` + vehicleID + `"}`
	req := authedRequest(http.MethodPost, "/api/v1/users/"+u.ID+"/vehicles", body, token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("first assign status = %d, want %d", w.Code, http.StatusCreated)
	}

	req = authedRequest(http.MethodPost, "/api/v1/users/"+u.ID+"/vehicles", body, token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("second assign status = %d, want %d; body: %s", w.Code, http.StatusConflict, w.Body.String())
	}
}

func TestAddUserVehicle_UnknownVehicle(t *testing.T) {
	srv, router := testServer(t)

	token, _, u := registerAccount(t, srv, router, "USER", "driver@example.com", "0712345678")

	body := `{"vehicle_id":"nonexistent-id"}`
	req := authedRequest(http.MethodPost, "/api/v1/users/"+u.ID+"/vehicles", body, token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d; body: %s", w.Code, http.StatusNotFound, w.Body.String())
	}
}
