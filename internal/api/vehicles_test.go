package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nerrad567/fleetgate/internal/vehicle"
)

func TestCreateVehicle_UppercasesVIN(t *testing.T) {
	srv, router := testServer(t)

	token, _, _ := registerAccount(t, srv, router, "USER", "driver@example.com", "0712345678")

	body := `{"vin":"1hgbh41jxmn109186","make":"Honda","model":"Civic","year":2019}`
	req := authedRequest(http.MethodPost, "/api/v1/vehicles", body, token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	var created vehicle.Vehicle
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if created.VIN != "1HGBH41JXMN109186" {
		t.Errorf("vin = %q, want uppercased", created.VIN)
	}
	if created.ID == "" {
		t.Error("expected vehicle ID to be generated")
	}
}

func TestCreateVehicle_DuplicateVIN(t *testing.T) {
	srv, router := testServer(t)

	token, _, _ := registerAccount(t, srv, router, "USER", "driver@example.com", "0712345678")
	createTestVehicle(t, router, token, "1HGBH41JXMN109186")

	body := `{"vin":"1HGBH41JXMN109186","make":"Honda","model":"Civic","year":2019}`
	req := authedRequest(http.MethodPost, "/api/v1/vehicles", body, token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d; body: %s", w.Code, http.StatusConflict, w.Body.String())
	}
}

func TestCreateVehicle_Validation(t *testing.T) {
	srv, router := testServer(t)

	token, _, _ := registerAccount(t, srv, router, "USER", "driver@example.com", "0712345678")

	tests := []struct {
		name string
		body string
	}{
		{"vin too short", `{"vin":"SHORT","make":"Honda","model":"Civic","year":2019}`},
		{"vin with I", `{"vin":"IHGBH41JXMN109186","make":"Honda","model":"Civic","year":2019}`},
		{"missing make", `{"vin":"1HGBH41JXMN109186","make":"","model":"Civic","year":2019}`},
		{"missing model", `{"vin":"1HGBH41JXMN109186","make":"Honda","model":"","year":2019}`},
		{"year before first car", `{"vin":"1HGBH41JXMN109186","make":"Honda","model":"Civic","year":1885}`},
		{"year in the future", `{"vin":"1HGBH41JXMN109186","make":"Honda","model":"Civic","year":3000}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := authedRequest(http.MethodPost, "/api/v1/vehicles", tt.body, token)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d; body: %s", w.Code, http.StatusBadRequest, w.Body.String())
			}
		})
	}
}

func TestUpdateVehicle(t *testing.T) {
	srv, router := testServer(t)

	token, _, _ := registerAccount(t, srv, router, "USER", "driver@example.com", "0712345678")
	id := createTestVehicle(t, router, token, "1HGBH41JXMN109186")

	body := `{"model":"Ranger","year":2023}`
	req := authedRequest(http.MethodPatch, "/api/v1/vehicles/"+id, body, token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var updated vehicle.Vehicle
	if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if updated.Model != "Ranger" {
		t.Errorf("model = %q, want Ranger", updated.Model)
	}
	if updated.Year != 2023 {
		t.Errorf("year = %d, want 2023", updated.Year)
	}
	if updated.Make != "Ford" {
		t.Errorf("make = %q, want Ford (untouched)", updated.Make)
	}
}

func TestDeleteVehicle(t *testing.T) {
	srv, router := testServer(t)

	token, _, _ := registerAccount(t, srv, router, "USER", "driver@example.com", "0712345678")
	id := createTestVehicle(t, router, token, "1HGBH41JXMN109186")

	req := authedRequest(http.MethodDelete, "/api/v1/vehicles/"+id, "", token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	req = authedRequest(http.MethodGet, "/api/v1/vehicles/"+id, "", token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestGetVehicle_NotFound(t *testing.T) {
	srv, router := testServer(t)

	token, _, _ := registerAccount(t, srv, router, "USER", "driver@example.com", "0712345678")

	req := authedRequest(http.MethodGet, "/api/v1/vehicles/nonexistent-id", "", token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
