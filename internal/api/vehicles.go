package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/fleetgate/internal/vehicle"
)

type createVehicleRequest struct {
	VIN   string `json:"vin"`
	Make  string `json:"make"`
	Model string `json:"model"`
	Year  int    `json:"year"`
}

type updateVehicleRequest struct {
	VIN   *string `json:"vin,omitempty"`
	Make  *string `json:"make,omitempty"`
	Model *string `json:"model,omitempty"`
	Year  *int    `json:"year,omitempty"`
}

// handleListVehicles returns all registered vehicles.
func (s *Server) handleListVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := s.vehicleRepo.List(r.Context())
	if err != nil {
		s.logger.Error("list vehicles failed", "error", err)
		writeInternalError(w, "failed to list vehicles")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"vehicles": vehicles,
		"count":    len(vehicles),
	})
}

// handleCreateVehicle registers a new vehicle.
func (s *Server) handleCreateVehicle(w http.ResponseWriter, r *http.Request) {
	var req createVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	req.VIN = strings.ToUpper(req.VIN)
	if msg, ok := validateVehicle(req.VIN, req.Make, req.Model, req.Year); !ok {
		writeValidationError(w, msg)
		return
	}

	v := &vehicle.Vehicle{VIN: req.VIN, Make: req.Make, Model: req.Model, Year: req.Year}
	if err := s.vehicleRepo.Create(r.Context(), v); err != nil {
		if errors.Is(err, vehicle.ErrVINExists) {
			writeConflict(w, "vin already registered")
			return
		}
		s.logger.Error("create vehicle failed", "error", err)
		writeInternalError(w, "failed to create vehicle")
		return
	}

	claims := claimsFromContext(r.Context())
	s.auditLog("create", "vehicle", v.ID, claims.Subject, map[string]any{"vin": v.VIN})

	writeJSON(w, http.StatusCreated, v)
}

// handleGetVehicle returns a single vehicle by ID.
func (s *Server) handleGetVehicle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	v, err := s.vehicleRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, vehicle.ErrNotFound) {
			writeNotFound(w, "vehicle not found")
			return
		}
		s.logger.Error("get vehicle failed", "error", err)
		writeInternalError(w, "failed to get vehicle")
		return
	}

	writeJSON(w, http.StatusOK, v)
}

// handleUpdateVehicle patches a vehicle's fields.
func (s *Server) handleUpdateVehicle(w http.ResponseWriter, r *http.Request) { //nolint:gocognit // field patching with per-field validation
	id := chi.URLParam(r, "id")

	var req updateVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	v, err := s.vehicleRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, vehicle.ErrNotFound) {
			writeNotFound(w, "vehicle not found")
			return
		}
		s.logger.Error("get vehicle failed", "error", err)
		writeInternalError(w, "failed to update vehicle")
		return
	}

	if req.VIN != nil {
		vin := strings.ToUpper(*req.VIN)
		if !isValidVIN(vin) {
			writeValidationError(w, "vin must be 17 characters, excluding I, O, Q")
			return
		}
		v.VIN = vin
	}
	if req.Make != nil {
		if *req.Make == "" {
			writeValidationError(w, "make cannot be empty")
			return
		}
		v.Make = *req.Make
	}
	if req.Model != nil {
		if *req.Model == "" {
			writeValidationError(w, "model cannot be empty")
			return
		}
		v.Model = *req.Model
	}
	if req.Year != nil {
		if !isValidYear(*req.Year) {
			writeValidationError(w, "year is out of range")
			return
		}
		v.Year = *req.Year
	}

	if err := s.vehicleRepo.Update(r.Context(), v); err != nil {
		if errors.Is(err, vehicle.ErrVINExists) {
			writeConflict(w, "vin already registered")
			return
		}
		s.logger.Error("update vehicle failed", "error", err)
		writeInternalError(w, "failed to update vehicle")
		return
	}

	claims := claimsFromContext(r.Context())
	s.auditLog("update", "vehicle", v.ID, claims.Subject, nil)

	writeJSON(w, http.StatusOK, v)
}

// handleDeleteVehicle removes a vehicle and its ownership links.
func (s *Server) handleDeleteVehicle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.vehicleRepo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, vehicle.ErrNotFound) {
			writeNotFound(w, "vehicle not found")
			return
		}
		s.logger.Error("delete vehicle failed", "error", err)
		writeInternalError(w, "failed to delete vehicle")
		return
	}

	claims := claimsFromContext(r.Context())
	s.auditLog("delete", "vehicle", id, claims.Subject, nil)

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// validateVehicle checks the creation rules for a vehicle record.
func validateVehicle(vin, makeName, model string, year int) (string, bool) {
	switch {
	case !isValidVIN(vin):
		return "vin must be 17 characters, excluding I, O, Q", false
	case makeName == "":
		return "make is required", false
	case model == "":
		return "model is required", false
	case !isValidYear(year):
		return "year is out of range", false
	}
	return "", true
}
