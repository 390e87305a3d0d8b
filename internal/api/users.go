package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/fleetgate/internal/auth"
	"github.com/nerrad567/fleetgate/internal/role"
	"github.com/nerrad567/fleetgate/internal/user"
)

type createUserRequest struct {
	Email    string    `json:"email"`
	Number   string    `json:"number"`
	Password string    `json:"password"`
	Role     role.Name `json:"role"`
}

type updateUserRequest struct {
	Email    *string    `json:"email,omitempty"`
	Number   *string    `json:"number,omitempty"`
	Password *string    `json:"password,omitempty"`
	Role     *role.Name `json:"role,omitempty"`
}

type addVehicleRequest struct {
	VehicleID string `json:"vehicle_id"`
}

// handleListUsers returns all accounts.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.userRepo.List(r.Context())
	if err != nil {
		s.logger.Error("list users failed", "error", err)
		writeInternalError(w, "failed to list users")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"users": users,
		"count": len(users),
	})
}

// handleCreateUser creates an account with an explicit role, bypassing
// the self-service register flow. Admin only.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.Role == "" {
		req.Role = role.User
	}
	if msg, ok := validateCredentials(req.Email, req.Number, req.Password); !ok {
		writeValidationError(w, msg)
		return
	}

	targetRole, err := s.roleRepo.GetByName(r.Context(), req.Role)
	if err != nil {
		if errors.Is(err, role.ErrNotFound) {
			writeValidationError(w, "unknown role")
			return
		}
		s.logger.Error("resolve role failed", "error", err)
		writeInternalError(w, "failed to create user")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("hash password failed", "error", err)
		writeInternalError(w, "failed to create user")
		return
	}

	u := &user.User{
		Email:        req.Email,
		Number:       req.Number,
		PasswordHash: hash,
		RoleID:       targetRole.ID,
		Role:         targetRole.Name,
	}
	if err := s.userRepo.Create(r.Context(), u); err != nil {
		if errors.Is(err, user.ErrEmailOrNumberInUse) {
			writeConflict(w, "email or phone number already in use")
			return
		}
		s.logger.Error("create user failed", "error", err)
		writeInternalError(w, "failed to create user")
		return
	}

	claims := claimsFromContext(r.Context())
	s.logger.Info("user created", "user_id", u.ID, "role", u.Role, "created_by", claims.Subject)
	s.auditLog("create", "user", u.ID, claims.Subject, map[string]any{"role": u.Role})

	writeJSON(w, http.StatusCreated, u)
}

// handleGetUser returns a single account by ID.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	u, err := s.userRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			writeNotFound(w, "user not found")
			return
		}
		s.logger.Error("get user failed", "error", err)
		writeInternalError(w, "failed to get user")
		return
	}

	writeJSON(w, http.StatusOK, u)
}

// handleUpdateUser patches an account's mutable fields.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) { //nolint:gocognit // field patching with per-field validation
	id := chi.URLParam(r, "id")

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	u, err := s.userRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			writeNotFound(w, "user not found")
			return
		}
		s.logger.Error("get user failed", "error", err)
		writeInternalError(w, "failed to update user")
		return
	}

	if req.Email != nil {
		if !isValidEmail(*req.Email) {
			writeValidationError(w, "email is invalid")
			return
		}
		u.Email = *req.Email
	}
	if req.Number != nil {
		if !isValidNumber(*req.Number) {
			writeValidationError(w, "number must be 9 to 11 digits")
			return
		}
		u.Number = *req.Number
	}
	if req.Password != nil {
		if !isValidPassword(*req.Password) {
			writeValidationError(w, "password must be 8 to 50 characters")
			return
		}
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			s.logger.Error("hash password failed", "error", err)
			writeInternalError(w, "failed to update user")
			return
		}
		u.PasswordHash = hash
	}
	if req.Role != nil {
		targetRole, err := s.roleRepo.GetByName(r.Context(), *req.Role)
		if err != nil {
			if errors.Is(err, role.ErrNotFound) {
				writeValidationError(w, "unknown role")
				return
			}
			s.logger.Error("resolve role failed", "error", err)
			writeInternalError(w, "failed to update user")
			return
		}
		u.RoleID = targetRole.ID
		u.Role = targetRole.Name
	}

	if err := s.userRepo.Update(r.Context(), u); err != nil {
		if errors.Is(err, user.ErrEmailOrNumberInUse) {
			writeConflict(w, "email or phone number already in use")
			return
		}
		s.logger.Error("update user failed", "error", err)
		writeInternalError(w, "failed to update user")
		return
	}

	claims := claimsFromContext(r.Context())
	s.auditLog("update", "user", u.ID, claims.Subject, nil)

	writeJSON(w, http.StatusOK, u)
}

// handleDeleteUser removes an account.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.userRepo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			writeNotFound(w, "user not found")
			return
		}
		s.logger.Error("delete user failed", "error", err)
		writeInternalError(w, "failed to delete user")
		return
	}

	claims := claimsFromContext(r.Context())
	s.auditLog("delete", "user", id, claims.Subject, nil)

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleAddUserVehicle links a vehicle to an account.
func (s *Server) handleAddUserVehicle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req addVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.VehicleID == "" {
		writeValidationError(w, "vehicle_id is required")
		return
	}

	if err := s.userRepo.AddVehicle(r.Context(), id, req.VehicleID); err != nil {
		switch {
		case errors.Is(err, user.ErrVehicleLinkExists):
			writeConflict(w, "vehicle already assigned to user")
		case errors.Is(err, user.ErrNotFound):
			writeNotFound(w, "user or vehicle not found")
		default:
			s.logger.Error("add user vehicle failed", "error", err)
			writeInternalError(w, "failed to assign vehicle")
		}
		return
	}

	claims := claimsFromContext(r.Context())
	s.auditLog("create", "user_vehicle", req.VehicleID, claims.Subject, map[string]any{"user_id": id})

	writeJSON(w, http.StatusCreated, map[string]any{"success": true})
}

// handleListUserVehicles returns the vehicles linked to an account.
func (s *Server) handleListUserVehicles(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	vehicles, err := s.userRepo.FindVehicles(r.Context(), id)
	if err != nil {
		s.logger.Error("list user vehicles failed", "error", err)
		writeInternalError(w, "failed to list vehicles")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"vehicles": vehicles,
		"count":    len(vehicles),
	})
}
