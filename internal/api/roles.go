package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/fleetgate/internal/role"
)

type roleRequest struct {
	Name        role.Name `json:"name"`
	Description string    `json:"description"`
}

// handleListRoles returns all roles.
func (s *Server) handleListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := s.roleRepo.List(r.Context())
	if err != nil {
		s.logger.Error("list roles failed", "error", err)
		writeInternalError(w, "failed to list roles")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"roles": roles,
		"count": len(roles),
	})
}

// handleCreateRole creates a new role.
func (s *Server) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeValidationError(w, "name is required")
		return
	}

	newRole := &role.Role{Name: req.Name, Description: req.Description}
	if err := s.roleRepo.Create(r.Context(), newRole); err != nil {
		if errors.Is(err, role.ErrNameExists) {
			writeConflict(w, "role name already exists")
			return
		}
		s.logger.Error("create role failed", "error", err)
		writeInternalError(w, "failed to create role")
		return
	}

	claims := claimsFromContext(r.Context())
	s.auditLog("create", "role", strconv.FormatInt(newRole.ID, 10), claims.Subject, map[string]any{"name": newRole.Name})

	writeJSON(w, http.StatusCreated, newRole)
}

// handleGetRole returns a single role by ID.
func (s *Server) handleGetRole(w http.ResponseWriter, r *http.Request) {
	id, ok := roleIDParam(w, r)
	if !ok {
		return
	}

	got, err := s.roleRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, role.ErrNotFound) {
			writeNotFound(w, "role not found")
			return
		}
		s.logger.Error("get role failed", "error", err)
		writeInternalError(w, "failed to get role")
		return
	}

	writeJSON(w, http.StatusOK, got)
}

// handleUpdateRole modifies a role's name and description.
func (s *Server) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := roleIDParam(w, r)
	if !ok {
		return
	}

	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	got, err := s.roleRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, role.ErrNotFound) {
			writeNotFound(w, "role not found")
			return
		}
		s.logger.Error("get role failed", "error", err)
		writeInternalError(w, "failed to update role")
		return
	}

	if req.Name != "" {
		got.Name = req.Name
	}
	if req.Description != "" {
		got.Description = req.Description
	}

	if err := s.roleRepo.Update(r.Context(), got); err != nil {
		if errors.Is(err, role.ErrNameExists) {
			writeConflict(w, "role name already exists")
			return
		}
		s.logger.Error("update role failed", "error", err)
		writeInternalError(w, "failed to update role")
		return
	}

	claims := claimsFromContext(r.Context())
	s.auditLog("update", "role", strconv.FormatInt(got.ID, 10), claims.Subject, nil)

	writeJSON(w, http.StatusOK, got)
}

// handleDeleteRole removes a role. Fails while users still hold it.
func (s *Server) handleDeleteRole(w http.ResponseWriter, r *http.Request) {
	id, ok := roleIDParam(w, r)
	if !ok {
		return
	}

	if err := s.roleRepo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, role.ErrNotFound) {
			writeNotFound(w, "role not found")
			return
		}
		// FOREIGN KEY failure: users still reference this role.
		writeConflict(w, "role is still assigned to users")
		return
	}

	claims := claimsFromContext(r.Context())
	s.auditLog("delete", "role", strconv.FormatInt(id, 10), claims.Subject, nil)

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// roleIDParam parses the {id} URL parameter as a role ID.
func roleIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeBadRequest(w, "invalid role id")
		return 0, false
	}
	return id, true
}
