package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/fleetgate/internal/role"
)

// buildRouter creates the HTTP router with all routes and middleware.
//
// The authorization gate is assembled from two chi middlewares: the
// identity stage (authMiddleware) wraps the whole protected group, and
// the role stage (requireRoles) wraps each route subtree with its
// allow-list. Vehicle routes declare no list, so any authenticated
// subject passes.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Auth endpoints (no auth required; logout needs a valid token)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.Post("/refresh", s.handleRefresh)

			r.Group(func(r chi.Router) {
				r.Use(s.authMiddleware)
				r.Post("/logout", s.handleLogout)
			})
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			// User management (vehicle assignment is open to all roles)
			r.Route("/users", func(r chi.Router) {
				r.Route("/{id}/vehicles", func(r chi.Router) {
					r.Use(s.requireRoles(role.Admin, role.User, role.Master))
					r.Get("/", s.handleListUserVehicles)
					r.Post("/", s.handleAddUserVehicle)
				})

				r.Group(func(r chi.Router) {
					r.Use(s.requireRoles(role.Admin))
					r.Get("/", s.handleListUsers)
					r.Post("/", s.handleCreateUser)
					r.Get("/{id}", s.handleGetUser)
					r.Patch("/{id}", s.handleUpdateUser)
					r.Delete("/{id}", s.handleDeleteUser)
				})
			})

			// Role management
			r.Route("/roles", func(r chi.Router) {
				r.Use(s.requireRoles(role.Admin))
				r.Get("/", s.handleListRoles)
				r.Post("/", s.handleCreateRole)
				r.Get("/{id}", s.handleGetRole)
				r.Patch("/{id}", s.handleUpdateRole)
				r.Delete("/{id}", s.handleDeleteRole)
			})

			// Vehicle registry (no role list: any authenticated subject)
			r.Route("/vehicles", func(r chi.Router) {
				r.Get("/", s.handleListVehicles)
				r.Post("/", s.handleCreateVehicle)
				r.Get("/{id}", s.handleGetVehicle)
				r.Patch("/{id}", s.handleUpdateVehicle)
				r.Delete("/{id}", s.handleDeleteVehicle)
			})

			// Audit trail
			r.Route("/audit", func(r chi.Router) {
				r.Use(s.requireRoles(role.Admin))
				r.Get("/", s.handleListAuditLogs)
			})
		})
	})

	return r
}

// handleHealth reports server health including backing stores.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	components := map[string]string{}
	healthy := true

	if s.db != nil {
		if err := s.db.HealthCheck(r.Context()); err != nil {
			components["database"] = "unhealthy"
			healthy = false
		} else {
			components["database"] = "ok"
		}
	}
	if s.redis != nil {
		if err := s.redis.HealthCheck(r.Context()); err != nil {
			components["redis"] = "unhealthy"
			healthy = false
		} else {
			components["redis"] = "ok"
		}
	}

	status := "ok"
	code := http.StatusOK
	if !healthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]any{
		"status":     status,
		"version":    s.version,
		"components": components,
	})
}
