// Package api provides the HTTP REST API server for Fleetgate.
//
// It exposes the authentication endpoints plus user, role, vehicle, and
// audit resources behind the two-stage authorization gate.
//
// The server follows the same lifecycle pattern as the infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/fleetgate/internal/audit"
	"github.com/nerrad567/fleetgate/internal/auth"
	"github.com/nerrad567/fleetgate/internal/infrastructure/config"
	"github.com/nerrad567/fleetgate/internal/infrastructure/database"
	"github.com/nerrad567/fleetgate/internal/infrastructure/logging"
	"github.com/nerrad567/fleetgate/internal/infrastructure/redis"
	"github.com/nerrad567/fleetgate/internal/role"
	"github.com/nerrad567/fleetgate/internal/user"
	"github.com/nerrad567/fleetgate/internal/vehicle"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// auditChanSize is the buffer size for the async audit log channel.
const auditChanSize = 256

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config      config.Config
	Logger      *logging.Logger
	Auth        *auth.Service
	UserRepo    user.Repository
	RoleRepo    role.Repository
	VehicleRepo vehicle.Repository
	AuditRepo   audit.Repository
	DB          *database.DB
	Redis       *redis.Client
	Version     string
}

// Server is the HTTP API server for Fleetgate.
//
// It manages the HTTP listener, routes, middleware, and the async audit
// writer. The server is created with New() and started with Start().
type Server struct {
	cfg         config.Config
	logger      *logging.Logger
	auth        *auth.Service
	userRepo    user.Repository
	roleRepo    role.Repository
	vehicleRepo vehicle.Repository
	auditRepo   audit.Repository
	db          *database.DB
	redis       *redis.Client
	version     string
	server      *http.Server
	auditCh     chan *audit.AuditLog
	cancel      context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Auth == nil {
		return nil, fmt.Errorf("auth service is required")
	}
	if deps.UserRepo == nil || deps.RoleRepo == nil || deps.VehicleRepo == nil {
		return nil, fmt.Errorf("user, role, and vehicle repositories are required")
	}

	return &Server{
		cfg:         deps.Config,
		logger:      deps.Logger,
		auth:        deps.Auth,
		userRepo:    deps.UserRepo,
		roleRepo:    deps.RoleRepo,
		vehicleRepo: deps.VehicleRepo,
		auditRepo:   deps.AuditRepo,
		db:          deps.DB,
		redis:       deps.Redis,
		version:     deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It builds the router, launches the async audit writer, and starts the
// HTTP listener in a background goroutine. Stop with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.auditRepo != nil {
		s.auditCh = make(chan *audit.AuditLog, auditChanSize)
		go s.drainAuditLog(srvCtx)
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.API.Host, s.cfg.API.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       s.cfg.GetIdleTimeout(),
	}

	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	s.logger.Info("API server started", "address", s.server.Addr)
	return nil
}

// Close gracefully shuts down the API server, waiting for in-flight
// requests before closing remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	// Cancel background goroutines (audit writer drains before exit)
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
