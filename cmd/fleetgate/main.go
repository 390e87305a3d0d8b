// Fleetgate - Fleet Access Gateway
//
// This is the main entry point for the Fleetgate API server. Fleetgate
// manages driver and administrator accounts, vehicle records, and the
// sessions that tie them together behind a two-stage authorization gate.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/fleetgate/migrations"

	"github.com/nerrad567/fleetgate/internal/api"
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

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Fleetgate",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Connect to the session store
	rdb, err := redis.Connect(redis.Config{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() {
		log.Info("closing redis connection")
		if closeErr := rdb.Close(); closeErr != nil {
			log.Error("error closing redis", "error", closeErr)
		}
	}()
	log.Info("redis connected", "addr", cfg.RedisAddr())

	// Repositories
	userRepo := user.NewRepository(db.DB)
	roleRepo := role.NewRepository(db.DB)
	vehicleRepo := vehicle.NewRepository(db.DB)
	auditRepo := audit.NewSQLiteRepository(db.DB)

	// Auth service
	issuer := auth.NewTokenIssuer(
		cfg.Security.JWT.AccessSecret,
		cfg.Security.JWT.RefreshSecret,
		cfg.AccessTokenTTL(),
		cfg.RefreshTokenTTL(),
	)
	sessions := auth.NewSessionStore(rdb, issuer.RefreshTTL())
	authService := auth.NewService(userRepo, roleRepo, issuer, sessions, log.Logger)

	// Seed the standard roles and the bootstrap admin account
	if seedErr := auth.Seed(ctx, roleRepo, userRepo, auth.AdminSeed{
		Email:    cfg.Seed.AdminEmail,
		Password: cfg.Seed.AdminPassword,
		Number:   cfg.Seed.AdminNumber,
	}, log.Logger); seedErr != nil {
		return fmt.Errorf("seeding identity data: %w", seedErr)
	}

	// API server
	server, err := api.New(api.Deps{
		Config:      *cfg,
		Logger:      log,
		Auth:        authService,
		UserRepo:    userRepo,
		RoleRepo:    roleRepo,
		VehicleRepo: vehicleRepo,
		AuditRepo:   auditRepo,
		DB:          db,
		Redis:       rdb,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, rdb); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server (drains in-flight requests and the audit queue)
	// 2. Redis
	// 3. Database

	log.Info("Fleetgate stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses FLEETGATE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("FLEETGATE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
func healthCheck(ctx context.Context, db *database.DB, rdb *redis.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := rdb.HealthCheck(ctx); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	return nil
}
