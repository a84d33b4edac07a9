package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/heraops/ledger-integrity-engine/internal/adapters/database/pgsql"
	"github.com/heraops/ledger-integrity-engine/internal/adapters/erp"
	"github.com/heraops/ledger-integrity-engine/internal/core/services"
	"github.com/heraops/ledger-integrity-engine/internal/dto"
	"github.com/heraops/ledger-integrity-engine/internal/handlers"
	"github.com/heraops/ledger-integrity-engine/internal/middleware"
	"github.com/heraops/ledger-integrity-engine/internal/platform/metrics"
	"github.com/heraops/ledger-integrity-engine/pkg/config"
	"github.com/heraops/ledger-integrity-engine/pkg/database"
	"github.com/ulule/limiter/v3"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()
	logger.Info("Database connection pool established.")

	if err := runMigrations(cfg.DatabaseURL, logger); err != nil {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	registrySvc, err := services.NewAccountRegistry(services.DefaultAccountEntries())
	if err != nil {
		logger.Error("Failed to build account registry", slog.String("error", err.Error()))
		os.Exit(1)
	}

	postingSvc, err := services.NewPostingService(registrySvc, services.DefaultPostingAccounts(), cfg.DefaultCurrency)
	if err != nil {
		logger.Error("Failed to build posting service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	auditSvc := services.NewAuditService(pgsql.NewPgxRecordStore(dbPool))

	erpConfigs := erp.StaticConfigProvider{}
	if cfg.ERPTenantID != "" {
		erpConfigs[cfg.ERPTenantID] = cfg.ERP
	}
	erpFactory := erp.NewFactory(erpConfigs)

	metrics.Register()

	if err := dto.RegisterValidators(); err != nil {
		logger.Error("Failed to register binding validators", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.Default())

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
	if err != nil {
		logger.Error("Invalid rate limit format", slog.String("error", err.Error()))
		os.Exit(1)
	}
	r.Use(middleware.RateLimit(limiter.New(memorystore.NewStore(), rate)))

	handlers.RegisterRoutes(r, &handlers.ServiceContainer{
		Posting:  postingSvc,
		Registry: registrySvc,
		Audit:    auditSvc,
		ERP:      erpFactory,
	})

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// runMigrations applies all pending "up" migrations over a temporary
// database/sql connection compatible with the main pgx pool.
func runMigrations(databaseURL string, logger *slog.Logger) error {
	logger.Info("Running database migrations...")

	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()

	if err := migrationDB.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return err
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return sourceErr
	}
	if dbErr != nil {
		return dbErr
	}

	if err == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}
