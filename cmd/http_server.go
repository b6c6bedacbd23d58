package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/inventory-management/internal"
	"github.com/frahmantamala/inventory-management/internal/auth"
	"github.com/frahmantamala/inventory-management/internal/core/events"
	"github.com/frahmantamala/inventory-management/internal/dbaudit"
	auditPostgres "github.com/frahmantamala/inventory-management/internal/dbaudit/postgres"
	"github.com/frahmantamala/inventory-management/internal/device"
	devicePostgres "github.com/frahmantamala/inventory-management/internal/device/postgres"
	"github.com/frahmantamala/inventory-management/internal/importer"
	"github.com/frahmantamala/inventory-management/internal/item"
	itemPostgres "github.com/frahmantamala/inventory-management/internal/item/postgres"
	"github.com/frahmantamala/inventory-management/internal/openfda"
	"github.com/frahmantamala/inventory-management/internal/purchase"
	purchasePostgres "github.com/frahmantamala/inventory-management/internal/purchase/postgres"
	"github.com/frahmantamala/inventory-management/internal/transport"
	"github.com/frahmantamala/inventory-management/internal/transport/rest"
	"github.com/frahmantamala/inventory-management/internal/transport/swagger"
	"github.com/frahmantamala/inventory-management/internal/user"
	userPostgres "github.com/frahmantamala/inventory-management/internal/user/postgres"
	"github.com/frahmantamala/inventory-management/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

// Dependencies holds everything the server and the seed command share.
type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Gorm   *gorm.DB
	Cache  *redis.Client
	Bus    *events.EventBus
	Logger *slog.Logger

	Users     *user.Service
	Auth      *auth.Service
	Items     *item.Service
	Purchases *purchase.Service
	Devices   *device.Service
	Importer  *importer.Service
	Audit     *dbaudit.Service
}

func startHTTPServer() {
	ctx := context.Background()
	deps, err := initializeDependencies(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	lg := deps.Logger

	if _, err := swagger.Load(ctx); err != nil {
		lg.Error("openapi document is invalid", "error", err)
		os.Exit(1)
	}

	router := chi.NewRouter()
	setupRoutes(router, deps)

	if deps.Config.Seed.Enabled {
		go runStartupSeed(deps)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	lg.Info("Starting HTTP server", "address", addr, "env", deps.Config.AppEnv)

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		lg.Info("Received signal, shutting down...", "signal", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("Server failed to start", "error", err)
			deps.Close()
			os.Exit(1)
		}
	}

	deps.Close()
	lg.Info("Server stopped")
}

func setupRoutes(router *chi.Mux, deps *Dependencies) {
	base := transport.NewBaseHandler(deps.Logger)
	base.ExposeCause = !deps.Config.IsProduction()

	rest.RegisterAllRoutes(router, rest.Options{
		DB:             deps.DB.DB,
		Cache:          deps.Cache,
		AuditPublisher: deps.Bus,
		AllowedOrigins: deps.Config.Server.Origins(),
		MetricsEnabled: deps.Config.Observability.Metrics.Enabled,
		MetricsPath:    deps.Config.Observability.Metrics.Path,
		Base:           base,
		Logger:         deps.Logger,
	}, rest.Handlers{
		Auth:     auth.NewHandler(base, deps.Auth),
		User:     user.NewHandler(base, deps.Users),
		Item:     item.NewHandler(base, deps.Items),
		Purchase: purchase.NewHandler(base, deps.Purchases),
		Device:   device.NewHandler(base, deps.Devices),
		Importer: importer.NewHandler(base, deps.Importer),
		Audit:    dbaudit.NewHandler(base, deps.Audit),
	})
}

func runStartupSeed(deps *Dependencies) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	res, err := importer.NewSeeder(deps.Importer).Run(ctx, seedOptions(deps.Config.Seed))
	if err != nil {
		deps.Logger.Warn("openFDA seed failed", "error", err)
		return
	}
	deps.Logger.Info("openFDA seed finished", "seeded", res.Seeded, "reason", res.Reason,
		"upserted", res.Upserted, "matched", res.Matched, "purged", res.Purged)
}

func seedOptions(cfg internal.SeedConfig) importer.SeedOptions {
	return importer.SeedOptions{
		Term:        cfg.Term,
		ProductCode: cfg.ProductCode,
		Limit:       cfg.Limit,
		Always:      cfg.Always,
		PurgeNonFDA: cfg.PurgeNonFDA,
	}
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.InitWithOptions(config.AppEnv, config.Observability.Logging.Level, config.Observability.Logging.Format)
	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	cache := openfda.NewRedisClient(ctx, config.Cache.RedisAddr, lg)
	bus := events.NewEventBus(lg)

	users := user.NewService(userPostgres.NewUserRepository(gdb), config.Security.BCryptCost, lg)
	authSvc := auth.NewService(users,
		auth.NewJWTTokenGenerator(config.Security.JWTSecret, config.Security.AccessTokenDuration),
		auth.Options{
			AdminSignupToken:     config.Security.AdminSignupToken,
			TrustIdentityHeaders: config.Security.TrustIdentityHeaders,
			DevFallback:          config.Security.DevFallback,
		}, lg)
	items := item.NewService(itemPostgres.NewItemRepository(gdb), lg)
	devices := device.NewService(devicePostgres.NewDeviceRepository(gdb, db), lg)
	purchases := purchase.NewService(purchasePostgres.NewPurchaseRepository(gdb), items, users, bus, lg)
	audit := dbaudit.NewService(auditPostgres.NewAuditRepository(gdb, db), lg)

	client := openfda.NewClient(openfda.Config{
		BaseURL: config.OpenFDA.BaseURL,
		Timeout: config.OpenFDA.Timeout,
	}, lg)
	imports := importer.NewService(client, items, devices, bus, lg)
	if cache != nil {
		imports.WithBrowseSearcher(openfda.NewCachedSearcher(client, cache, config.Cache.TTL, lg))
	}

	purchase.NewEventHandler(lg).RegisterEventHandlers(bus)
	importer.NewEventHandler(lg).RegisterEventHandlers(bus)
	audit.RegisterEventHandlers(bus)

	return &Dependencies{
		Config:    config,
		DB:        db,
		Gorm:      gdb,
		Cache:     cache,
		Bus:       bus,
		Logger:    lg,
		Users:     users,
		Auth:      authSvc,
		Items:     items,
		Purchases: purchases,
		Devices:   devices,
		Importer:  imports,
		Audit:     audit,
	}, nil
}

// Close drains pending events before the pool goes away so queued audit
// rows still land.
func (d *Dependencies) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.Bus.Drain(ctx); err != nil {
		d.Logger.Warn("event handlers still running at shutdown", "error", err)
	}
	if d.Cache != nil {
		if err := d.Cache.Close(); err != nil {
			d.Logger.Error("Redis close error", "error", err)
		}
	}
	if err := d.DB.Close(); err != nil {
		d.Logger.Error("Database close error", "error", err)
	}
}

func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
