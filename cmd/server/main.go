package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appsync "github.com/erpsync/backend/internal/application/ordersync"
	"github.com/erpsync/backend/internal/domain/shared"
	"github.com/erpsync/backend/internal/infrastructure/cache"
	"github.com/erpsync/backend/internal/infrastructure/config"
	"github.com/erpsync/backend/internal/infrastructure/erp"
	"github.com/erpsync/backend/internal/infrastructure/event"
	"github.com/erpsync/backend/internal/infrastructure/logger"
	"github.com/erpsync/backend/internal/infrastructure/persistence"
	"github.com/erpsync/backend/internal/infrastructure/scheduler"
	"github.com/erpsync/backend/internal/interfaces/http/handler"
	"github.com/erpsync/backend/internal/interfaces/http/middleware"
	"github.com/erpsync/backend/internal/interfaces/http/router"
)

//	@title			Order Sync API
//	@version		1.0
//	@description	Order synchronization service pushing commerce platform orders into an external ERP

//	@host		localhost:8080
//	@BasePath	/api/v1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting order sync service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Development convenience; production deployments run the SQL migrations
	if cfg.App.Env != "production" {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate schema", zap.Error(err))
		}
	}

	// Initialize repositories
	recordRepo := persistence.NewGormSyncRecordRepository(db.DB)
	orderStore := persistence.NewGormOrderStore(db.DB)

	// Outbound ERP client
	erpConfig := erp.NewConfig(cfg.ERP.BaseURL)
	erpConfig.APIKey = cfg.ERP.APIKey
	erpConfig.HMACSecret = cfg.ERP.HMACSecret
	erpConfig.TimeoutSeconds = cfg.ERP.TimeoutSeconds
	erpClient := erp.NewClient(erpConfig, log)

	// Initialize event bus
	eventBus := event.NewInMemoryEventBus(log)
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Sync engine configuration
	syncConfig := appsync.Config{
		Enabled:                cfg.Sync.Enabled,
		ImmediateSyncOnInvoice: cfg.Sync.ImmediateSyncOnInvoice,
		Debug:                  cfg.Sync.Debug,
		MaxAttempts:            cfg.Sync.MaxAttempts,
		BaseDelay:              time.Duration(cfg.Sync.BaseDelaySeconds) * time.Second,
		StaleClaimAge:          time.Duration(cfg.Sync.StaleClaimAgeSeconds) * time.Second,
		HMACSecret:             cfg.ERP.HMACSecret,
	}

	// Application services
	syncService := appsync.NewSyncService(recordRepo, orderStore, erpClient, eventBus, syncConfig, log)
	management := appsync.NewManagement(syncService, recordRepo, orderStore, erpClient, syncConfig, log)
	sweepRunner := appsync.NewSweepRunner(syncService, recordRepo, syncConfig, cfg.Sync.SweepBatchSize, log)

	// Invoice-created events submit orders for synchronization
	invoiceHandler := appsync.NewInvoiceCreatedHandler(syncService, orderStore, syncConfig, log)
	eventBus.Subscribe(invoiceHandler)
	log.Info("Event handlers registered",
		zap.Strings("invoice_events", invoiceHandler.EventTypes()),
	)

	// Start the retry sweep scheduler
	sweepScheduler, err := scheduler.NewSweepScheduler(scheduler.SweepSchedulerConfig{
		Enabled:  cfg.Cron.Enabled,
		Interval: cfg.Cron.Interval,
	}, sweepRunner, log)
	if err != nil {
		log.Fatal("Failed to create sweep scheduler", zap.Error(err))
	}
	if err := sweepScheduler.Start(context.Background()); err != nil {
		log.Fatal("Failed to start sweep scheduler", zap.Error(err))
	}
	defer func() {
		if err := sweepScheduler.Stop(context.Background()); err != nil {
			log.Error("Error stopping sweep scheduler", zap.Error(err))
		}
	}()

	// Webhook deduplication store (Redis when enabled, in-memory otherwise)
	idemStore := cache.NewIdempotencyStore(&cfg.Redis, log)
	defer func() {
		if err := idemStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Initialize HTTP handlers
	adminGuard := middleware.AdminAPIKey(cfg.HTTP.AdminAPIKey)
	syncHandler := handler.NewSyncHandler(management, sweepRunner, adminGuard)
	webhookHandler := handler.NewWebhookHandler(
		management,
		orderStore,
		eventBus,
		idemStore,
		shared.DefaultIdempotencyConfig(),
		log,
	)
	mockERPHandler := handler.NewMockERPHandler(management)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(syncHandler).
		Register(webhookHandler).
		Register(mockERPHandler).
		Register(systemHandler)
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
