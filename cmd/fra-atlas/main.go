package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fra-atlas/internal/api"
	"fra-atlas/internal/api/handlers"
	"fra-atlas/internal/repository"
	"fra-atlas/internal/service"
	"fra-atlas/pkg/antivirus"
	"fra-atlas/pkg/auth"
	"fra-atlas/pkg/config"
	"fra-atlas/pkg/events"
	"fra-atlas/pkg/logger"
	"fra-atlas/pkg/postgres"

	"go.uber.org/zap"
)

// @title FRA Atlas API
// @version 1.0
// @description Forest-rights land claims: uploads with OCR review, claim management, GeoJSON map feed and dashboard aggregates.
// @termsOfService http://swagger.io/terms/

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting FRA Atlas service", zap.String("store", cfg.Store.Backend))

	ctx := context.Background()

	// Initialize store
	var store repository.Store
	switch cfg.Store.Backend {
	case config.StoreBackendPostgres:
		db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		if err := postgres.EnsureSchema(ctx, db); err != nil {
			appLogger.Fatal("Failed to prepare database schema", zap.Error(err))
		}
		store = repository.NewPostgresStore(db, appLogger)
	default:
		appLogger.Warn("Using in-memory store; data is lost on restart")
		store = repository.NewMemoryStore(appLogger)
	}

	// Initialize recognizer
	var recognizer service.Recognizer
	switch cfg.OCR.Provider {
	case config.OCRProviderGigaChat:
		gc, err := service.NewGigaChatRecognizer(ctx, &cfg.GigaChat, logger.Component("gigachat"))
		if err != nil {
			appLogger.Fatal("Failed to initialize GigaChat recognizer", zap.Error(err))
		}
		defer gc.Close()
		recognizer = gc
	default:
		recognizer = service.NewMockRecognizer(cfg.OCR.MinDelay, cfg.OCR.MaxDelay, logger.Component("ocr"))
	}

	// Antivirus is optional
	var scanner antivirus.Scanner = antivirus.Disabled{}
	if cfg.ClamAV.URL != "" {
		clamd := antivirus.NewClamdScanner(cfg.ClamAV.URL, appLogger)
		if err := clamd.Ping(); err != nil {
			appLogger.Warn("ClamAV unreachable, uploads will not be scanned", zap.Error(err))
		} else {
			scanner = clamd
		}
	}

	// Events are optional
	var publisher events.Publisher = events.Nop{}
	if cfg.NATS.URL != "" {
		nc, err := events.ConnectNATS(cfg.NATS.URL, appLogger)
		if err != nil {
			appLogger.Warn("NATS unavailable, events disabled", zap.Error(err))
		} else {
			publisher = nc
		}
	}
	defer publisher.Close()

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration, cfg.JWT.RefreshExp)

	// Initialize services
	authService := service.NewAuthService(store, jwtManager, appLogger)
	claimService := service.NewClaimService(store, publisher, appLogger)
	ocrService := service.NewOCRService(recognizer, appLogger)
	uploadService := service.NewUploadService(store, ocrService, scanner, publisher, cfg.Upload.Dir, cfg.Upload.MaxBytes, appLogger)

	// Initialize handlers
	h := api.Handlers{
		Claims: handlers.NewClaimHandler(claimService, appLogger),
		Upload: handlers.NewUploadHandler(uploadService, claimService, appLogger),
		Auth:   handlers.NewAuthHandler(authService, appLogger),
	}

	// Setup router
	app := api.SetupRouter(h, jwtManager, api.Options{
		StoreBackend:   cfg.Store.Backend,
		UploadDir:      cfg.Upload.Dir,
		MaxUploadBytes: uploadService.MaxBytes(),
		AccessLog:      true,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
	}, appLogger)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
