package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bangsu-tech/estimate-api/docs"
	"github.com/bangsu-tech/estimate-api/internal/auth"
	"github.com/bangsu-tech/estimate-api/internal/config"
	"github.com/bangsu-tech/estimate-api/internal/database"
	"github.com/bangsu-tech/estimate-api/internal/http/handler"
	"github.com/bangsu-tech/estimate-api/internal/http/middleware"
	"github.com/bangsu-tech/estimate-api/internal/http/router"
	"github.com/bangsu-tech/estimate-api/internal/jobs"
	"github.com/bangsu-tech/estimate-api/internal/logger"
	"github.com/bangsu-tech/estimate-api/internal/repository"
	"github.com/bangsu-tech/estimate-api/internal/service"
	"github.com/bangsu-tech/estimate-api/internal/storage"
	"github.com/bangsu-tech/estimate-api/internal/warehouse"
	"go.uber.org/zap"
)

// @title Bangsu Estimate API
// @version 1.0
// @description Estimation and pricing API for waterproofing contractors: versioned price catalogs, project estimates with VAT, and AI material suggestion review

// @contact.name API Support
// @contact.email dev@bangsu.tech

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API key for the diagnosis pipeline and trusted gateway
// @Security BearerAuth
// @Security ApiKeyAuth

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	// Configure Swagger host based on environment
	switch basicCfg.App.Environment {
	case "staging":
		docs.SwaggerInfo.Host = "estimate-staging.bangsu.tech"
	case "production":
		docs.SwaggerInfo.Host = "estimate.bangsu.tech"
	default:
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// Load full configuration with secrets
	// In development: uses environment variables
	// In staging/production: fetches from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	fileStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// Reporting warehouse connection (optional). The API continues
	// without it; the export job is simply not scheduled.
	var whClient *warehouse.Client
	if cfg.Warehouse.Enabled {
		whClient, err = warehouse.NewClient(&cfg.Warehouse, log)
		if err != nil {
			log.Warn("Reporting warehouse connection failed, continuing without it", zap.Error(err))
		}
	} else {
		log.Info("Reporting warehouse not configured, skipping")
	}

	// Repositories
	pricebookRepo := repository.NewPricebookRepository(db)
	catalogItemRepo := repository.NewCatalogItemRepository(db)
	catalogPriceRepo := repository.NewCatalogPriceRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	estimateRepo := repository.NewEstimateRepository(db)
	suggestionRepo := repository.NewSuggestionRepository(db)
	photoRepo := repository.NewSitePhotoRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Services
	catalogService := service.NewCatalogService(pricebookRepo, catalogItemRepo, catalogPriceRepo, log, db)
	projectService := service.NewProjectService(projectRepo, log)
	estimateService := service.NewEstimateService(estimateRepo, projectRepo, catalogService, log, db)
	suggestionService := service.NewSuggestionService(suggestionRepo, projectRepo, estimateRepo, catalogService, cfg.Estimating.SuggestionMinConfidence, log, db)
	photoService := service.NewPhotoService(photoRepo, estimateRepo, fileStorage, log)

	// Middleware
	authMiddleware := auth.NewMiddleware(cfg, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Handlers
	authHandler := handler.NewAuthHandler(authMiddleware.Validator(), userRepo, log)
	catalogHandler := handler.NewCatalogHandler(catalogService, log)
	projectHandler := handler.NewProjectHandler(projectService, log)
	estimateHandler := handler.NewEstimateHandler(estimateService, projectService, log)
	suggestionHandler := handler.NewSuggestionHandler(suggestionService, projectService, log)
	photoHandler := handler.NewPhotoHandler(photoService, estimateService, log)

	rt := router.NewRouter(
		cfg,
		log,
		db,
		authMiddleware,
		rateLimiter,
		authHandler,
		catalogHandler,
		projectHandler,
		estimateHandler,
		suggestionHandler,
		photoHandler,
	)

	// Background jobs
	var scheduler *jobs.Scheduler
	if whClient.IsEnabled() {
		scheduler = jobs.NewScheduler(log)
		if err := jobs.RegisterWarehouseExportJob(scheduler, estimateRepo, whClient, log, cfg.Warehouse.SyncSchedule); err != nil {
			log.Error("Failed to register warehouse export job", zap.Error(err))
		} else {
			scheduler.Start()
			log.Info("Scheduler started with warehouse export job",
				zap.String("cron_expr", cfg.Warehouse.SyncSchedule))
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			ctx := scheduler.Stop()
			<-ctx.Done()
			log.Info("Scheduler stopped")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		if whClient != nil {
			if err := whClient.Close(); err != nil {
				log.Warn("Error closing reporting warehouse connection", zap.Error(err))
			}
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
