package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog-service/internal/config"
	"catalog-service/internal/events"
	"catalog-service/internal/handlers"
	"catalog-service/internal/jobs"
	"catalog-service/internal/metrics"
	"catalog-service/internal/middleware"
	"catalog-service/internal/queue"
	"catalog-service/internal/repository"
	"catalog-service/internal/services"
	"catalog-service/internal/workers"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title Catalog Management API
// @version 1.0.0
// @description Category hierarchy, attribute registry and bulk product import/export

// @host localhost:8090
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.IsProduction() {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	redisClient := config.InitRedis(cfg)

	var eventsPublisher *events.Publisher
	if cfg.NATSURL != "" {
		eventsPublisher, err = events.NewPublisher(cfg.NATSURL, logger)
		if err != nil {
			log.Printf("WARNING: Failed to initialize events publisher: %v (events won't be published)", err)
		} else {
			log.Println("NATS events publisher initialized")
		}
	}

	// Repositories
	categoryRepo := repository.NewCategoryRepository(db, redisClient)
	attributeRepo := repository.NewAttributeRepository(db)
	productsRepo := repository.NewProductsRepository(db)
	importJobRepo := repository.NewImportJobRepository(db)
	exportJobRepo := repository.NewExportJobRepository(db)

	// Queues and services
	importQueue := queue.New[uuid.UUID]()
	exportQueue := queue.New[uuid.UUID]()

	categoryService := services.NewCategoryService(categoryRepo, eventsPublisher, logger)
	attributeService := services.NewAttributeService(attributeRepo, categoryRepo, eventsPublisher, logger)
	validator := services.NewImportValidator(categoryService, productsRepo)
	importService := services.NewImportService(importJobRepo, productsRepo, validator, importQueue, eventsPublisher, logger, cfg.ImportMaxFileBytes)
	exportService := services.NewExportService(exportJobRepo, productsRepo, exportQueue, eventsPublisher, logger)

	// Background workers
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	importWorker := workers.NewJobWorker(metrics.KindImport, importQueue, importService.Process, cfg.ImportWorkers, logger)
	exportWorker := workers.NewJobWorker(metrics.KindExport, exportQueue, exportService.Process, cfg.ExportWorkers, logger)
	importWorker.Start(workerCtx)
	exportWorker.Start(workerCtx)

	sweeper := jobs.NewRecoverySweeper(importJobRepo, exportJobRepo, importQueue, exportQueue, cfg.JobSweepInterval, cfg.JobStaleAfter, logger)
	go sweeper.Start(workerCtx)
	log.Println("Background workers started")

	// Router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("Failed to access database handle:", err)
	}
	healthHandler := handlers.NewHealthHandler(sqlDB.PingContext, map[string]*workers.JobWorker{
		metrics.KindImport: importWorker,
		metrics.KindExport: exportWorker,
	})
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	if cfg.IsProduction() || cfg.JWTSecret != "" {
		api.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	} else {
		log.Println("WARNING: Using development auth, identity headers are trusted")
		api.Use(middleware.DevelopmentAuthMiddleware())
	}
	api.Use(middleware.TenantMiddleware())

	routes := &handlers.Routes{
		Categories: handlers.NewCategoryHandler(categoryService, logger),
		Attributes: handlers.NewAttributeHandler(attributeService, logger),
		Imports:    handlers.NewImportHandler(importService, cfg.JobListLimit, logger),
		Exports:    handlers.NewExportHandler(exportService, cfg.JobListLimit, logger),
	}
	if cfg.TransferRatePerMinute > 0 {
		routes.Throttle = middleware.NewSellerRateLimiter(cfg.TransferRatePerMinute, cfg.TransferRateBurst, 0).Middleware()
	}
	routes.Register(api)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Starting catalog-service on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down catalog-service...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// interrupted jobs go back to QUEUED and are picked up on the next start
	sweeper.Stop()
	stopWorkers()
	importWorker.Stop()
	exportWorker.Stop()
	importQueue.Close()
	exportQueue.Close()
	log.Println("Background workers stopped")

	eventsPublisher.Close()
	if redisClient != nil {
		_ = redisClient.Close()
	}

	log.Println("Catalog service stopped")
}
