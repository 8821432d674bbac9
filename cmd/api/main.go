package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"aircheck/internal/config"
	"aircheck/internal/database"
	"aircheck/internal/database/migration"
	handlers "aircheck/internal/http/handler"
	"aircheck/internal/http/middleware"
	"aircheck/internal/otel"
	"aircheck/internal/repository/postgres"
	"aircheck/internal/service"
	"aircheck/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	ctx := context.Background()

	// Tracing (no-op when OTEL_SDK_DISABLED=true)
	shutdownTracing, err := otel.Init(ctx, time.UTC)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, time.UTC, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// Initialize repositories and services
	recRepo := postgres.NewRecordingPostgres(db)
	showRepo := postgres.NewShowPostgres(db)
	recSvc := service.NewRecordingService(objStore, recRepo, showRepo)
	showSvc := service.NewShowService(showRepo)

	// Metrics registry shared by HTTP middleware and the cleanup executor
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	cleanupMetrics, err := service.NewCleanupMetrics(reg)
	if err != nil {
		log.Fatalf("failed to register cleanup metrics: %v", err)
	}
	cleanup := service.NewCleanupExecutor(recRepo, objStore, service.CleanupConfig{
		ClaimTTL:  time.Duration(cfg.Cleanup.ClaimTTLSec) * time.Second,
		BatchSize: cfg.Cleanup.BatchSize,
	}, cleanupMetrics)

	// Periodic cleanup; empty schedule leaves only the on-demand endpoint
	scheduler := service.NewCleanupScheduler(cleanup, cfg.Cleanup.Schedule)
	if err := scheduler.Start(ctx); err != nil {
		log.Fatalf("failed to start cleanup scheduler: %v", err)
	}
	defer scheduler.Stop()

	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to register http metrics: %v", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	// Span per request, exported through the OTLP pipeline set up above
	app.Use(otelfiber.Middleware())
	app.Use(promMiddleware.Handler())

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, db, recSvc, showSvc, cleanup)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
