package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"almanac-platform/internal/config"
	"almanac-platform/internal/handlers"
	"almanac-platform/internal/repository"
	"almanac-platform/internal/services"
	"almanac-platform/pkg/logging"
	"almanac-platform/pkg/metrics"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logLevel, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("almanac-api", version, logLevel)

	ctx := context.Background()
	logger.Info(ctx, "[STARTUP] Starting almanac API server", logging.Fields{
		"version":         version,
		"server_host":     cfg.Server.Host,
		"server_port":     cfg.Server.Port,
		"storage_backend": cfg.Storage.Backend,
		"timezone":        cfg.Almanac.Timezone,
	})

	loc, err := cfg.Almanac.Location()
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Invalid almanac time zone", logging.Fields{}, err)
	}

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("almanac_platform")

	// Initialize storage
	store, err := repository.OpenStore(ctx, cfg, false, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to open storage", logging.Fields{
			"backend": cfg.Storage.Backend,
		}, err)
	}
	defer store.Close()

	if count, err := store.Count(ctx); err != nil {
		logger.Warn(ctx, "[STARTUP_WARN] Failed to count almanac days", logging.Fields{
			"error": err.Error(),
		})
	} else {
		metricsCollector.DaysServed.Set(float64(count))
		logger.Info(ctx, "[STARTUP] Almanac data ready", logging.Fields{
			"days": count,
		})
	}

	// Initialize services
	clock := services.RealClock{}
	almanacService := services.NewAlmanacService(store.Repo, loc, clock, logger, metricsCollector)
	exportService := services.NewExportService(store.Repo, clock, logger, metricsCollector)

	// Initialize handlers
	almanacHandler := handlers.NewAlmanacHandler(almanacService, exportService, logger, metricsCollector)
	calendarPage := handlers.NewCalendarPage(almanacService, logger, metricsCollector)

	// Setup router
	router := mux.NewRouter()
	router.Use(handlers.RequestID, handlers.RequestLogger(logger))

	// Register routes
	almanacHandler.RegisterRoutes(router)
	calendarPage.RegisterRoutes(router)

	// API documentation
	router.HandleFunc("/api/docs", handlers.SwaggerUI).Methods("GET")
	router.HandleFunc("/api/docs/openapi.json", handlers.OpenAPISpec).Methods("GET")

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "[SERVER_ERROR] Server failed", logging.Fields{}, err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "[SHUTDOWN] Shutting down server...", logging.Fields{})

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}
