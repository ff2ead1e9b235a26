package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"activity-recap/internal/cache"
	"activity-recap/internal/config"
	"activity-recap/internal/handlers"
	"activity-recap/internal/metrics"
	"activity-recap/internal/middleware"
	"activity-recap/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Set up logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting activity-recap server",
		"host", cfg.Host,
		"port", cfg.Port,
		"providers", cfg.ProviderIDs(),
		"default_provider", cfg.DefaultProvider,
		"cache_backend", cfg.CacheBackend,
		"log_level", cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := service.NewRegistry(cfg, logger)

	// Optional server-side cache
	var recapCache cache.RecapCache
	session, err := service.OpenCache(cfg, logger)
	if err != nil {
		logger.Error("Failed to open cache", "error", err)
		os.Exit(1)
	}
	if session != nil {
		defer session.Close()
		if _, err := session.MigrateAppVersion(ctx, cfg.AppVersion); err != nil {
			logger.Error("Failed to migrate cache", "error", err)
			os.Exit(1)
		}
		recapCache = session
	}

	svc := service.New(registry, recapCache, service.OptionsFromConfig(cfg), logger)

	recapHandler := handlers.NewRecapHandler(svc)
	oauthHandler := handlers.NewOAuthHandler(svc)

	// Set up HTTP routes
	mux := http.NewServeMux()

	mux.Handle("/api/recap", middleware.WrapHandler(metrics.EndpointRecap, logger, recapHandler.HandleRecap))
	mux.Handle("/api/profile", middleware.WrapHandler(metrics.EndpointProfile, logger, recapHandler.HandleProfile))
	mux.Handle("/api/disconnect", middleware.WrapHandler(metrics.EndpointDisconnect, logger, recapHandler.HandleDisconnect))
	mux.Handle("/oauth-start", middleware.WrapHandler(metrics.EndpointAuthStart, logger, oauthHandler.HandleAuthStart))

	// Health check endpoint
	mux.Handle("/health", middleware.WrapHandler(metrics.EndpointHealth, logger, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}))

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.HTTPTimeout*time.Duration(cfg.MaxPages) + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start metrics server if enabled
	var metricsServer *http.Server
	if cfg.MetricsEnabled {
		if session != nil {
			go func() {
				logger.Info("Starting cache entry collector")
				metrics.StartCacheCollector(ctx, session, 15*time.Second)
			}()
		}

		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())

		metricsAddr := fmt.Sprintf("%s:%d", cfg.MetricsHost, cfg.MetricsPort)
		metricsServer = &http.Server{
			Addr:    metricsAddr,
			Handler: metricsMux,
		}

		go func() {
			logger.Info("Metrics server listening", "addr", metricsAddr)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
	}

	// Start HTTP server in background
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down gracefully...")
	cancel()

	// Shutdown HTTP servers with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Metrics server shutdown failed", "error", err)
		}
	}

	logger.Info("Server stopped")
}
