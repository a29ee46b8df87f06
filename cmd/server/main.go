package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shehryarbajwa/iconbase-mini/internal/api"
	"github.com/shehryarbajwa/iconbase-mini/internal/catalog"
	"github.com/shehryarbajwa/iconbase-mini/internal/config"
	"github.com/shehryarbajwa/iconbase-mini/internal/logger"
	"github.com/shehryarbajwa/iconbase-mini/internal/ratelimit"
	"github.com/shehryarbajwa/iconbase-mini/internal/stream"
)

const module = "main"

func main() {
	cfg, envFound, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog := logger.New(cfg.App.LogFilePath, cfg.App.IsProduction())
	defer zlog.Sync()

	if !envFound {
		zlog.Info(module, "No .env file found, using system environment variables", nil)
	}
	zlog.Info(module, "Starting Iconbase Mini", map[string]interface{}{
		"env":      cfg.App.Environment,
		"catalog":  cfg.Catalog.BaseURL,
		"workers":  cfg.Catalog.MaxWorkers,
		"log_file": cfg.App.LogFilePath,
	})

	// Event hub: every catalog delivery fans out to websocket clients
	hub := stream.NewHub(zlog)

	// Outbound transport, throttled per catalog host
	transport := catalog.NewHTTPTransport(
		&http.Client{},
		ratelimit.NewLimiter(cfg.Catalog.RatePerSecond, cfg.Catalog.RateBurst),
		cfg.Catalog.UserAgent,
	)

	catalogMgr, err := catalog.NewManager(catalog.Options{
		BaseURL:        cfg.Catalog.BaseURL,
		Transport:      transport,
		Sink:           hub,
		Logger:         zlog,
		MaxWorkers:     cfg.Catalog.MaxWorkers,
		QueueSize:      cfg.Catalog.QueueSize,
		RequestTimeout: cfg.Catalog.RequestTimeout,
		ShutdownPoll:   cfg.Catalog.ShutdownPoll,
	})
	if err != nil {
		zlog.Error(module, "Failed to create catalog manager", map[string]interface{}{"error": err})
		os.Exit(1)
	}
	zlog.Info(module, "Catalog manager initialized", nil)

	rateLimiter := ratelimit.PerHour(cfg.API.RatePerHour, cfg.API.RateBurst)

	router := api.NewHandler(catalogMgr, zlog).SetupRoutes(hub, rateLimiter)

	// Create HTTP server. No write timeout: /v1/events is long-lived.
	srv := &http.Server{
		Addr:        cfg.App.Addr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in background
	go func() {
		zlog.Info(module, "Server listening", map[string]interface{}{
			"addr":       cfg.App.Addr,
			"rate_limit": cfg.API.RatePerHour,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Error(module, "Server error", map[string]interface{}{"error": err})
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	zlog.Info(module, "Shutting down server gracefully", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// hijacked websocket connections are not tracked by Shutdown; the hub
	// closes them after the manager has delivered its last result
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Warn(module, "Server forced to shutdown", map[string]interface{}{"error": err})
	}

	if err := catalogMgr.Close(); err != nil {
		zlog.Warn(module, "Catalog manager close", map[string]interface{}{"error": err})
	}
	hub.Close()

	zlog.Info(module, "Server stopped cleanly", nil)
}
