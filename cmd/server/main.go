package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/CsvCombine/internal/config"
	"github.com/JonMunkholm/CsvCombine/internal/core"
	"github.com/JonMunkholm/CsvCombine/internal/logging"
	"github.com/JonMunkholm/CsvCombine/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"storage_root", cfg.Storage.Root,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	// Open the staging directory, creating it if missing
	store, err := core.NewDir(cfg.Storage.Root, cfg.Upload.AllowedExtensions)
	if err != nil {
		slog.Error("failed to open staging directory", "error", err, "root", cfg.Storage.Root)
		os.Exit(1)
	}
	slog.Info("staging directory ready", "root", cfg.Storage.Root)

	// Assemble the service with config
	validator := core.NewValidator(cfg.Upload.MaxFileSize, cfg.Upload.AllowedExtensions)
	limiter := core.NewOpLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime)
	service := core.NewService(store, validator, limiter)

	// Create server with config
	server := web.NewServer(service, cfg)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for in-flight uploads and combines (with timeout)
		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for operations to complete", "active", status.Active)
			if err := service.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("operations did not complete in time", "error", err)
			} else {
				slog.Info("all operations completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	// Start server (uses addr from config internally)
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
