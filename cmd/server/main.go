package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/rankview/internal/application"
	"github.com/JonMunkholm/rankview/internal/config"
	"github.com/JonMunkholm/rankview/internal/core"
	"github.com/JonMunkholm/rankview/internal/logging"
	"github.com/JonMunkholm/rankview/internal/metrics"
	"github.com/JonMunkholm/rankview/internal/web"
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
	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)

	logger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"driver", cfg.Source.Driver,
		"load_max_concurrent", cfg.Load.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	logger.Debug("effective configuration", "config", cfg.String())

	var (
		recorder *metrics.Recorder
		observer core.MetricsRecorder
	)
	if cfg.Metrics.Enabled {
		recorder = metrics.New(cfg.Metrics.Namespace)
		observer = recorder
	}

	ctx := context.Background()
	service, err := application.NewService(ctx, cfg, observer, logger)
	if err != nil {
		logger.Error("failed to open source", "driver", cfg.Source.Driver, "error", err)
		os.Exit(1)
	}
	defer service.Close()

	// A failed initial load leaves the server up with nothing loaded.
	if err := application.LoadInitial(ctx, cfg, service); err != nil {
		logger.Warn("initial load failed", "selection", cfg.Load.Initial, "error", err)
	}

	server := web.NewServer(service, cfg, recorder)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for active loads to complete (with timeout)
		if st := service.LimiterStatus(); st.Active > 0 {
			logger.Info("waiting for loads to complete", "active", st.Active)
			if err := service.WaitForLoads(shutdownCtx); err != nil {
				logger.Warn("loads did not complete in time", "error", err)
			} else {
				logger.Info("all loads completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-done
	logger.Info("server stopped")
}
