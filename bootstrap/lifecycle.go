// ABOUTME: This file owns the application lifecycle: startup, signal
// ABOUTME: handling, and graceful shutdown.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"pharma-radar/utils/logger"
)

// Run is the main application entry point. It builds all dependencies,
// starts the HTTP server and the scheduler, then waits for a shutdown
// signal.
func Run(ctx context.Context) error {
	loggerConfig := logger.LoadConfigFromEnv()
	log := logger.New(loggerConfig)

	log.Info("starting pharma-radar service",
		"log_level", loggerConfig.Level,
		"log_format", loggerConfig.Format)

	deps, cleanup, err := BuildDependencies(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to build dependencies: %w", err)
	}
	defer cleanup()

	httpServer := NewHTTPServer(deps)
	StartHTTPServer(httpServer, deps.Config.Server.Port, log)

	if err := deps.Scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	log.Info("pharma-radar service started")
	waitForShutdown(ctx, httpServer, deps, log)

	return nil
}

func waitForShutdown(ctx context.Context, httpServer interface{ Shutdown(context.Context) error }, deps *Dependencies, log *slog.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case <-ctx.Done():
	}

	log.Info("shutting down pharma-radar service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), deps.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("error shutting down HTTP server", "error", err)
	}

	deps.Scheduler.Stop()

	log.Info("pharma-radar service stopped")
}
