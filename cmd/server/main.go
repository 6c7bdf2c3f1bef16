// Command server exposes the computed gold tables over the JSON API.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"eiasa/internal/config"
	"eiasa/internal/infrastructure"
	"eiasa/internal/services"
	transport "eiasa/internal/transport/http"
)

// version is stamped at build time with -ldflags.
var version = "dev"

func main() {
	configFile := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("load configuration", "error", err)
		os.Exit(1)
	}

	logger := infrastructure.MustInitializeLogger(cfg.Logging)
	defer infrastructure.CloseLogFile()

	paths, err := cfg.Paths.Resolve()
	if err != nil {
		logger.Error("resolve paths", "error", err)
		os.Exit(1)
	}

	metrics := infrastructure.NewMetrics()
	results := services.NewResultService(paths, logger)
	health := services.NewHealthService(version, paths, logger)
	handler := transport.NewHandler(results, health, metrics, logger)
	server := transport.NewServer(cfg.Server, handler.Routes(), logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
			os.Exit(1)
		}
		logger.Info("server stopped")
	}
}
