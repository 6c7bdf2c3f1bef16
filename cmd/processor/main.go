// Command processor normalizes bronze snapshots into the canonical silver
// tables consumed by the estimation pipeline.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"eiasa/internal/config"
	"eiasa/internal/exporter"
	"eiasa/internal/infrastructure"
	"eiasa/internal/normalize"
)

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
	if err := paths.EnsureDirectories(); err != nil {
		logger.Error("ensure directories", "error", err)
		os.Exit(1)
	}

	ctx := infrastructure.WithTraceID(context.Background(), uuid.NewString())
	metrics := infrastructure.NewMetrics()

	start := time.Now()
	err = normalizeWeekly(ctx, paths)
	metrics.ObserveStage("normalize_weekly", err, time.Since(start))
	if err != nil {
		os.Exit(1)
	}

	start = time.Now()
	err = normalizeCapacity(ctx, paths)
	metrics.ObserveStage("normalize_capacity", err, time.Since(start))
	if err != nil {
		os.Exit(1)
	}
}

func normalizeWeekly(ctx context.Context, paths *config.Paths) error {
	logger := infrastructure.LoggerFromContext(ctx)

	raw, err := exporter.ReadRawCSV(paths.RawWeeklyCSV)
	if err != nil {
		logger.ErrorContext(ctx, "read raw weekly snapshot", "error", err)
		return err
	}

	obs, err := normalize.NormalizeWeekly(raw)
	if err != nil {
		logger.ErrorContext(ctx, "normalize weekly snapshot", "error", err)
		return err
	}
	if err := exporter.WriteWeeklyCSV(paths.WeeklyCSV, obs); err != nil {
		logger.ErrorContext(ctx, "write weekly table", "error", err)
		return err
	}

	logger.InfoContext(ctx, "weekly table written",
		slog.Int("raw_rows", len(raw)),
		slog.Int("observations", len(obs)),
		slog.String("path", paths.WeeklyCSV))
	return nil
}

func normalizeCapacity(ctx context.Context, paths *config.Paths) error {
	logger := infrastructure.LoggerFromContext(ctx)

	raw, err := exporter.ReadRawCSV(paths.RawCapacityCSV)
	if err != nil {
		logger.ErrorContext(ctx, "read raw capacity snapshot", "error", err)
		return err
	}

	snaps, err := normalize.NormalizeCapacity(raw)
	if err != nil {
		logger.ErrorContext(ctx, "normalize capacity snapshot", "error", err)
		return err
	}
	if err := exporter.WriteCapacityCSV(paths.CapacityCSV, snaps); err != nil {
		logger.ErrorContext(ctx, "write capacity table", "error", err)
		return err
	}

	logger.InfoContext(ctx, "capacity table written",
		slog.Int("raw_rows", len(raw)),
		slog.Int("snapshots", len(snaps)),
		slog.String("path", paths.CapacityCSV))
	return nil
}
