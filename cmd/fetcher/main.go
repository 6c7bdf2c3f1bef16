// Command fetcher pulls weekly storage and capacity data from the EIA API
// and lands the raw rows in the bronze layer.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"eiasa/internal/config"
	"eiasa/internal/exporter"
	"eiasa/internal/infrastructure"
	"eiasa/internal/ingest"
)

func main() {
	configFile := flag.String("config", "", "path to YAML config file")
	start := flag.String("start", "", "fetch window start (YYYY-MM-DD, defaults to 6 weeks ago)")
	end := flag.String("end", "", "fetch window end (YYYY-MM-DD, defaults to today)")
	regions := flag.String("regions", "", "comma-separated region codes (defaults to the five lower-48 regions)")
	capacityYear := flag.Int("capacity-year", 0, "capacity series year (defaults to the current year)")
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = infrastructure.WithTraceID(ctx, uuid.NewString())

	now := time.Now().UTC()
	startDate := now.AddDate(0, 0, -42)
	endDate := now
	if *start != "" {
		if startDate, err = time.Parse("2006-01-02", *start); err != nil {
			logger.Error("parse start date", "error", err)
			os.Exit(1)
		}
	}
	if *end != "" {
		if endDate, err = time.Parse("2006-01-02", *end); err != nil {
			logger.Error("parse end date", "error", err)
			os.Exit(1)
		}
	}

	var regionList []string
	if *regions != "" {
		regionList = strings.Split(*regions, ",")
	}
	year := *capacityYear
	if year == 0 {
		year = now.Year()
	}

	client := ingest.NewClient(cfg.EIA, logger)

	logger.InfoContext(ctx, "fetching weekly storage",
		slog.String("start", startDate.Format("2006-01-02")),
		slog.String("end", endDate.Format("2006-01-02")))
	weekly, err := client.FetchWeeklyStorage(ctx, startDate, endDate, regionList)
	if err != nil {
		logger.ErrorContext(ctx, "fetch weekly storage", "error", err)
		os.Exit(1)
	}
	if err := exporter.WriteRawCSV(paths.RawWeeklyCSV, weekly); err != nil {
		logger.ErrorContext(ctx, "write raw weekly snapshot", "error", err)
		os.Exit(1)
	}

	logger.InfoContext(ctx, "fetching capacity", slog.Int("year", year))
	capacity, err := client.FetchCapacity(ctx, year)
	if err != nil {
		logger.ErrorContext(ctx, "fetch capacity", "error", err)
		os.Exit(1)
	}
	if err := exporter.WriteRawCSV(paths.RawCapacityCSV, capacity); err != nil {
		logger.ErrorContext(ctx, "write raw capacity snapshot", "error", err)
		os.Exit(1)
	}

	logger.InfoContext(ctx, "bronze layer updated",
		slog.Int("weekly_rows", len(weekly)),
		slog.Int("capacity_rows", len(capacity)),
		slog.String("bronze_dir", paths.BronzeDir))
}
