package services

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"eiasa/internal/config"
)

// HealthService reports process and data health.
type HealthService struct {
	version   string
	paths     *config.Paths
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus is the health endpoint response body.
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime,omitempty"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Tables    map[string]string      `json:"tables,omitempty"`
}

// NewHealthService creates a health service.
func NewHealthService(version string, paths *config.Paths, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		paths:     paths,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck returns liveness information.
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   hs.version,
		Uptime:    time.Since(hs.startTime).Round(time.Second).String(),
		Runtime: map[string]interface{}{
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// ReadinessCheck reports whether the gold tables have been produced. The
// server is degraded, not down, while the pipeline has not run yet.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now().UTC(),
		Version:   hs.version,
		Tables:    make(map[string]string),
	}

	tables := map[string]string{
		"rollforward": hs.paths.RollforwardCSV,
		"kpis":        hs.paths.KPIsCSV,
		"accruals":    hs.paths.AccrualsCSV,
	}
	for name, path := range tables {
		if _, err := os.Stat(path); err != nil {
			status.Tables[name] = "missing"
			status.Status = "degraded"
			hs.logger.DebugContext(ctx, "gold table not yet produced",
				slog.String("table", name), slog.String("path", path))
			continue
		}
		status.Tables[name] = "present"
	}
	return status
}
