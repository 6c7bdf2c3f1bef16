// Package services exposes the computed gold tables and process health to
// the HTTP transport layer.
package services

import (
	"context"
	"log/slog"

	"eiasa/internal/accrual"
	"eiasa/internal/config"
	"eiasa/internal/estimate"
	"eiasa/internal/exporter"
	"eiasa/internal/rollforward"
)

// ResultService reads the computed gold tables from disk on each request,
// so a server restart is never needed after a pipeline run.
type ResultService struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewResultService creates a ResultService over the resolved path set.
func NewResultService(paths *config.Paths, logger *slog.Logger) *ResultService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultService{
		paths:  paths,
		logger: logger.With(slog.String("component", "result_service")),
	}
}

// Filter narrows result rows to one region and, optionally, one stratum.
// Zero values match everything.
type Filter struct {
	Region  string
	Stratum estimate.Stratum
}

func (f Filter) matches(region string, stratum estimate.Stratum) bool {
	if f.Region != "" && f.Region != region {
		return false
	}
	if f.Stratum != "" && f.Stratum != stratum {
		return false
	}
	return true
}

// Rollforward returns the monthly rollforward rows matching the filter.
func (s *ResultService) Rollforward(ctx context.Context, filter Filter) ([]rollforward.Monthly, error) {
	rows, err := exporter.ReadRollforwardCSV(s.paths.RollforwardCSV)
	if err != nil {
		return nil, err
	}
	s.logger.DebugContext(ctx, "loaded rollforward table", slog.Int("rows", len(rows)))

	out := rows[:0:0]
	for _, row := range rows {
		if filter.matches(row.Region, row.Stratum) {
			out = append(out, row)
		}
	}
	return out, nil
}

// KPIs returns the KPI rows matching the filter.
func (s *ResultService) KPIs(ctx context.Context, filter Filter) ([]rollforward.KPIRecord, error) {
	rows, err := exporter.ReadKPIsCSV(s.paths.KPIsCSV)
	if err != nil {
		return nil, err
	}
	s.logger.DebugContext(ctx, "loaded KPI table", slog.Int("rows", len(rows)))

	out := rows[:0:0]
	for _, row := range rows {
		if filter.matches(row.Region, row.Stratum) {
			out = append(out, row)
		}
	}
	return out, nil
}

// Accruals returns the accrual rows matching the filter.
func (s *ResultService) Accruals(ctx context.Context, filter Filter) ([]accrual.Record, error) {
	rows, err := exporter.ReadAccrualsCSV(s.paths.AccrualsCSV)
	if err != nil {
		return nil, err
	}
	s.logger.DebugContext(ctx, "loaded accrual table", slog.Int("rows", len(rows)))

	out := rows[:0:0]
	for _, row := range rows {
		if filter.matches(row.Region, row.Stratum) {
			out = append(out, row)
		}
	}
	return out, nil
}
