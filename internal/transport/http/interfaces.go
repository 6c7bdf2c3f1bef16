package http

import (
	"context"

	"eiasa/internal/accrual"
	"eiasa/internal/rollforward"
	"eiasa/internal/services"
)

// ResultProvider is the slice of the result service the handlers need.
type ResultProvider interface {
	Rollforward(ctx context.Context, filter services.Filter) ([]rollforward.Monthly, error)
	KPIs(ctx context.Context, filter services.Filter) ([]rollforward.KPIRecord, error)
	Accruals(ctx context.Context, filter services.Filter) ([]accrual.Record, error)
}

// HealthProvider is the slice of the health service the handlers need.
type HealthProvider interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
}
