package http

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"eiasa/internal/estimate"
	"eiasa/internal/infrastructure"
	"eiasa/internal/services"
)

// Handler serves the results API.
type Handler struct {
	results ResultProvider
	health  HealthProvider
	metrics *infrastructure.Metrics
	logger  *slog.Logger
}

// NewHandler creates the API handler. A nil metrics instance disables the
// /metrics route.
func NewHandler(results ResultProvider, health HealthProvider, metrics *infrastructure.Metrics, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		results: results,
		health:  health,
		metrics: metrics,
		logger:  logger.With(slog.String("component", "api_handler")),
	}
}

// Routes builds the full router with tracing, recovery, and metrics
// middleware applied.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(RequestTracing)
	r.Use(middleware.Recoverer)
	if h.metrics != nil {
		r.Use(MetricsMiddleware(h.metrics))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/rollforward", h.GetRollforward)
		r.Get("/kpis", h.GetKPIs)
		r.Get("/accruals", h.GetAccruals)
		r.Get("/health", h.HealthCheck)
		r.Get("/health/ready", h.ReadinessCheck)
	})

	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}
	return r
}

// stratumPattern matches the lowercase stratum tokens the pipeline
// produces (none, salt, nonsalt, ...).
var stratumPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// filterFromQuery builds the result filter from region and stratum query
// parameters. A stratum value outside the token alphabet is rejected.
func filterFromQuery(r *http.Request) (services.Filter, error) {
	filter := services.Filter{Region: r.URL.Query().Get("region")}
	if stratum := r.URL.Query().Get("stratum"); stratum != "" {
		if !stratumPattern.MatchString(stratum) {
			return services.Filter{}, fmt.Errorf("invalid stratum %q", stratum)
		}
		filter.Stratum = estimate.ParseStratum(stratum)
	}
	return filter, nil
}

// GetRollforward handles GET /api/rollforward.
func (h *Handler) GetRollforward(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		h.renderBadRequest(w, r, err)
		return
	}
	rows, err := h.results.Rollforward(r.Context(), filter)
	if err != nil {
		h.renderError(w, r, "load rollforward", err)
		return
	}
	render.JSON(w, r, rows)
}

// GetKPIs handles GET /api/kpis.
func (h *Handler) GetKPIs(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		h.renderBadRequest(w, r, err)
		return
	}
	rows, err := h.results.KPIs(r.Context(), filter)
	if err != nil {
		h.renderError(w, r, "load kpis", err)
		return
	}
	render.JSON(w, r, rows)
}

// GetAccruals handles GET /api/accruals.
func (h *Handler) GetAccruals(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		h.renderBadRequest(w, r, err)
		return
	}
	rows, err := h.results.Accruals(r.Context(), filter)
	if err != nil {
		h.renderError(w, r, "load accruals", err)
		return
	}
	render.JSON(w, r, rows)
}

// HealthCheck handles GET /api/health.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.health.HealthCheck(r.Context()))
}

// ReadinessCheck handles GET /api/health/ready.
func (h *Handler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.health.ReadinessCheck(r.Context()))
}

func (h *Handler) renderBadRequest(w http.ResponseWriter, r *http.Request, err error) {
	if renderErr := render.Render(w, r, ErrInvalidRequest(err.Error())); renderErr != nil {
		h.logger.ErrorContext(r.Context(), "render error response failed",
			slog.String("error", renderErr.Error()))
	}
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, action string, err error) {
	h.logger.ErrorContext(r.Context(), action+" failed", slog.String("error", err.Error()))

	var apiErr *APIError
	if errors.Is(err, fs.ErrNotExist) {
		apiErr = ErrNotReady("pipeline results have not been produced yet")
	} else {
		apiErr = ErrInternal(err.Error())
	}
	if renderErr := render.Render(w, r, apiErr); renderErr != nil {
		h.logger.ErrorContext(r.Context(), "render error response failed",
			slog.String("error", renderErr.Error()))
	}
}
