package metricshttp

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/wayne-insights/dashboard/internal/apiclient"
	"github.com/wayne-insights/dashboard/internal/metrics"
	"github.com/wayne-insights/dashboard/internal/platform/httpx"
	"github.com/wayne-insights/dashboard/internal/series"
)

const (
	projectName = "Wayne Enterprises Dashboard API"
	apiVersion  = "1.0.0"
)

// MetricsService defines the aggregates served by the API.
type MetricsService interface {
	Summary(ctx context.Context) (apiclient.Summary, error)
	RevenueTrends(ctx context.Context) ([]series.Row, error)
	RevenueByDivision(ctx context.Context) ([]series.Field, error)
	RetentionRates(ctx context.Context) ([]series.Row, error)
	HRMetrics(ctx context.Context) (apiclient.HRMetrics, error)
	SecurityIncidents(ctx context.Context) ([]series.Row, error)
	SafetyScores(ctx context.Context) ([]series.Row, error)
	SupplyChainMetrics(ctx context.Context) ([]apiclient.SupplyChainMetric, error)
	SupplyChainDisruptions(ctx context.Context) ([]series.Row, error)
	Narrative(ctx context.Context) (metrics.Narrative, error)
	RDPortfolio(ctx context.Context) ([]apiclient.RDDivision, error)
}

// Handler serves the metrics API.
type Handler struct {
	logger  *slog.Logger
	service MetricsService
	origins []string
}

// NewHandler constructs the metrics API handler. origins lists the browser
// origins allowed by CORS.
func NewHandler(logger *slog.Logger, service MetricsService, origins []string) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, origins: origins}
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{
		"message":      "Welcome to Wayne Enterprises Dashboard API",
		"health_check": "/api/health",
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"project": projectName,
		"version": apiVersion,
	})
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	respond(h, w, "summary", func() (apiclient.Summary, error) { return h.service.Summary(r.Context()) })
}

func (h *Handler) handleRevenueTrends(w http.ResponseWriter, r *http.Request) {
	respond(h, w, "revenue trends", func() ([]series.Row, error) { return h.service.RevenueTrends(r.Context()) })
}

func (h *Handler) handleRevenueByDivision(w http.ResponseWriter, r *http.Request) {
	fields, err := h.service.RevenueByDivision(r.Context())
	if err != nil {
		h.fail(w, "revenue by division", err)
		return
	}
	data, err := series.MarshalFields(fields)
	if err != nil {
		h.fail(w, "revenue by division", err)
		return
	}
	httpx.JSON(w, http.StatusOK, envelope{Data: data, Message: "Revenue by division retrieved successfully"})
}

func (h *Handler) handleRetention(w http.ResponseWriter, r *http.Request) {
	respond(h, w, "retention rates", func() ([]series.Row, error) { return h.service.RetentionRates(r.Context()) })
}

func (h *Handler) handleHRMetrics(w http.ResponseWriter, r *http.Request) {
	respond(h, w, "hr metrics", func() (apiclient.HRMetrics, error) { return h.service.HRMetrics(r.Context()) })
}

func (h *Handler) handleIncidents(w http.ResponseWriter, r *http.Request) {
	respond(h, w, "security incidents", func() ([]series.Row, error) { return h.service.SecurityIncidents(r.Context()) })
}

func (h *Handler) handleSafetyScores(w http.ResponseWriter, r *http.Request) {
	respond(h, w, "safety scores", func() ([]series.Row, error) { return h.service.SafetyScores(r.Context()) })
}

func (h *Handler) handleSupplyChain(w http.ResponseWriter, r *http.Request) {
	respond(h, w, "supply chain metrics", func() ([]apiclient.SupplyChainMetric, error) {
		return h.service.SupplyChainMetrics(r.Context())
	})
}

func (h *Handler) handleDisruptions(w http.ResponseWriter, r *http.Request) {
	respond(h, w, "supply chain disruptions", func() ([]series.Row, error) {
		return h.service.SupplyChainDisruptions(r.Context())
	})
}

func (h *Handler) handleNarrative(w http.ResponseWriter, r *http.Request) {
	respond(h, w, "narrative", func() (metrics.Narrative, error) { return h.service.Narrative(r.Context()) })
}

func (h *Handler) handleRDPortfolio(w http.ResponseWriter, r *http.Request) {
	divisions, err := h.service.RDPortfolio(r.Context())
	if err != nil {
		h.fail(w, "rd portfolio", err)
		return
	}
	data, err := json.Marshal(divisions)
	if err != nil {
		h.fail(w, "rd portfolio", err)
		return
	}
	httpx.JSON(w, http.StatusOK, envelope{Data: data, Message: "R&D portfolio retrieved successfully"})
}

func respond[T any](h *Handler, w http.ResponseWriter, scope string, load func() (T, error)) {
	out, err := load()
	if err != nil {
		h.fail(w, scope, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

// fail reports dataset and aggregation errors as 500 problems carrying the cause.
func (h *Handler) fail(w http.ResponseWriter, scope string, err error) {
	h.logger.Error("metrics api", slog.String("endpoint", scope), slog.Any("error", err))
	httpx.RespondError(w, err)
}
