package metricshttp

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// MountRoutes registers the metrics API onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	if len(h.origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.origins,
			AllowedMethods:   []string{"GET", "HEAD", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/", h.handleRoot)
	r.Get("/api/health", h.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.handleHealth)
		r.Get("/summary", h.handleSummary)
		r.Get("/summary/", h.handleSummary)
		r.Get("/revenue/trends", h.handleRevenueTrends)
		r.Get("/revenue/by-division", h.handleRevenueByDivision)
		r.Get("/hr/retention", h.handleRetention)
		r.Get("/hr/metrics", h.handleHRMetrics)
		r.Get("/security/incidents", h.handleIncidents)
		r.Get("/security/safety-scores", h.handleSafetyScores)
		r.Get("/supply-chain/metrics", h.handleSupplyChain)
		r.Get("/supply-chain/disruptions", h.handleDisruptions)
		r.Get("/narrative/insight", h.handleNarrative)
		r.Get("/rd/portfolio", h.handleRDPortfolio)
	})
}
