package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	dashboardhttp "github.com/wayne-insights/dashboard/internal/dashboard/http"
	metricshttp "github.com/wayne-insights/dashboard/internal/metrics/http"
	"github.com/wayne-insights/dashboard/internal/observability"
	"github.com/wayne-insights/dashboard/internal/proxy"
	"github.com/wayne-insights/dashboard/web"
)

// RouterParams groups dependencies for building the dashboard router.
type RouterParams struct {
	Logger    *slog.Logger
	Config    *Config
	Dashboard *dashboardhttp.Handler
	APIProxy  http.Handler
	SPA       http.Handler
	Metrics   *observability.Metrics
}

// NewRouter constructs the dashboard server router: the server-rendered
// executive page, the /api proxy, embedded static assets and the SPA fallback.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", healthz)
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	if params.Dashboard != nil {
		params.Dashboard.MountRoutes(r)
	}
	if params.APIProxy != nil {
		r.Handle(proxy.PublicPrefix, params.APIProxy)
		r.Handle(proxy.PublicPrefix+"/*", params.APIProxy)
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	if params.SPA != nil {
		r.NotFound(params.SPA.ServeHTTP)
	}

	return r
}

// NewMetricsAPIRouter constructs the metrics API server router.
func NewMetricsAPIRouter(logger *slog.Logger, cfg *Config, handler *metricshttp.Handler, metrics *observability.Metrics) http.Handler {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{Logger: logger, Config: cfg, Metrics: metrics}) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)
	// MountRoutes installs CORS, which must precede every route on the mux.
	handler.MountRoutes(r)
	r.Get("/healthz", healthz)
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}
	return r
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// staticCacheHandler marks embedded assets cacheable for one hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
