package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/wayne-insights/dashboard/internal/apiclient"
	"github.com/wayne-insights/dashboard/internal/app"
	"github.com/wayne-insights/dashboard/internal/dashboard"
	dashboardhttp "github.com/wayne-insights/dashboard/internal/dashboard/http"
	"github.com/wayne-insights/dashboard/internal/dashboard/ui"
	"github.com/wayne-insights/dashboard/internal/observability"
	"github.com/wayne-insights/dashboard/internal/platform/cache"
	"github.com/wayne-insights/dashboard/internal/proxy"
	"github.com/wayne-insights/dashboard/internal/view"
	"github.com/wayne-insights/dashboard/jobs"
	"github.com/wayne-insights/dashboard/web"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	metrics := observability.NewMetrics()
	if err := dashboard.SetupCacheMetrics(metrics.Registerer()); err != nil {
		logger.Warn("register cache metrics", slog.Any("error", err))
	}

	var redisClient *redis.Client
	if cfg.SnapshotCacheTTL > 0 {
		redisClient, err = cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("redis unavailable, snapshot cache disabled", slog.Any("error", err))
		} else {
			defer func() {
				if err := redisClient.Close(); err != nil {
					logger.Warn("redis close", slog.Any("error", err))
				}
			}()
		}
	}

	client, err := apiclient.New(cfg.ClientConfig(), apiclient.WithObserver(metrics))
	if err != nil {
		logger.Error("init metrics api client", slog.Any("error", err))
		os.Exit(1)
	}
	controller := dashboard.NewController(client, logger)
	snapshotCache := dashboard.NewCache(redisClient, cfg.SnapshotCacheTTL)
	service := dashboard.NewService(controller, snapshotCache, logger)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}
	dashboardHandler := dashboardhttp.NewHandler(logger, service, templates, ui.DefaultRenderers())

	apiProxy, err := proxy.NewAPIProxy(cfg.UpstreamURL, proxy.WithLogger(logger), proxy.WithObserver(metrics))
	if err != nil {
		logger.Error("init api proxy", slog.Any("error", err))
		os.Exit(1)
	}

	bundle, err := spaFS(cfg)
	if err != nil {
		logger.Error("open spa bundle", slog.Any("error", err))
		os.Exit(1)
	}

	if redisClient != nil {
		enqueueStartupWarmup(ctx, cfg, logger)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:    logger,
		Config:    cfg,
		Dashboard: dashboardHandler,
		APIProxy:  apiProxy,
		SPA:       proxy.NewSPAHandler(bundle, cfg.StaticIndex),
		Metrics:   metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting dashboard server", slog.String("addr", cfg.AppAddr), slog.String("upstream", cfg.UpstreamURL))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

// spaFS serves STATIC_DIR when set, the embedded bundle otherwise.
func spaFS(cfg *app.Config) (fs.FS, error) {
	if cfg.StaticDir != "" {
		return os.DirFS(cfg.StaticDir), nil
	}
	return fs.Sub(web.Bundle, "dist")
}

func enqueueStartupWarmup(ctx context.Context, cfg *app.Config, logger *slog.Logger) {
	client := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	if _, err := client.EnqueueWarmup(ctx, "startup", false); err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
		logger.Warn("enqueue startup warmup", slog.Any("error", err))
	}
}
