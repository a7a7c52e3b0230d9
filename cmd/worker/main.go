package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/wayne-insights/dashboard/internal/apiclient"
	"github.com/wayne-insights/dashboard/internal/app"
	"github.com/wayne-insights/dashboard/internal/dashboard"
	jobmetrics "github.com/wayne-insights/dashboard/internal/jobs"
	"github.com/wayne-insights/dashboard/internal/observability"
	"github.com/wayne-insights/dashboard/internal/platform/cache"
	"github.com/wayne-insights/dashboard/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	client, err := apiclient.New(cfg.ClientConfig(), apiclient.WithObserver(metrics))
	if err != nil {
		logger.Error("init metrics api client", slog.Any("error", err))
		os.Exit(1)
	}
	service := dashboard.NewService(
		dashboard.NewController(client, logger),
		dashboard.NewCache(redisClient, cfg.SnapshotCacheTTL),
		logger,
	)
	warmupJob := jobs.NewSnapshotWarmupJob(service, logger, jobmetrics.NewMetrics(metrics.Registerer()))

	warmupTask, err := jobs.NewWarmupTask("scheduled", false)
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskDashboardWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.WarmupCron, Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3), asynq.Unique(time.Minute)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	admin := chi.NewRouter()
	admin.Method(http.MethodGet, "/metrics", metrics.Handler())
	admin.Route("/jobs", jobs.NewHandler(inspector, logger).MountRoutes)
	adminServer := &http.Server{Addr: cfg.WorkerAddr, Handler: admin, ReadTimeout: cfg.AppReadTimeout}
	go func() {
		logger.Info("starting worker admin server", slog.String("addr", cfg.WorkerAddr))
		if err := adminServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("worker admin server", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = adminServer.Shutdown(shutdownCtx)
	}()

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
