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

	"github.com/wayne-insights/dashboard/internal/app"
	"github.com/wayne-insights/dashboard/internal/metrics"
	metricshttp "github.com/wayne-insights/dashboard/internal/metrics/http"
	"github.com/wayne-insights/dashboard/internal/observability"
	"github.com/wayne-insights/dashboard/internal/platform/db"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping metrics api startup")
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

	var source metrics.Source
	switch cfg.DataSource {
	case app.DataSourcePostgres:
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		source = metrics.NewPostgresSource(pool)
	default:
		csvSource := metrics.NewCSVSource(os.DirFS(cfg.DataDir))
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)
		go reloadOnSignal(ctx, hup, csvSource, logger)
		source = csvSource
	}
	logger.Info("metrics data source", slog.String("source", cfg.DataSource), slog.String("dir", cfg.DataDir))

	handler := metricshttp.NewHandler(logger, metrics.NewService(source), cfg.CORSOrigins)
	router := app.NewMetricsAPIRouter(logger, cfg, handler, observability.NewMetrics())

	server := &http.Server{
		Addr:         cfg.MetricsAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting metrics api", slog.String("addr", cfg.MetricsAddr))
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
