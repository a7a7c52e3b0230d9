package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wayne-insights/dashboard/internal/app"
	"github.com/wayne-insights/dashboard/internal/metrics"
	"github.com/wayne-insights/dashboard/internal/platform/db"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	dataDir := flag.String("data", cfg.DataDir, "directory holding the wayne_*.csv datasets")
	dsn := flag.String("dsn", cfg.PGDSN, "postgres connection string")
	flag.Parse()

	logger := app.NewLogger(cfg)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.New(ctx, *dsn)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	started := time.Now()
	if err := metrics.Seed(ctx, pool, metrics.NewCSVSource(os.DirFS(*dataDir)), logger); err != nil {
		logger.Error("seed datasets", slog.String("dir", *dataDir), slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("seed complete", slog.String("dir", *dataDir), slog.Duration("duration", time.Since(started)))
}
