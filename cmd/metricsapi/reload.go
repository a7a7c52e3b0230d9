package main

import (
	"context"
	"log/slog"
	"os"
)

type cacheClearer interface {
	ClearCache()
}

// reloadOnSignal drops parsed datasets on every signal so edited CSV files are
// read again on the next request.
func reloadOnSignal(ctx context.Context, sigs <-chan os.Signal, src cacheClearer, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigs:
			src.ClearCache()
			logger.Info("datasets reloaded", slog.String("signal", sig.String()))
		}
	}
}
