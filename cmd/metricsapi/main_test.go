package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	_ "github.com/wayne-insights/dashboard/testing"
)

func TestMainSkipsStartupInTestMode(t *testing.T) {
	main()
}

type countingClearer struct{ calls atomic.Int32 }

func (c *countingClearer) ClearCache() { c.calls.Add(1) }

func TestReloadOnSignalClearsDatasets(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	clearer := &countingClearer{}
	done := make(chan struct{})
	go func() {
		defer close(done)
		reloadOnSignal(ctx, sigs, clearer, slog.New(slog.NewTextHandler(io.Discard, nil)))
	}()

	sigs <- syscall.SIGHUP
	require.Eventually(t, func() bool { return clearer.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reload loop did not stop")
	}
}
