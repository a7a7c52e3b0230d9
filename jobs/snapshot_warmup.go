package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/wayne-insights/dashboard/internal/dashboard"
	jobmetrics "github.com/wayne-insights/dashboard/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// SnapshotRefresher is the part of the dashboard service the warmup uses.
type SnapshotRefresher interface {
	Refresh(ctx context.Context) (*dashboard.Snapshot, error)
	Invalidate(ctx context.Context) error
}

// SnapshotWarmupJob reloads the dashboard snapshot so page requests hit the cache.
type SnapshotWarmupJob struct {
	Service SnapshotRefresher
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	Timeout time.Duration
	clock   func() time.Time
}

// NewSnapshotWarmupJob wires dependencies for the warmup handler.
func NewSnapshotWarmupJob(service SnapshotRefresher, logger *slog.Logger, metrics *jobmetrics.Metrics) *SnapshotWarmupJob {
	return &SnapshotWarmupJob{
		Service: service,
		Logger:  logger,
		Metrics: metrics,
		Timeout: 30 * time.Second,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes dashboard warmup tasks.
func (j *SnapshotWarmupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Service == nil {
		return errors.New("snapshot warmup: handler not configured")
	}
	var payload WarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("snapshot warmup: decode payload: %v: %w", err, asynq.SkipRetry)
		}
	}

	tracker := j.metrics().Track(TaskDashboardWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("reason", payload.Reason))
	started := j.now()

	if payload.Invalidate {
		if err := j.Service.Invalidate(ctx); err != nil {
			logger.Warn("invalidate snapshot cache", slog.Any("error", err))
		}
	}

	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}
	snap, err := j.Service.Refresh(ctx)
	if err != nil {
		logger.Error("refresh snapshot", slog.Any("error", err))
		return err
	}

	finished := j.now()
	j.metrics().MarkWarmed(finished)
	logger.Info("snapshot warmed",
		slog.String("snapshot", snap.ID),
		slog.Duration("duration", finished.Sub(started)))
	return nil
}

func (j *SnapshotWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDashboardWarmup))
	}
	return slog.Default().With(slog.String("job", TaskDashboardWarmup))
}

func (j *SnapshotWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *SnapshotWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
