package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDashboardWarmup reloads the dashboard snapshot into the cache.
	TaskDashboardWarmup = "dashboard:warmup"
)

// WarmupPayload configures a snapshot warmup run. Invalidate bumps the cache
// version before reloading so every instance drops its stale snapshot.
type WarmupPayload struct {
	Reason     string    `json:"reason"`
	Invalidate bool      `json:"invalidate"`
	IssuedAt   time.Time `json:"issued_at"`
}

// NewWarmupTask constructs a dashboard warmup task.
func NewWarmupTask(reason string, invalidate bool) (*asynq.Task, error) {
	if reason == "" {
		reason = "scheduled"
	}
	body, err := json.Marshal(WarmupPayload{Reason: reason, Invalidate: invalidate, IssuedAt: time.Now().UTC()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDashboardWarmup, body, asynq.Queue(QueueDefault)), nil
}
