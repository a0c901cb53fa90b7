package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskOverviewWarmup pre-computes the dashboard overview cache.
	TaskOverviewWarmup = "dashboard:overview:warmup"
)

// OverviewWarmupPayload scopes a warmup run.
type OverviewWarmupPayload struct {
	WindowDays int `json:"window_days,omitempty"`
}

// NewOverviewWarmupTask constructs an Asynq task for the overview warmup.
func NewOverviewWarmupTask(payload OverviewWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOverviewWarmup, data), nil
}
