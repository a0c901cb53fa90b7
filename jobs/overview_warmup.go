package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/brightline-bi/brightline/internal/dashboard"
	jobmetrics "github.com/brightline-bi/brightline/internal/jobs"
	"github.com/brightline-bi/brightline/internal/salesagg"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// OverviewLoader is the slice of the dashboard service the warmup needs.
type OverviewLoader interface {
	GetOverview(ctx context.Context, filter dashboard.Filter) (salesagg.Overview, error)
}

// OverviewWarmupJob pre-populates the dashboard overview cache so the first
// morning request is served warm.
type OverviewWarmupJob struct {
	Dashboard OverviewLoader
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// NewOverviewWarmupJob wires dependencies for the warmup handler.
func NewOverviewWarmupJob(svc OverviewLoader, logger *slog.Logger, metrics *jobmetrics.Metrics) *OverviewWarmupJob {
	return &OverviewWarmupJob{
		Dashboard: svc,
		Logger:    logger,
		Metrics:   metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes overview warmup tasks.
func (j *OverviewWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Dashboard == nil {
		return errors.New("overview warmup: handler not configured")
	}
	var payload OverviewWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskOverviewWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	logger.Info("starting overview warmup", slog.Int("window_days", payload.WindowDays))

	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := j.now()
	overview, err := j.Dashboard.GetOverview(runCtx, dashboard.Filter{WindowDays: payload.WindowDays})
	if err != nil {
		resultErr = err
		logger.Error("warm overview", slog.Any("error", err))
		return resultErr
	}

	logger.Info("completed overview warmup",
		slog.String("start", overview.Start),
		slog.String("end", overview.End),
		slog.Int("rows", overview.InvoiceCount),
		slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *OverviewWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskOverviewWarmup))
	}
	return slog.Default().With(slog.String("job", TaskOverviewWarmup))
}

func (j *OverviewWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *OverviewWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
