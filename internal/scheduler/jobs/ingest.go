package jobs

import (
	"context"

	"github.com/radezheng/marco/internal/pipeline"
	"github.com/radezheng/marco/pkg/logger"
)

// Notifier pushes job outcomes to realtime clients
type Notifier interface {
	Broadcast(event string, payload interface{})
}

// IngestJob runs the full ingest-and-classify pipeline on a schedule
// ⭐ SSOT: 定时 ingest 只在这里
// 同一个 runner 可以挂多个时点：早上补美盘数据，晚上补 A 股收盘数据。
type IngestJob struct {
	name     string
	schedule string
	runner   *pipeline.Runner
	notifier Notifier
	logger   *logger.Logger
}

// NewIngestJob creates a scheduled ingest job.
func NewIngestJob(name, schedule string, runner *pipeline.Runner, notifier Notifier, log *logger.Logger) *IngestJob {
	return &IngestJob{
		name:     name,
		schedule: schedule,
		runner:   runner,
		notifier: notifier,
		logger:   log,
	}
}

// Name returns the job name
func (j *IngestJob) Name() string {
	return j.name
}

// Schedule returns the cron expression
func (j *IngestJob) Schedule() string {
	return j.schedule
}

// Run executes one pipeline cycle.
// 部分序列失败不算任务失败，只有整体流程出错才返回 error 触发重试。
func (j *IngestJob) Run(ctx context.Context) error {
	result, err := j.runner.Run(ctx)
	if err != nil {
		return err
	}

	if result.HasErrors() {
		j.logger.WithField("errors", len(result.Errors)).Warn("定时 ingest 有部分序列失败")
	}

	if j.notifier != nil {
		j.notifier.Broadcast("ingest_completed", result)
	}
	return nil
}
