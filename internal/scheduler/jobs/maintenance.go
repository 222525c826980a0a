package jobs

import (
	"context"

	"github.com/wonny/symptrack/internal/tracker"
	"github.com/wonny/symptrack/pkg/logger"
)

// ProgressSnapshotJob logs a summary of every loaded tracker
type ProgressSnapshotJob struct {
	registry *tracker.Registry
	logger   *logger.Logger
}

// NewProgressSnapshotJob creates a new snapshot job
func NewProgressSnapshotJob(registry *tracker.Registry, log *logger.Logger) *ProgressSnapshotJob {
	return &ProgressSnapshotJob{
		registry: registry,
		logger:   log,
	}
}

// Name returns the job name
func (j *ProgressSnapshotJob) Name() string {
	return "progress_snapshot"
}

// Schedule returns the cron schedule (every hour)
func (j *ProgressSnapshotJob) Schedule() string {
	return "0 0 * * * *"
}

// Run logs tracker counts by state
func (j *ProgressSnapshotJob) Run(ctx context.Context) error {
	snapshot := j.registry.Snapshot()
	if len(snapshot) == 0 {
		return nil
	}

	complete := 0
	for _, p := range snapshot {
		if p.IsComplete {
			complete++
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"trackers": len(snapshot),
		"complete": complete,
		"tracking": len(snapshot) - complete,
	}).Info("Progress snapshot")

	return nil
}
