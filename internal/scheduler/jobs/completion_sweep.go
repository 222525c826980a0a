package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/symptrack/internal/contracts"
	"github.com/wonny/symptrack/internal/tracker"
	"github.com/wonny/symptrack/pkg/logger"
)

// CompleteLister lists users whose stored window is complete
// (storage.PostgresStore implements it)
type CompleteLister interface {
	CompleteUsers(ctx context.Context) ([]string, error)
}

// CompletionSweepJob re-announces complete windows to the prediction
// trigger. The trigger deduplicates by window id, so repeats are harmless.
type CompletionSweepJob struct {
	registry *tracker.Registry
	trigger  contracts.PredictionTrigger
	lister   CompleteLister // optional, loads windows completed before a restart
	schedule string
	logger   *logger.Logger
}

// NewCompletionSweepJob creates a new completion sweep job
func NewCompletionSweepJob(
	registry *tracker.Registry,
	trigger contracts.PredictionTrigger,
	lister CompleteLister,
	schedule string,
	log *logger.Logger,
) *CompletionSweepJob {
	if schedule == "" {
		schedule = "0 */10 * * * *"
	}
	return &CompletionSweepJob{
		registry: registry,
		trigger:  trigger,
		lister:   lister,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *CompletionSweepJob) Name() string {
	return "completion_sweep"
}

// Schedule returns the cron schedule
func (j *CompletionSweepJob) Schedule() string {
	return j.schedule
}

// Run announces every complete window
func (j *CompletionSweepJob) Run(ctx context.Context) error {
	if j.lister != nil {
		users, err := j.lister.CompleteUsers(ctx)
		if err != nil {
			return fmt.Errorf("list complete users: %w", err)
		}
		for _, userID := range users {
			if _, err := j.registry.Get(ctx, userID); err != nil {
				j.logger.WithError(err).WithField("user_id", userID).Warn("failed to load tracker")
			}
		}
	}

	var errs []error
	announced := 0
	for _, t := range j.registry.Trackers() {
		progress := t.Progress()
		if !progress.IsComplete {
			continue
		}
		if err := j.trigger.WindowCompleted(ctx, progress); err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", progress.UserID, err))
			continue
		}
		announced++
	}

	if announced > 0 {
		j.logger.WithField("complete_windows", announced).Debug("Completion sweep finished")
	}
	return errors.Join(errs...)
}
