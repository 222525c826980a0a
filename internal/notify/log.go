package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/wonny/symptrack/internal/contracts"
)

// LogNotifier writes every progress event to the log
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier creates a log notifier
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log.With().Str("component", "notify.log").Logger()}
}

// Notify implements contracts.ProgressNotifier
func (n *LogNotifier) Notify(ctx context.Context, event contracts.ProgressEvent) error {
	n.log.Info().
		Str("event_id", event.ID).
		Str("kind", string(event.Kind)).
		Str("user_id", event.UserID).
		Str("window_id", event.Progress.WindowID).
		Int("completed_days", event.Progress.CompletedDays).
		Int("total_days", event.Progress.TotalDays).
		Float64("percentage", event.Progress.Percentage).
		Bool("completed", event.Completed).
		Msg("progress changed")
	return nil
}
