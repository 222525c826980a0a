package notify

import (
	"context"
	"errors"

	"github.com/wonny/symptrack/internal/contracts"
)

// Multi delivers each event to every notifier and joins their errors
type Multi []contracts.ProgressNotifier

// Notify implements contracts.ProgressNotifier
func (m Multi) Notify(ctx context.Context, event contracts.ProgressEvent) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
