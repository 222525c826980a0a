package contracts

import "context"

// WindowStore persists the tracker's window value
// ⭐ SSOT: 윈도우 저장소 인터페이스 (저장 엔진은 외부 협력자)
type WindowStore interface {
	// Load returns ErrWindowNotFound when the user has no window yet
	Load(ctx context.Context, userID string) (*Window, error)
	// Save replaces the user's current window as one step
	Save(ctx context.Context, w *Window) error
}

// ProgressNotifier receives "progress changed" notifications
type ProgressNotifier interface {
	Notify(ctx context.Context, event ProgressEvent) error
}

// PredictionTrigger is called when a window becomes complete
type PredictionTrigger interface {
	WindowCompleted(ctx context.Context, progress Progress) error
}
