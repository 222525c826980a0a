package contracts

import "errors"

// Tracking errors
// Raised errors mean the operation did not execute and state is unchanged.
var (
	ErrInvalidScenario   = errors.New("invalid scenario")
	ErrInvalidParameter  = errors.New("invalid parameter")
	ErrPeriodNotComplete = errors.New("period not complete")
	ErrWindowNotFound    = errors.New("window not found")
)
