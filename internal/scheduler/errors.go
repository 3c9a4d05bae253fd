package scheduler

import "errors"

var (
	// ErrRunInProgress indicates a run was requested while another is executing.
	ErrRunInProgress = errors.New("a crawl run is already in progress")

	// ErrInvalidInterval indicates a non-positive trigger interval.
	ErrInvalidInterval = errors.New("interval must be positive")

	// ErrAlreadyStarted indicates Start was called twice.
	ErrAlreadyStarted = errors.New("scheduler already started")
)
