package scheduler

import "errors"

var (
	// ErrInvalidConfig is returned when a job has no task name or interval
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrDuplicateJob is returned when two jobs enqueue the same task
	ErrDuplicateJob = errors.New("duplicate scheduled job")
)
