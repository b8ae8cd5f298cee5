package scheduler

import "errors"

var (
	// ErrQueueFull is returned by AddHandle when the scheduler already holds
	// the maximum number of processes.
	ErrQueueFull = errors.New("process queue is full")

	// ErrInvalidConfig is returned for non-positive limits or intervals.
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)
