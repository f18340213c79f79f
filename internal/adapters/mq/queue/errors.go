package queue

import "errors"

// Sentinel kinds for enqueue failures.
var (
	ErrStopped = errors.New("queue stopped")
	ErrFull    = errors.New("queue full")
)
