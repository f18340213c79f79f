package skeleton

import "errors"

// Sentinel error kinds for hierarchy queries.
var (
	ErrOutOfRange       = errors.New("joint or frame index out of range")
	ErrInvalidHierarchy = errors.New("invalid joint hierarchy")
)
