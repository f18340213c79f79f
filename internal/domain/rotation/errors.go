package rotation

import "errors"

// ErrEmptySequence is returned when a joint has no frames to correct.
var ErrEmptySequence = errors.New("rotation sequence has no frames")
