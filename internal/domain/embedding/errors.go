package embedding

import "errors"

// ErrEmptyIndex is returned when querying an index without points.
var ErrEmptyIndex = errors.New("embedding index is empty")
