package render

import "errors"

// ErrRender wraps failures to build or save a chart.
var ErrRender = errors.New("render chart")
