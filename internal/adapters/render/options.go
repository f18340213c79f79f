package render

import (
	"github.com/okian/motionmap/pkg/logger"
	"gonum.org/v1/plot/vg"
)

// Option configures a Renderer.
type Option func(*Renderer)

// WithSize sets the image width and the height of one graph row.
func WithSize(width, rowHeight vg.Length) Option {
	return func(r *Renderer) {
		if width > 0 {
			r.width = width
		}
		if rowHeight > 0 {
			r.rowHeight = rowHeight
		}
	}
}

// WithLogger sets a custom logger for the renderer.
func WithLogger(l logger.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}
