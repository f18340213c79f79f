package service

import (
	"time"

	"github.com/okian/motionmap/internal/domain/signal"
	"github.com/okian/motionmap/pkg/logger"
)

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithStartFrame discards the frames before start.
func WithStartFrame(start int) Option {
	return func(p *Pipeline) {
		if start > 0 {
			p.startFrame = start
		}
	}
}

// WithCentering re-expresses rotations relative to the first frame.
func WithCentering(enabled bool) Option {
	return func(p *Pipeline) {
		p.centering = enabled
	}
}

// WithMode selects the channels used for rendered graphs.
func WithMode(mode signal.Mode) Option {
	return func(p *Pipeline) {
		if mode != "" {
			p.mode = mode
		}
	}
}

// WithNormalized renders min-max scaled graphs.
func WithNormalized(normalized bool) Option {
	return func(p *Pipeline) {
		p.normalized = normalized
	}
}

// WithExporter enables writing the delimited streams.
func WithExporter(e Exporter) Option {
	return func(p *Pipeline) {
		p.exporter = e
	}
}

// WithRenderer enables chart rendering.
func WithRenderer(r Renderer) Option {
	return func(p *Pipeline) {
		p.renderer = r
	}
}

// WithWorkerCount sets the number of workers Batch starts.
func WithWorkerCount(count int) Option {
	return func(p *Pipeline) {
		if count > 0 {
			p.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the Batch job queue.
func WithQueueSize(size int) Option {
	return func(p *Pipeline) {
		if size > 0 {
			p.queueSize = size
		}
	}
}

// WithLogger sets a custom logger for the pipeline.
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}
