package worker

import (
	"github.com/okian/motionmap/internal/domain/model"
	"github.com/okian/motionmap/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(logger logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithResultHandler receives the outcome of every job, successful or not.
// It is called from the worker goroutine.
func WithResultHandler(fn func(model.Result)) Option {
	return func(w *InMemoryWorker) {
		w.onResult = fn
	}
}
