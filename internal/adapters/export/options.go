package export

import (
	"github.com/okian/motionmap/pkg/logger"
)

// Option configures a Writer.
type Option func(*Writer)

// WithDelimiter sets the value separator. Empty keeps the default ",".
func WithDelimiter(d string) Option {
	return func(w *Writer) {
		if d != "" {
			w.format.Delimiter = d
		}
	}
}

// WithPrecision sets the significant digits per value.
func WithPrecision(p int) Option {
	return func(w *Writer) {
		if p > 0 {
			w.format.Precision = p
		}
	}
}

// WithLogger sets a custom logger for the writer.
func WithLogger(l logger.Logger) Option {
	return func(w *Writer) {
		if l != nil {
			w.logger = l
		}
	}
}
