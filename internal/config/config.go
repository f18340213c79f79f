// Package config defines process configuration and its loading.
//
// Conventions:
// - Defaults live in New; Load layers a YAML file and env vars on top.
// - Validation errors wrap ErrInvalidConfig, loading errors wrap ErrLoadConfig.
package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/okian/motionmap/internal/domain/signal"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// SourceFile is the motion file to process.
	SourceFile string `koanf:"source_file"`

	// SourceFiles are processed together with SourceFile in batch runs.
	SourceFiles []string `koanf:"source_files"`

	// StartFrame discards every frame before it.
	StartFrame int `koanf:"start_frame"`

	// UseCentering re-expresses rotations relative to the first frame.
	UseCentering bool `koanf:"use_centering"`

	// Visualization is "quaternion" (alias "quat") or "euler".
	Visualization string `koanf:"visualization"`

	// Export enables writing the delimited streams.
	Export bool `koanf:"export"`

	// ExportDir receives the export files.
	ExportDir string `koanf:"export_dir"`

	// Delimiter separates exported values.
	Delimiter string `koanf:"delimiter"`

	// Precision is the number of significant digits per exported value.
	Precision int `koanf:"precision"`

	// EmbeddingFile is a 2D embedding of the motion.
	EmbeddingFile string `koanf:"embedding_file"`

	// EmbeddingDir holds alternative embeddings a session can cycle through.
	EmbeddingDir string `koanf:"embedding_dir"`

	// EmbeddingStride is the number of frames per embedding point.
	EmbeddingStride int `koanf:"embedding_stride"`

	// CrossfadeDuration is the embedding blend length in seconds.
	CrossfadeDuration float64 `koanf:"crossfade_duration"`

	// RenderDir receives PNG charts. Empty disables rendering.
	RenderDir string `koanf:"render_dir"`

	// Normalized renders min-max scaled rotation graphs.
	Normalized bool `koanf:"normalized"`

	// WorkerCount sets the number of pipeline workers for batch runs.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the job queue.
	QueueSize int `koanf:"queue_size"`

	// MetricsFile receives a prometheus text dump at exit. Empty disables it.
	MetricsFile string `koanf:"metrics_file"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Visualization:     string(signal.ModeQuaternion),
		Export:            true,
		ExportDir:         ".",
		Delimiter:         ",",
		Precision:         6,
		EmbeddingStride:   15,
		CrossfadeDuration: 1.0,
		WorkerCount:       runtime.NumCPU(),
		QueueSize:         1024,
	}
}

// Sources returns SourceFile followed by SourceFiles, without blanks or repeats.
func (c *Config) Sources() []string {
	seen := make(map[string]bool, len(c.SourceFiles)+1)
	var out []string
	for _, s := range append([]string{c.SourceFile}, c.SourceFiles...) {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// Crossfade is CrossfadeDuration as a time.Duration.
func (c *Config) Crossfade() time.Duration {
	return time.Duration(c.CrossfadeDuration * float64(time.Second))
}

// Mode is the parsed Visualization.
func (c *Config) Mode() signal.Mode {
	m, err := signal.ParseMode(c.Visualization)
	if err != nil {
		return signal.ModeQuaternion
	}
	return m
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.StartFrame < 0:
		return fmt.Errorf("%w: start_frame must be >= 0, got %d", ErrInvalidConfig, c.StartFrame)
	case c.Delimiter == "":
		return fmt.Errorf("%w: delimiter must not be empty", ErrInvalidConfig)
	case c.Precision < 1 || c.Precision > 17:
		return fmt.Errorf("%w: precision must be in [1,17], got %d", ErrInvalidConfig, c.Precision)
	case c.EmbeddingStride < 1:
		return fmt.Errorf("%w: embedding_stride must be >= 1, got %d", ErrInvalidConfig, c.EmbeddingStride)
	case c.CrossfadeDuration <= 0:
		return fmt.Errorf("%w: crossfade_duration must be > 0, got %v", ErrInvalidConfig, c.CrossfadeDuration)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be >= 1, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be >= 1, got %d", ErrInvalidConfig, c.QueueSize)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	if _, err := signal.ParseMode(c.Visualization); err != nil {
		return fmt.Errorf("%w: visualization: %w", ErrInvalidConfig, err)
	}
	return nil
}
