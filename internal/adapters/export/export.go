// Package export writes signal tables to delimited text files, one file per
// stream, named "<base>-<stream>.csv".
package export

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/motionmap/internal/domain/rotation"
	"github.com/okian/motionmap/internal/domain/signal"
	"github.com/okian/motionmap/internal/domain/skeleton"
	"github.com/okian/motionmap/pkg/logger"
	"github.com/okian/motionmap/pkg/metrics"
)

// Stream names, also used as file name suffixes and metric labels.
const (
	StreamQuats           = "quats"
	StreamEuler           = "euler"
	StreamLocalPositions  = "local-positions"
	StreamGlobalPositions = "global-positions"
)

// Writer writes export streams into one directory.
type Writer struct {
	dir    string
	format signal.Format
	logger logger.Logger
}

// NewWriter returns a Writer for dir. dir must exist.
func NewWriter(dir string, opts ...Option) *Writer {
	w := &Writer{
		dir:    dir,
		format: signal.DefaultFormat,
		logger: logger.Get().Named("export"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Path is the file a stream of base is written to.
func (w *Writer) Path(base, stream string) string {
	return filepath.Join(w.dir, base+"-"+stream+".csv")
}

// Rotations writes the quaternion and Euler streams of seq. It stops at the
// first failing stream; files already written are left in place.
func (w *Writer) Rotations(ctx context.Context, base string, seq rotation.Sequence) ([]string, error) {
	return w.writeAll(ctx, base, []stream{
		{StreamQuats, signal.QuatTable(seq)},
		{StreamEuler, signal.EulerTable(seq)},
	})
}

// Positions writes the parent-relative and global position streams of s.
func (w *Writer) Positions(ctx context.Context, base string, s *skeleton.Skeleton) ([]string, error) {
	local, global, err := signal.PositionTables(s)
	if err != nil {
		return nil, err
	}
	return w.writeAll(ctx, base, []stream{
		{StreamLocalPositions, local},
		{StreamGlobalPositions, global},
	})
}

type stream struct {
	name  string
	table signal.Table
}

func (w *Writer) writeAll(ctx context.Context, base string, streams []stream) ([]string, error) {
	paths := make([]string, 0, len(streams))
	for _, s := range streams {
		path, err := w.WriteTable(ctx, base, s.name, s.table)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteTable writes t as stream name of base and returns the file path. Any
// failure is wrapped in ErrIOFailure and names the stream.
func (w *Writer) WriteTable(ctx context.Context, base, name string, t signal.Table) (string, error) {
	start := time.Now()
	path := w.Path(base, name)

	rows, err := w.write(path, t)
	if err != nil {
		metrics.RecordExportFailure(name)
		metrics.RecordErrorByComponent("export", "io")
		w.logger.Error(ctx, "export failed",
			logger.String("stream", name),
			logger.String("path", path),
			logger.Error(err),
		)
		return "", fmt.Errorf("%w: stream %s: %w", ErrIOFailure, name, err)
	}

	metrics.RecordExportRows(name, rows)
	metrics.RecordExportDuration(name, float64(time.Since(start).Milliseconds()))
	w.logger.Debug(ctx, "stream written",
		logger.String("stream", name),
		logger.String("path", path),
		logger.Int("rows", rows),
	)
	return path, nil
}

func (w *Writer) write(path string, t signal.Table) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	bw := bufio.NewWriter(f)
	rows, err := t.Encode(bw, w.format)
	if err == nil {
		err = bw.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return rows, err
}
