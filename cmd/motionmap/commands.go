package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/okian/motionmap/internal/adapters/embedfile"
	"github.com/okian/motionmap/internal/adapters/export"
	"github.com/okian/motionmap/internal/adapters/render"
	app "github.com/okian/motionmap/internal/app"
	"github.com/okian/motionmap/internal/config"
	"github.com/okian/motionmap/internal/domain/embedding"
	"github.com/okian/motionmap/internal/domain/model"
	"github.com/okian/motionmap/internal/domain/signal"
	"github.com/okian/motionmap/pkg/logger"
	"github.com/okian/motionmap/pkg/metrics"
)

// pipelineFlags are shared by export and render.
type pipelineFlags struct {
	start  *int
	center *bool
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func addPipelineFlags(fs *flag.FlagSet, cfg *config.Config) pipelineFlags {
	return pipelineFlags{
		start:  fs.Int("start", cfg.StartFrame, "discard frames before this one"),
		center: fs.Bool("center", cfg.UseCentering, "express rotations relative to the first frame"),
	}
}

func (f pipelineFlags) options(cfg *config.Config) []app.Option {
	return []app.Option{
		app.WithStartFrame(*f.start),
		app.WithCentering(*f.center),
		app.WithMode(cfg.Mode()),
		app.WithNormalized(cfg.Normalized),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
	}
}

func sources(fs *flag.FlagSet, cfg *config.Config) []string {
	if fs.NArg() > 0 {
		return fs.Args()
	}
	return cfg.Sources()
}

func runExport(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("export", stderr)
	pf := addPipelineFlags(fs, cfg)
	dir := fs.String("out", cfg.ExportDir, "export directory")
	delim := fs.String("delimiter", cfg.Delimiter, "value delimiter")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := pf.options(cfg)
	if cfg.Export {
		opts = append(opts, app.WithExporter(export.NewWriter(*dir,
			export.WithDelimiter(*delim),
			export.WithPrecision(cfg.Precision),
		)))
	} else {
		logger.Get().Named("cli").Warn(ctx, "export disabled by config; only validating sources")
	}
	if cfg.RenderDir != "" {
		opts = append(opts, app.WithRenderer(render.NewRenderer(cfg.RenderDir)))
	}

	results, err := app.NewPipeline(opts...).Batch(ctx, sources(fs, cfg))
	if err != nil {
		return err
	}
	printResults(stdout, results)
	return app.Err(results)
}

func runRender(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("render", stderr)
	pf := addPipelineFlags(fs, cfg)
	dir := fs.String("out", cfg.RenderDir, "image directory")
	mode := fs.String("mode", cfg.Visualization, "graph channels: quaternion or euler")
	normalized := fs.Bool("normalized", cfg.Normalized, "scale every channel to [0,1]")
	frame := fs.Int("frame", -1, "frame to mark on the embedding chart")
	if err := fs.Parse(args); err != nil {
		return err
	}
	m, err := signal.ParseMode(*mode)
	if err != nil {
		return err
	}
	if *dir == "" {
		*dir = "."
	}

	renderer := render.NewRenderer(*dir)
	opts := append(pf.options(cfg), app.WithMode(m), app.WithNormalized(*normalized), app.WithRenderer(renderer))
	pipeline := app.NewPipeline(opts...)

	srcs := sources(fs, cfg)
	results, err := pipeline.Batch(ctx, srcs)
	if err != nil {
		return err
	}
	printResults(stdout, results)
	if err := app.Err(results); err != nil {
		return err
	}

	if cfg.EmbeddingFile == "" {
		return nil
	}
	chart, err := renderEmbedding(ctx, cfg, pipeline, renderer, srcs[0], *frame)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, chart)
	return nil
}

// renderEmbedding plays src up to frame so the chart shows the trail the
// cursor left on the embedding. A negative frame draws no cursor.
func renderEmbedding(ctx context.Context, cfg *config.Config, pipeline *app.Pipeline, renderer *render.Renderer, src string, frame int) (string, error) {
	m, err := pipeline.Load(ctx, src)
	if err != nil {
		return "", err
	}
	sess := app.NewSession(m.Skeleton,
		app.WithStride(cfg.EmbeddingStride),
		app.WithCrossfade(cfg.Crossfade()),
	)
	if err := sess.LoadEmbeddingFile(cfg.EmbeddingFile); err != nil {
		return "", err
	}

	selected := -1
	if frame >= 0 {
		target := min(frame, m.Skeleton.NumFrames()-1)
		for sess.Frame() < target {
			sess.Advance()
		}
		if selected, err = sess.Cursor(); err != nil {
			return "", err
		}
	}
	return renderer.Embedding(ctx, model.Job{Source: src}.BaseName(), sess.Index(), sess.Trail(), selected)
}

func runNearest(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("nearest", stderr)
	path := fs.String("embedding", cfg.EmbeddingFile, "embedding file")
	stride := fs.Int("stride", cfg.EmbeddingStride, "frames per embedding point")
	x := fs.Float64("x", 0, "probe x")
	y := fs.Float64("y", 0, "probe y")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return fmt.Errorf("nearest: no embedding file given")
	}

	points, err := embedfile.Load(*path)
	if err != nil {
		return err
	}
	idx := embedding.New(points, *stride)
	metrics.UpdateEmbeddingPoints(idx.Len())

	i, err := idx.Nearest(mgl64.Vec2{*x, *y})
	if err != nil {
		return fmt.Errorf("nearest: %w", err)
	}
	metrics.RecordEmbeddingQuery()
	logger.Get().Named("cli").Debug(ctx, "nearest point", logger.Int("index", i), logger.Int("points", idx.Len()))

	fmt.Fprintf(stdout, "index\t%d\nframe\t%d\n", i, idx.FrameOf(i))
	return nil
}

func printResults(w io.Writer, results []model.Result) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tJOINTS\tFRAMES\tFLIPS\tFILES\tSTATUS")
	for _, r := range results {
		status := "ok"
		if !r.OK() {
			status = "failed"
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%s\n", r.Source, r.Joints, r.Frames, r.Flips, len(r.Files)+len(r.Charts), status)
	}
	_ = tw.Flush()
}
