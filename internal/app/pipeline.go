// Package service loads motion files, derives their rotation and position
// signals, and drives the interactive embedding session.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/motionmap/internal/adapters/bvh"
	"github.com/okian/motionmap/internal/adapters/mq/queue"
	"github.com/okian/motionmap/internal/adapters/mq/worker"
	"github.com/okian/motionmap/internal/domain/model"
	"github.com/okian/motionmap/internal/domain/rotation"
	"github.com/okian/motionmap/internal/domain/signal"
	"github.com/okian/motionmap/internal/domain/skeleton"
	"github.com/okian/motionmap/pkg/logger"
	"github.com/okian/motionmap/pkg/metrics"
)

// Exporter writes the delimited signal streams of one motion.
type Exporter interface {
	Rotations(ctx context.Context, base string, seq rotation.Sequence) ([]string, error)
	Positions(ctx context.Context, base string, s *skeleton.Skeleton) ([]string, error)
}

// Renderer draws the rotation graphs of one motion.
type Renderer interface {
	RotationGraphs(ctx context.Context, base string, joints []signal.JointSeries, normalized bool) (string, error)
}

// Motion is a loaded clip with its corrected rotation signals.
type Motion struct {
	Skeleton  *skeleton.Skeleton
	Rotations rotation.Sequence
	Report    rotation.Report
}

// JointNames lists joint names in index order.
func (m *Motion) JointNames() []string {
	joints := m.Skeleton.Joints()
	names := make([]string, len(joints))
	for i, j := range joints {
		names[i] = j.Name
	}
	return names
}

// Pipeline processes motion files. It holds no per-file state, so one
// Pipeline can serve every worker of a pool.
type Pipeline struct {
	startFrame  int
	centering   bool
	mode        signal.Mode
	normalized  bool
	exporter    Exporter
	renderer    Renderer
	workerCount int
	queueSize   int

	now    func() time.Time
	logger logger.Logger
}

var _ worker.Processor = (*Pipeline)(nil)

// NewPipeline constructs a Pipeline. Without WithExporter or WithRenderer it
// only loads and corrects.
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		mode:        signal.ModeQuaternion,
		workerCount: runtime.NumCPU(),
		queueSize:   1024,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named("pipeline")
	}
	return p
}

// Load parses path, drops the frames before the start frame and makes every
// joint's rotation track continuous (and centered if enabled).
func (p *Pipeline) Load(ctx context.Context, path string) (*Motion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	clip, err := bvh.Load(path)
	if err != nil {
		metrics.RecordErrorByComponent("pipeline", "load")
		return nil, err
	}

	s := clip.Skeleton
	if p.startFrame > 0 {
		if s, err = s.Crop(p.startFrame); err != nil {
			metrics.RecordErrorByComponent("pipeline", "crop")
			return nil, fmt.Errorf("%s: start frame %d: %w", path, p.startFrame, err)
		}
	}
	metrics.UpdateSkeletonShape(s.NumJoints(), s.NumFrames())

	seq, report, err := rotation.Process(s.LocalRotations(), rotation.Options{Centering: p.centering})
	if err != nil {
		metrics.RecordErrorByComponent("pipeline", "rotation")
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	metrics.RecordContinuityFlips(report.TotalFlips())
	if report.Centered {
		metrics.RecordCenteringRun()
	}

	p.logger.Debug(ctx, "motion loaded",
		logger.String("file", path),
		logger.Int("joints", s.NumJoints()),
		logger.Int("frames", s.NumFrames()),
		logger.Int("flips", report.TotalFlips()),
		logger.Duration("frame_time", s.FrameTime()),
	)
	return &Motion{Skeleton: s, Rotations: seq, Report: report}, nil
}

// Process runs the whole pipeline for one job: load, export, render.
func (p *Pipeline) Process(ctx context.Context, job model.Job) (model.Result, error) {
	start := p.now()
	res := model.Result{JobID: job.ID, Source: job.Source}

	m, err := p.Load(ctx, job.Source)
	if err != nil {
		return res, err
	}
	res.Joints = m.Skeleton.NumJoints()
	res.Frames = m.Skeleton.NumFrames()
	res.Flips = m.Report.TotalFlips()

	base := job.BaseName()
	if p.exporter != nil {
		files, err := p.exporter.Rotations(ctx, base, m.Rotations)
		res.Files = append(res.Files, files...)
		if err != nil {
			return res, err
		}
		files, err = p.exporter.Positions(ctx, base, m.Skeleton)
		res.Files = append(res.Files, files...)
		if err != nil {
			return res, err
		}
		metrics.RecordFramesResolved(m.Skeleton.NumFrames())
	}

	if p.renderer != nil {
		series, err := signal.ChannelSeries(m.JointNames(), m.Rotations, p.mode)
		if err != nil {
			return res, err
		}
		if len(series) == 0 {
			p.logger.Warn(ctx, "no joint moves; skipping rotation graphs", logger.String("file", job.Source))
			res.Duration = p.now().Sub(start)
			return res, nil
		}
		chart, err := p.renderer.RotationGraphs(ctx, base, series, p.normalized)
		if err != nil {
			metrics.RecordErrorByComponent("pipeline", "render")
			return res, err
		}
		res.Charts = append(res.Charts, chart)
	}

	res.Duration = p.now().Sub(start)
	p.logger.Info(ctx, "motion processed",
		logger.String("job_id", job.ID.String()),
		logger.String("file", job.Source),
		logger.Int("files", len(res.Files)),
		logger.Int("charts", len(res.Charts)),
		logger.Duration("took", res.Duration),
	)
	return res, nil
}

// Batch processes sources concurrently through a job queue and worker pool.
// Results come back in source order; per-file failures are reported in
// Result.Err rather than as the returned error. Sources sharing a base name
// get distinct output names, so no two jobs write the same files.
func (p *Pipeline) Batch(ctx context.Context, sources []string) ([]model.Result, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}

	jobs := make([]model.Job, len(sources))
	position := make(map[uuid.UUID]int, len(sources))
	for i, src := range sources {
		jobs[i] = model.NewJob(src, p.now())
		position[jobs[i].ID] = i
	}
	for _, j := range nameJobs(jobs) {
		p.logger.Warn(ctx, "output name already taken; renamed",
			logger.String("file", j.Source),
			logger.String("name", j.Name),
		)
	}

	var mu sync.Mutex
	results := make([]model.Result, len(sources))
	q := queue.NewInMemoryQueue(queue.WithCapacity(max(p.queueSize, len(jobs))))
	pool := worker.NewPool(min(p.workerCount, len(jobs)), q, p,
		worker.WithResultHandler(func(r model.Result) {
			mu.Lock()
			defer mu.Unlock()
			results[position[r.JobID]] = r
		}),
	)

	p.logger.Info(ctx, "batch started",
		logger.Int("jobs", len(jobs)),
		logger.Int("workers", pool.Size()),
	)
	pool.Start(ctx)

	for _, j := range jobs {
		if err := q.Enqueue(ctx, j); err != nil {
			_ = pool.Shutdown(context.WithoutCancel(ctx))
			return nil, fmt.Errorf("enqueue %s: %w", j.Source, err)
		}
	}
	_ = q.Close()

	if err := pool.Wait(ctx); err != nil {
		_ = pool.Shutdown(context.WithoutCancel(ctx))
		return nil, err
	}

	mu.Lock()
	defer mu.Unlock()
	p.logger.Info(ctx, "batch finished",
		logger.Int("jobs", len(jobs)),
		logger.Int("failed", len(Failures(results))),
	)
	return results, nil
}

// nameJobs gives every job a distinct output name. The first job with a given
// base name keeps it; later ones get "-2", "-3" and so on, skipping names any
// other source would produce. It returns the renamed jobs.
func nameJobs(jobs []model.Job) []model.Job {
	natural := make(map[string]bool, len(jobs))
	for _, j := range jobs {
		natural[j.BaseName()] = true
	}

	var renamed []model.Job
	claimed := make(map[string]bool, len(jobs))
	for i := range jobs {
		base := jobs[i].BaseName()
		if !claimed[base] {
			claimed[base] = true
			continue
		}
		for n := 2; ; n++ {
			name := fmt.Sprintf("%s-%d", base, n)
			if !natural[name] && !claimed[name] {
				jobs[i].Name = name
				claimed[name] = true
				renamed = append(renamed, jobs[i])
				break
			}
		}
	}
	return renamed
}

// Failures returns the errors of the failed results.
func Failures(results []model.Result) []error {
	var errs []error
	for _, r := range results {
		if !r.OK() {
			errs = append(errs, r.Err)
		}
	}
	return errs
}

// Err joins the errors of the failed results, or returns nil.
func Err(results []model.Result) error {
	return errors.Join(Failures(results)...)
}
