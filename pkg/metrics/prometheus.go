// Package metrics provides Prometheus metrics for the motionmap pipeline.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector registered by the pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Skeleton
	framesResolved prometheus.Counter
	skeletonJoints prometheus.Gauge
	skeletonFrames prometheus.Gauge

	// Rotation continuity
	continuityFlips prometheus.Counter
	centeringRuns   prometheus.Counter

	// Export
	exportRows     *prometheus.CounterVec
	exportFailures *prometheus.CounterVec
	exportDuration *prometheus.HistogramVec

	// Embedding and crossfade
	embeddingPoints   prometheus.Gauge
	embeddingQueries  prometheus.Counter
	crossfadeLoads    prometheus.Counter
	crossfadeSwaps    prometheus.Counter
	crossfadeMismatch prometheus.Counter

	// Job queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerActive  prometheus.Gauge
	jobsProcessed *prometheus.CounterVec
	jobDuration   prometheus.Histogram

	errorsByComponent *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // dedicated registry without Go runtime collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "motionmap",
		subsystem:        "pipeline",
		histogramBuckets: []float64{0.5, 1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.framesResolved = m.counter("frames_resolved_total", "Frames whose global transforms were resolved")
	m.skeletonJoints = m.gauge("skeleton_joints", "Joint count of the most recently loaded skeleton")
	m.skeletonFrames = m.gauge("skeleton_frames", "Frame count of the most recently loaded skeleton")

	m.continuityFlips = m.counter("continuity_flips_total", "Quaternions negated by the continuity pass")
	m.centeringRuns = m.counter("centering_runs_total", "Rotation sequences re-based to their first frame")

	m.exportRows = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "export_rows_total",
		Help:      "Rows written per export stream",
	}, []string{"stream"})
	m.exportFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "export_failures_total",
		Help:      "Failed export streams",
	}, []string{"stream"})
	m.exportDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "export_duration_milliseconds",
		Help:      "Time spent writing one export stream",
		Buckets:   m.histogramBuckets,
	}, []string{"stream"})

	m.embeddingPoints = m.gauge("embedding_points", "Points in the active embedding")
	m.embeddingQueries = m.counter("embedding_queries_total", "Nearest-point queries")
	m.crossfadeLoads = m.counter("crossfade_loads_total", "Point sets loaded into the crossfade buffer")
	m.crossfadeSwaps = m.counter("crossfade_swaps_total", "Completed crossfades")
	m.crossfadeMismatch = m.counter("crossfade_shape_mismatch_total", "Samples that fell back to the current set on point-count mismatch")

	m.queueSize = m.gauge("queue_size", "Jobs waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Job queue capacity")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Jobs accepted by the queue")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Jobs rejected by the queue")

	m.workerActive = m.gauge("worker_active", "Workers currently running")
	m.jobsProcessed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "jobs_processed_total",
		Help:      "Jobs finished by status",
	}, []string{"status"})
	m.jobDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "job_duration_milliseconds",
		Help:      "End-to-end time of one motion job",
		Buckets:   m.histogramBuckets,
	})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_total",
		Help:      "Errors by component and kind",
	}, []string{"component", "kind"})
}

// RecordFramesResolved adds n resolved frames.
func RecordFramesResolved(n int) {
	globalManager.framesResolved.Add(float64(n))
}

// UpdateSkeletonShape records the size of the most recently loaded skeleton.
func UpdateSkeletonShape(joints, frames int) {
	globalManager.skeletonJoints.Set(float64(joints))
	globalManager.skeletonFrames.Set(float64(frames))
}

// RecordContinuityFlips adds n sign flips.
func RecordContinuityFlips(n int) {
	globalManager.continuityFlips.Add(float64(n))
}

// RecordCenteringRun counts one centering pass.
func RecordCenteringRun() {
	globalManager.centeringRuns.Inc()
}

// RecordExportRows adds rows written to stream.
func RecordExportRows(stream string, rows int) {
	globalManager.exportRows.WithLabelValues(stream).Add(float64(rows))
}

// RecordExportFailure counts a failed stream.
func RecordExportFailure(stream string) {
	globalManager.exportFailures.WithLabelValues(stream).Inc()
}

// RecordExportDuration observes the time spent on one stream.
func RecordExportDuration(stream string, ms float64) {
	globalManager.exportDuration.WithLabelValues(stream).Observe(ms)
}

// UpdateEmbeddingPoints sets the active embedding size.
func UpdateEmbeddingPoints(n int) {
	globalManager.embeddingPoints.Set(float64(n))
}

// RecordEmbeddingQuery counts a nearest-point query.
func RecordEmbeddingQuery() {
	globalManager.embeddingQueries.Inc()
}

// RecordCrossfadeLoad counts a load into the crossfade buffer.
func RecordCrossfadeLoad() {
	globalManager.crossfadeLoads.Inc()
}

// RecordCrossfadeSwap counts a completed fade.
func RecordCrossfadeSwap() {
	globalManager.crossfadeSwaps.Inc()
}

// RecordCrossfadeMismatch counts a degraded sample.
func RecordCrossfadeMismatch() {
	globalManager.crossfadeMismatch.Inc()
}

// UpdateQueueSize sets the number of waiting jobs.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue counts an accepted job.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueEnqueueError counts a rejected job.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// AddWorkerActive adjusts the running worker gauge by delta.
func AddWorkerActive(delta int) {
	globalManager.workerActive.Add(float64(delta))
}

// RecordJobProcessed counts a finished job with the given status ("ok" or "failed").
func RecordJobProcessed(status string) {
	globalManager.jobsProcessed.WithLabelValues(status).Inc()
}

// RecordJobDuration observes one job's wall time.
func RecordJobDuration(ms float64) {
	globalManager.jobDuration.Observe(ms)
}

// RecordErrorByComponent records an error with component and kind labels.
func RecordErrorByComponent(component, kind string) {
	globalManager.errorsByComponent.WithLabelValues(component, kind).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteTextfile dumps the registry in text exposition format to path,
// for pickup by a node_exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteTextfile, path, err)
	}
	return nil
}
