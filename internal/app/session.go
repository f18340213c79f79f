package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/okian/motionmap/internal/adapters/embedfile"
	"github.com/okian/motionmap/internal/domain/crossfade"
	"github.com/okian/motionmap/internal/domain/embedding"
	"github.com/okian/motionmap/internal/domain/skeleton"
	"github.com/okian/motionmap/pkg/logger"
	"github.com/okian/motionmap/pkg/metrics"
)

// SessionOption applies a configuration option to the Session.
type SessionOption func(*Session)

// WithStride sets the number of frames per embedding point.
func WithStride(stride int) SessionOption {
	return func(s *Session) {
		if stride > 0 {
			s.stride = stride
		}
	}
}

// WithCrossfade sets how long a reloaded embedding takes to blend in.
func WithCrossfade(d time.Duration) SessionOption {
	return func(s *Session) {
		if d > 0 {
			s.fade = d
		}
	}
}

// WithTrailLength bounds the history of visited embedding points.
func WithTrailLength(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.trailLength = n
		}
	}
}

// WithSessionLogger sets a custom logger for the session.
func WithSessionLogger(l logger.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSessionClock replaces time.Now.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// Session ties the playback position of a skeleton to the cursor of an
// embedding. While playing, the frame drives the cursor; a probe drives the
// frame through the nearest embedding point. It is safe for concurrent use.
type Session struct {
	mu sync.Mutex

	skeleton *skeleton.Skeleton
	frame    int
	playing  bool

	stride      int
	fade        time.Duration
	trailLength int
	index       *embedding.Index
	buffer      *crossfade.Buffer
	trail       *embedding.Trail

	files []string // embeddings to cycle through
	file  int

	now    func() time.Time
	logger logger.Logger
}

// NewSession starts a playing session at frame 0 of s.
func NewSession(s *skeleton.Skeleton, opts ...SessionOption) *Session {
	sess := &Session{
		skeleton: s,
		playing:  true,
		stride:   embedding.DefaultStride,
		fade:     crossfade.DefaultDuration,
		now:      time.Now,
		file:     -1,
	}
	for _, opt := range opts {
		opt(sess)
	}
	if sess.logger == nil {
		sess.logger = logger.Get().Named("session")
	}
	sess.trail = embedding.NewTrail(sess.trailLength)
	sess.buffer = crossfade.New(
		crossfade.WithDuration(sess.fade),
		crossfade.WithMismatchHook(sess.onMismatch),
		crossfade.WithSwapHook(metrics.RecordCrossfadeSwap),
	)
	return sess
}

func (s *Session) onMismatch(err error) {
	metrics.RecordCrossfadeMismatch()
	s.logger.Warn(context.Background(), "embedding point counts differ; keeping current set", logger.Error(err))
}

// LoadEmbedding replaces the embedding. Queries use the new points at once;
// the displayed points blend towards them.
func (s *Session) LoadEmbedding(points []mgl64.Vec2) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.index = embedding.New(points, s.stride)
	s.buffer.Load(points, s.now())
	metrics.RecordCrossfadeLoad()
	metrics.UpdateEmbeddingPoints(len(points))
	s.syncCursor()
}

// LoadEmbeddingFile reads and loads the embedding at path.
func (s *Session) LoadEmbeddingFile(path string) error {
	points, err := embedfile.Load(path)
	if err != nil {
		return err
	}
	s.LoadEmbedding(points)
	s.logger.Info(context.Background(), "embedding loaded",
		logger.String("path", path),
		logger.Int("points", len(points)),
	)
	return nil
}

// SetEmbeddingDir lists the embeddings in dir for NextEmbedding.
func (s *Session) SetEmbeddingDir(dir string) (int, error) {
	files, err := embedfile.List(dir)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	s.files, s.file = files, -1
	s.mu.Unlock()
	return len(files), nil
}

// NextEmbedding loads the next file of the embedding directory, wrapping
// around, and returns its path.
func (s *Session) NextEmbedding() (string, error) {
	s.mu.Lock()
	if len(s.files) == 0 {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: no embedding files to cycle", ErrNoEmbedding)
	}
	s.file = (s.file + 1) % len(s.files)
	path := s.files[s.file]
	s.mu.Unlock()

	return path, s.LoadEmbeddingFile(path)
}

// Frame is the current playback frame.
func (s *Session) Frame() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// Playing reports whether Advance moves the frame.
func (s *Session) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// SetPlaying starts or pauses playback.
func (s *Session) SetPlaying(playing bool) {
	s.mu.Lock()
	s.playing = playing
	s.mu.Unlock()
}

// Advance moves one frame forward while playing, looping at the end, and
// returns the current frame.
func (s *Session) Advance() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.playing && s.skeleton.NumFrames() > 0 {
		s.frame = (s.frame + 1) % s.skeleton.NumFrames()
		s.syncCursor()
	}
	return s.frame
}

// Scrub jumps to a fraction of the clip; fraction is clamped to [0,1].
func (s *Session) Scrub(fraction float64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.skeleton.NumFrames()
	if n == 0 {
		return 0
	}
	s.frame = int(mgl64.Clamp(fraction, 0, 1) * float64(n-1))
	s.syncCursor()
	return s.frame
}

// Probe selects the embedding point nearest p and moves playback to the frame
// it describes. Points describing frames past the end of the clip are selected
// without moving playback.
func (s *Session) Probe(p mgl64.Vec2) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index == nil {
		return 0, ErrNoEmbedding
	}
	i, err := s.index.Nearest(p)
	if err != nil {
		return 0, fmt.Errorf("probe: %w", err)
	}
	metrics.RecordEmbeddingQuery()

	if f := s.index.FrameOf(i); f < s.skeleton.NumFrames() {
		s.frame = f
	}
	s.trail.Push(i)
	return i, nil
}

// Cursor is the embedding point describing the current frame.
func (s *Session) Cursor() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index == nil {
		return 0, ErrNoEmbedding
	}
	return s.index.IndexOf(s.frame), nil
}

// Trail lists recently visited embedding points, newest first.
func (s *Session) Trail() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trail.Indices()
}

// Index is the loaded embedding, or nil.
func (s *Session) Index() *embedding.Index {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Points returns the embedding points to display at now, blended while a
// reload is in progress.
func (s *Session) Points(now time.Time) []mgl64.Vec2 {
	return s.buffer.Sample(now)
}

// Pose resolves every joint at the current frame.
func (s *Session) Pose() (*skeleton.Pose, error) {
	pose, err := s.skeleton.Resolve(s.Frame())
	if err != nil {
		return nil, err
	}
	metrics.RecordFramesResolved(1)
	return pose, nil
}

// syncCursor records the point under the current frame when it changes.
// Callers hold mu.
func (s *Session) syncCursor() {
	if s.index == nil {
		return
	}
	i := s.index.IndexOf(s.frame)
	if i >= s.index.Len() {
		return
	}
	if last, ok := s.trail.Newest(); ok && last == i {
		return
	}
	s.trail.Push(i)
}
