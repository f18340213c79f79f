// Package crossfade blends between two 2D point sets over time so a reloaded
// embedding slides into place instead of jumping.
package crossfade

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// DefaultDuration is the blend length when none is configured.
const DefaultDuration = time.Second

// State is the phase of a Buffer.
type State int

const (
	Settled State = iota
	Blending
)

func (s State) String() string {
	if s == Blending {
		return "blending"
	}
	return "settled"
}

// Buffer holds the displayed (current) point set and, while blending, the
// set it is moving towards (incoming). All methods are safe for concurrent use.
type Buffer struct {
	mu         sync.Mutex
	state      State
	current    []mgl64.Vec2
	incoming   []mgl64.Vec2
	start      time.Time
	duration   time.Duration
	onMismatch func(error)
	onSwap     func()
}

// New returns a settled, empty Buffer.
func New(opts ...Option) *Buffer {
	b := &Buffer{duration: DefaultDuration}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Load installs points. Into an empty buffer they become current at once;
// otherwise a blend starts at now. Loading while already blending replaces the
// incoming set and restarts the blend from the current set.
func (b *Buffer) Load(points []mgl64.Vec2, now time.Time) {
	cp := append([]mgl64.Vec2(nil), points...)

	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.current) == 0 {
		b.current = cp
		b.incoming = nil
		b.state = Settled
		return
	}
	b.incoming = cp
	b.start = now
	b.state = Blending
}

// Sample returns the point set to display at now. While blending each point is
// interpolated with a smooth-step ease; once the blend is complete incoming
// becomes current. A length mismatch returns current unchanged and fires the
// mismatch hook. The call that completes a blend fires the swap hook.
func (b *Buffer) Sample(now time.Time) []mgl64.Vec2 {
	out, swapped, mismatch := b.sample(now)
	if mismatch != nil && b.onMismatch != nil {
		b.onMismatch(mismatch)
	}
	if swapped && b.onSwap != nil {
		b.onSwap()
	}
	return out
}

func (b *Buffer) sample(now time.Time) (out []mgl64.Vec2, swapped bool, mismatch error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == Settled {
		return clone(b.current), false, nil
	}

	t := Progress(now.Sub(b.start), b.duration)
	if len(b.current) != len(b.incoming) {
		mismatch = fmt.Errorf("%w: current %d, incoming %d", ErrMismatchedShape, len(b.current), len(b.incoming))
	}

	if t >= 1 {
		b.current = b.incoming
		b.incoming = nil
		b.state = Settled
		return clone(b.current), true, mismatch
	}
	if mismatch != nil {
		return clone(b.current), false, mismatch
	}

	e := Ease(t)
	out = make([]mgl64.Vec2, len(b.current))
	for i, from := range b.current {
		out[i] = from.Add(b.incoming[i].Sub(from).Mul(e))
	}
	return out, false, nil
}

// State reports whether a blend is in progress.
func (b *Buffer) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Current returns a copy of the settled point set.
func (b *Buffer) Current() []mgl64.Vec2 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return clone(b.current)
}

// Duration is the configured blend length.
func (b *Buffer) Duration() time.Duration { return b.duration }

// Progress is elapsed/duration clamped to [0,1].
func Progress(elapsed, duration time.Duration) float64 {
	if duration <= 0 {
		return 1
	}
	return mgl64.Clamp(float64(elapsed)/float64(duration), 0, 1)
}

// Ease is the smooth-step curve 3t² − 2t³.
func Ease(t float64) float64 {
	return t * t * (3 - 2*t)
}

func clone(p []mgl64.Vec2) []mgl64.Vec2 {
	return append([]mgl64.Vec2(nil), p...)
}
