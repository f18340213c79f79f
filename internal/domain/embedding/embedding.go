// Package embedding maps an externally computed 2D embedding of a motion back
// to animation frames. Point i of the embedding describes frame i*stride.
package embedding

import (
	"github.com/go-gl/mathgl/mgl64"
)

// DefaultStride is the number of frames between consecutive embedding points.
const DefaultStride = 15

// Index is an immutable point set with a fixed frame stride.
type Index struct {
	points []mgl64.Vec2
	stride int
}

// New copies points into an Index. A stride below 1 falls back to DefaultStride.
func New(points []mgl64.Vec2, stride int) *Index {
	if stride < 1 {
		stride = DefaultStride
	}
	return &Index{points: append([]mgl64.Vec2(nil), points...), stride: stride}
}

func (x *Index) Len() int    { return len(x.points) }
func (x *Index) Stride() int { return x.stride }

// Point returns point i; ok is false when i is out of range.
func (x *Index) Point(i int) (mgl64.Vec2, bool) {
	if i < 0 || i >= len(x.points) {
		return mgl64.Vec2{}, false
	}
	return x.points[i], true
}

// Points returns a copy of the point set.
func (x *Index) Points() []mgl64.Vec2 {
	return append([]mgl64.Vec2(nil), x.points...)
}

// Nearest returns the index of the point closest to probe by squared
// Euclidean distance. Ties resolve to the lowest index.
func (x *Index) Nearest(probe mgl64.Vec2) (int, error) {
	if len(x.points) == 0 {
		return 0, ErrEmptyIndex
	}
	best, bestDist := 0, sqDist(x.points[0], probe)
	for i := 1; i < len(x.points); i++ {
		if d := sqDist(x.points[i], probe); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, nil
}

// FrameOf is the animation frame point i describes.
func (x *Index) FrameOf(i int) int { return i * x.stride }

// IndexOf is the point describing frame f, rounding down.
func (x *Index) IndexOf(f int) int { return f / x.stride }

func sqDist(a, b mgl64.Vec2) float64 {
	d := a.Sub(b)
	return d.Dot(d)
}
