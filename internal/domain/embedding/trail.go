package embedding

// DefaultTrailLength is how many recent selections a Trail keeps.
const DefaultTrailLength = 32

// Trail is a bounded history of selected point indices, newest first.
// It is not safe for concurrent use.
type Trail struct {
	limit   int
	indices []int
}

// NewTrail returns a Trail holding at most limit entries; limit < 1 uses DefaultTrailLength.
func NewTrail(limit int) *Trail {
	if limit < 1 {
		limit = DefaultTrailLength
	}
	return &Trail{limit: limit, indices: make([]int, 0, limit)}
}

// Push records i as the newest selection, dropping the oldest beyond the limit.
func (t *Trail) Push(i int) {
	if len(t.indices) < t.limit {
		t.indices = append(t.indices, 0)
	}
	copy(t.indices[1:], t.indices[:len(t.indices)-1])
	t.indices[0] = i
}

// Indices returns the history newest first.
func (t *Trail) Indices() []int { return append([]int(nil), t.indices...) }

func (t *Trail) Len() int { return len(t.indices) }

// Newest returns the latest selection; ok is false for an empty trail.
func (t *Trail) Newest() (i int, ok bool) {
	if len(t.indices) == 0 {
		return 0, false
	}
	return t.indices[0], true
}

// Opacity fades entries linearly from 1 at the newest to 0 past the oldest.
func (t *Trail) Opacity(pos int) float64 {
	n := len(t.indices)
	if n == 0 || pos < 0 || pos >= n {
		return 0
	}
	return 1 - float64(pos)/float64(n)
}

// Hue spreads n points evenly over the color wheel: point i gets i/n in [0,1).
func Hue(i, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(i) / float64(n)
}
