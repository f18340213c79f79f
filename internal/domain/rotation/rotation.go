// Package rotation post-processes per-joint quaternion sequences so they can be
// read as continuous signals.
//
// A unit quaternion q and its negation -q describe the same orientation, so a
// raw sequence may jump between hemispheres from one frame to the next. The
// continuity pass picks, frame by frame, the sign that stays closest to the
// previous frame. The optional centering pass re-expresses every frame relative
// to the first one.
package rotation

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Sequence holds quaternions indexed [joint][frame].
type Sequence [][]mgl64.Quat

// Clone returns a deep copy of s.
func (s Sequence) Clone() Sequence {
	out := make(Sequence, len(s))
	for j, frames := range s {
		out[j] = append([]mgl64.Quat(nil), frames...)
	}
	return out
}

// NumJoints is len(s).
func (s Sequence) NumJoints() int { return len(s) }

// Options controls Process.
type Options struct {
	Centering bool
}

// Report summarizes what Process changed.
type Report struct {
	// Flips is the number of frames negated per joint.
	Flips []int
	// Centered reports whether the centering pass ran.
	Centered bool
}

// TotalFlips sums Flips over all joints.
func (r Report) TotalFlips() int {
	n := 0
	for _, f := range r.Flips {
		n += f
	}
	return n
}

// MakeContinuous negates frames in place so consecutive quaternions lie in the
// same hemisphere. Frame i is compared with the already corrected frame i-1.
// It returns the number of negated frames.
func MakeContinuous(frames []mgl64.Quat) (int, error) {
	if len(frames) == 0 {
		return 0, ErrEmptySequence
	}
	flips := 0
	for i := 1; i < len(frames); i++ {
		prev, cur := frames[i-1], frames[i]
		if distance(prev, cur.Scale(-1)) < distance(prev, cur) {
			frames[i] = cur.Scale(-1)
			flips++
		}
	}
	return flips, nil
}

// Center rewrites frames in place as q[i] * inverse(q[0]); frame 0 becomes identity.
func Center(frames []mgl64.Quat) error {
	if len(frames) == 0 {
		return ErrEmptySequence
	}
	inv := frames[0].Inverse()
	for i := range frames {
		frames[i] = frames[i].Mul(inv)
	}
	return nil
}

// Process runs the continuity pass on every joint, then the centering pass if
// enabled. The input is left untouched. No renormalization is applied.
func Process(seq Sequence, opts Options) (Sequence, Report, error) {
	out := seq.Clone()
	report := Report{Flips: make([]int, len(out)), Centered: opts.Centering}

	for j, frames := range out {
		flips, err := MakeContinuous(frames)
		if err != nil {
			return nil, Report{}, fmt.Errorf("joint %d: %w", j, err)
		}
		report.Flips[j] = flips

		if opts.Centering {
			if err := Center(frames); err != nil {
				return nil, Report{}, fmt.Errorf("joint %d: %w", j, err)
			}
		}
	}
	return out, report, nil
}

// distance is the L1 distance between the (x,y,z,w) components of a and b.
func distance(a, b mgl64.Quat) float64 {
	return math.Abs(a.X()-b.X()) +
		math.Abs(a.Y()-b.Y()) +
		math.Abs(a.Z()-b.Z()) +
		math.Abs(a.W-b.W)
}
