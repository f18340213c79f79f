package rotation

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/smartystreets/goconvey/convey"
)

const tolerance = 1e-9

// noisySequence builds a slowly turning joint whose samples randomly switch
// hemisphere, the way exported solver data often does.
func noisySequence(r *rand.Rand, n int) []mgl64.Quat {
	axis := mgl64.Vec3{r.Float64(), r.Float64(), r.Float64() + 0.1}.Normalize()
	out := make([]mgl64.Quat, n)
	for i := range out {
		q := mgl64.QuatRotate(float64(i)*0.05, axis)
		if r.Intn(2) == 0 {
			q = q.Scale(-1)
		}
		out[i] = q
	}
	return out
}

func TestMakeContinuous(t *testing.T) {
	Convey("Given sequences with random sign flips", t, func() {
		r := rand.New(rand.NewSource(7))
		seq := Sequence{noisySequence(r, 200), noisySequence(r, 200), noisySequence(r, 3)}

		Convey("When processed without centering", func() {
			orig := seq.Clone()
			out, report, err := Process(seq, Options{})

			Convey("Then every frame is no farther from its predecessor than its negation", func() {
				So(err, ShouldBeNil)
				for _, frames := range out {
					for i := 1; i < len(frames); i++ {
						So(distance(frames[i-1], frames[i]), ShouldBeLessThanOrEqualTo, distance(frames[i-1], frames[i].Scale(-1)))
					}
				}
				So(report.TotalFlips(), ShouldBeGreaterThan, 0)
				So(report.Centered, ShouldBeFalse)
			})

			Convey("And the input is not modified", func() {
				So(seq, ShouldResemble, orig)
				again, _, _ := Process(seq, Options{})
				So(again, ShouldResemble, out)
			})
		})
	})

	Convey("Given a sequence q, -q, -q", t, func() {
		q := mgl64.QuatRotate(0.3, mgl64.Vec3{0, 1, 0})
		frames := []mgl64.Quat{q, q.Scale(-1), q.Scale(-1)}

		Convey("When made continuous", func() {
			flips, err := MakeContinuous(frames)

			Convey("Then each frame is compared with the corrected previous frame", func() {
				So(err, ShouldBeNil)
				So(flips, ShouldEqual, 2)
				for _, f := range frames {
					So(f.ApproxEqualThreshold(q, tolerance), ShouldBeTrue)
				}
			})
		})
	})

	Convey("Given a single frame", t, func() {
		frames := []mgl64.Quat{mgl64.QuatRotate(1, mgl64.Vec3{1, 0, 0}).Scale(-1)}
		flips, err := MakeContinuous(frames)
		So(err, ShouldBeNil)
		So(flips, ShouldEqual, 0)
	})
}

func TestCenter(t *testing.T) {
	Convey("Given a joint turning about Y", t, func() {
		axis := mgl64.Vec3{0, 1, 0}
		seq := Sequence{{
			mgl64.QuatRotate(0.5, axis),
			mgl64.QuatRotate(0.8, axis),
			mgl64.QuatRotate(1.2, axis),
		}}

		Convey("When processed with centering", func() {
			out, report, err := Process(seq, Options{Centering: true})

			Convey("Then frame 0 becomes identity", func() {
				So(err, ShouldBeNil)
				So(report.Centered, ShouldBeTrue)
				So(out[0][0].ApproxEqualThreshold(mgl64.QuatIdent(), tolerance), ShouldBeTrue)
			})

			Convey("And later frames are relative to frame 0", func() {
				So(out[0][1].ApproxEqualThreshold(mgl64.QuatRotate(0.3, axis), tolerance), ShouldBeTrue)
				So(out[0][2].ApproxEqualThreshold(mgl64.QuatRotate(0.7, axis), tolerance), ShouldBeTrue)
			})
		})
	})
}

func TestEmptySequence(t *testing.T) {
	Convey("Given a joint without frames", t, func() {
		seq := Sequence{{mgl64.QuatIdent()}, {}}

		Convey("Then processing fails with ErrEmptySequence", func() {
			_, _, err := Process(seq, Options{})
			So(errors.Is(err, ErrEmptySequence), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "joint 1")
		})

		Convey("Then the individual passes fail too", func() {
			_, err := MakeContinuous(nil)
			So(errors.Is(err, ErrEmptySequence), ShouldBeTrue)
			So(errors.Is(Center(nil), ErrEmptySequence), ShouldBeTrue)
		})
	})
}

func TestDistance(t *testing.T) {
	a := mgl64.Quat{W: 1, V: mgl64.Vec3{0, 0, 0}}
	b := mgl64.Quat{W: -0.5, V: mgl64.Vec3{0.5, -0.5, 0.5}}
	if got := distance(a, b); math.Abs(got-3) > tolerance {
		t.Fatalf("distance = %v, want 3", got)
	}
}
