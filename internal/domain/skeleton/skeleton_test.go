package skeleton_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/okian/motionmap/internal/domain/skeleton"
	. "github.com/smartystreets/goconvey/convey"
)

const eps = 1e-9

func still(offset mgl64.Vec3) skeleton.Local {
	return skeleton.Local{Translation: offset, Rotation: mgl64.QuatIdent()}
}

func twoJoint(t *testing.T, frames [][]skeleton.Local) *skeleton.Skeleton {
	t.Helper()
	joints := []skeleton.Joint{
		{Name: "Hips", Parent: skeleton.NoParent},
		{Name: "Spine", Parent: 0, Offset: mgl64.Vec3{0, 1, 0}},
	}
	s, err := skeleton.New(joints, frames, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestForwardKinematics(t *testing.T) {
	Convey("Given a root at the origin with a child one unit up", t, func() {
		s := twoJoint(t, [][]skeleton.Local{{still(mgl64.Vec3{}), still(mgl64.Vec3{0, 1, 0})}})

		Convey("Then the child's global position is (0,1,0)", func() {
			pos, err := s.GlobalPosition(1, 0)
			So(err, ShouldBeNil)
			So(pos.ApproxEqualThreshold(mgl64.Vec3{0, 1, 0}, eps), ShouldBeTrue)
		})

		Convey("And its relative position is the same vector", func() {
			rel, err := s.RelativePosition(1, 0)
			So(err, ShouldBeNil)
			So(rel.ApproxEqualThreshold(mgl64.Vec3{0, 1, 0}, eps), ShouldBeTrue)
		})

		Convey("And the root's relative position is its global position", func() {
			rel, err := s.RelativePosition(0, 0)
			So(err, ShouldBeNil)
			So(rel.ApproxEqualThreshold(mgl64.Vec3{}, eps), ShouldBeTrue)
		})
	})

	Convey("Given a root rotated 90 degrees about Z and translated", t, func() {
		root := skeleton.Local{
			Translation: mgl64.Vec3{2, 0, 0},
			Rotation:    mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1}),
		}
		s := twoJoint(t, [][]skeleton.Local{{root, still(mgl64.Vec3{0, 1, 0})}})

		Convey("Then the child's offset is rotated by the parent", func() {
			pos, err := s.GlobalPosition(1, 0)
			So(err, ShouldBeNil)
			So(pos.ApproxEqualThreshold(mgl64.Vec3{1, 0, 0}, 1e-9), ShouldBeTrue)
		})

		Convey("And the relative position is a plain difference of globals", func() {
			rel, err := s.RelativePosition(1, 0)
			So(err, ShouldBeNil)
			So(rel.ApproxEqualThreshold(mgl64.Vec3{-1, 0, 0}, 1e-9), ShouldBeTrue)
		})

		Convey("And the global transform matches parent * local", func() {
			m, err := s.GlobalTransform(1, 0)
			So(err, ShouldBeNil)
			want := root.Matrix().Mul4(still(mgl64.Vec3{0, 1, 0}).Matrix())
			So(m.ApproxEqualThreshold(want, eps), ShouldBeTrue)
		})
	})
}

func TestResolveMemo(t *testing.T) {
	Convey("Given a two-frame skeleton", t, func() {
		s := twoJoint(t, [][]skeleton.Local{
			{still(mgl64.Vec3{}), still(mgl64.Vec3{0, 1, 0})},
			{still(mgl64.Vec3{0, 0, 5}), still(mgl64.Vec3{0, 1, 0})},
		})

		Convey("When the same frame is resolved twice", func() {
			a, errA := s.Resolve(1)
			b, errB := s.Resolve(1)

			Convey("Then both callers see the same pose in separate values", func() {
				So(errA, ShouldBeNil)
				So(errB, ShouldBeNil)
				So(a, ShouldNotPointTo, b)
				So(a, ShouldResemble, b)
				So(a.Position(1).ApproxEqualThreshold(mgl64.Vec3{0, 1, 5}, eps), ShouldBeTrue)
			})
		})

		Convey("When a caller changes its resolved pose", func() {
			a, err := s.Resolve(1)
			So(err, ShouldBeNil)
			a.Globals[1] = mgl64.Translate3D(100, 100, 100)

			Convey("Then later lookups of that frame are unaffected", func() {
				b, err := s.Resolve(1)
				So(err, ShouldBeNil)
				So(b.Position(1).ApproxEqualThreshold(mgl64.Vec3{0, 1, 5}, eps), ShouldBeTrue)

				pos, err := s.GlobalPosition(1, 1)
				So(err, ShouldBeNil)
				So(pos.ApproxEqualThreshold(mgl64.Vec3{0, 1, 5}, eps), ShouldBeTrue)

				rel, err := s.RelativePosition(1, 1)
				So(err, ShouldBeNil)
				So(rel.ApproxEqualThreshold(mgl64.Vec3{0, 1, 0}, eps), ShouldBeTrue)
			})
		})

		Convey("When a different frame is resolved", func() {
			a, _ := s.Resolve(1)
			b, _ := s.Resolve(0)

			Convey("Then a fresh pose is computed", func() {
				So(a.Frame, ShouldEqual, 1)
				So(b.Frame, ShouldEqual, 0)
				So(b.Position(1).ApproxEqualThreshold(mgl64.Vec3{0, 1, 0}, eps), ShouldBeTrue)
			})
		})
	})
}

func TestOutOfRange(t *testing.T) {
	Convey("Given a one-frame skeleton", t, func() {
		s := twoJoint(t, [][]skeleton.Local{{still(mgl64.Vec3{}), still(mgl64.Vec3{0, 1, 0})}})

		Convey("Then bad frames and joints fail with ErrOutOfRange", func() {
			_, err := s.GlobalTransform(0, 1)
			So(errors.Is(err, skeleton.ErrOutOfRange), ShouldBeTrue)
			_, err = s.GlobalTransform(2, 0)
			So(errors.Is(err, skeleton.ErrOutOfRange), ShouldBeTrue)
			_, err = s.RelativePosition(-1, 0)
			So(errors.Is(err, skeleton.ErrOutOfRange), ShouldBeTrue)
			_, err = s.Resolve(-1)
			So(errors.Is(err, skeleton.ErrOutOfRange), ShouldBeTrue)
			_, err = s.Joint(5)
			So(errors.Is(err, skeleton.ErrOutOfRange), ShouldBeTrue)
		})
	})
}

func TestInvalidHierarchy(t *testing.T) {
	Convey("Given malformed hierarchies", t, func() {
		cases := map[string][]skeleton.Joint{
			"no joints": {},
			"two roots": {
				{Name: "a", Parent: skeleton.NoParent},
				{Name: "b", Parent: skeleton.NoParent},
			},
			"no root": {
				{Name: "a", Parent: 1},
				{Name: "b", Parent: 0},
			},
			"cycle": {
				{Name: "root", Parent: skeleton.NoParent},
				{Name: "b", Parent: 2},
				{Name: "c", Parent: 1},
			},
			"parent out of range": {
				{Name: "root", Parent: skeleton.NoParent},
				{Name: "b", Parent: 7},
			},
			"duplicate name": {
				{Name: "root", Parent: skeleton.NoParent},
				{Name: "root", Parent: 0},
			},
		}

		for name, joints := range cases {
			_, err := skeleton.New(joints, nil, 0)
			Convey("Then "+name+" is rejected", func() {
				So(errors.Is(err, skeleton.ErrInvalidHierarchy), ShouldBeTrue)
			})
		}

		Convey("Then a frame with the wrong transform count is rejected", func() {
			joints := []skeleton.Joint{{Name: "root", Parent: skeleton.NoParent}}
			_, err := skeleton.New(joints, [][]skeleton.Local{{}, {}}, 0)
			So(errors.Is(err, skeleton.ErrInvalidHierarchy), ShouldBeTrue)
		})
	})
}

func TestCropAndRotations(t *testing.T) {
	Convey("Given a three-frame skeleton", t, func() {
		turn := mgl64.QuatRotate(math.Pi/3, mgl64.Vec3{1, 0, 0})
		s := twoJoint(t, [][]skeleton.Local{
			{still(mgl64.Vec3{}), still(mgl64.Vec3{0, 1, 0})},
			{still(mgl64.Vec3{}), {Translation: mgl64.Vec3{0, 1, 0}, Rotation: turn}},
			{still(mgl64.Vec3{1, 0, 0}), still(mgl64.Vec3{0, 1, 0})},
		})

		Convey("When cropping to frame 1", func() {
			c, err := s.Crop(1)

			Convey("Then earlier frames are dropped", func() {
				So(err, ShouldBeNil)
				So(c.NumFrames(), ShouldEqual, 2)
				So(c.Duration(), ShouldEqual, 20*time.Millisecond)
				l, _ := c.Local(1, 0)
				So(l.Rotation.ApproxEqualThreshold(turn, eps), ShouldBeTrue)
			})
		})

		Convey("When cropping past the end", func() {
			_, err := s.Crop(3)
			So(errors.Is(err, skeleton.ErrOutOfRange), ShouldBeTrue)
		})

		Convey("When collecting local rotations", func() {
			rots := s.LocalRotations()

			Convey("Then they are indexed by joint then frame", func() {
				So(len(rots), ShouldEqual, 2)
				So(len(rots[1]), ShouldEqual, 3)
				So(rots[1][1].ApproxEqualThreshold(turn, eps), ShouldBeTrue)
			})
		})

		Convey("Then names resolve to indices", func() {
			i, ok := s.JointIndex("Spine")
			So(ok, ShouldBeTrue)
			So(i, ShouldEqual, 1)
			So(s.Root(), ShouldEqual, 0)
		})
	})
}

func TestComposeLocal(t *testing.T) {
	Convey("Given channels in Z X Y order", t, func() {
		channels := []skeleton.Channel{skeleton.XPosition, skeleton.YPosition, skeleton.ZPosition, skeleton.ZRotation, skeleton.XRotation, skeleton.YRotation}

		Convey("When composing values", func() {
			l, err := skeleton.ComposeLocal(mgl64.Vec3{1, 1, 1}, channels, []float64{1, 2, 3, 90, 45, 30})

			Convey("Then positions add to the offset and rotations chain in order", func() {
				So(err, ShouldBeNil)
				So(l.Translation.ApproxEqualThreshold(mgl64.Vec3{2, 3, 4}, eps), ShouldBeTrue)
				want := mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1}).
					Mul(mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{1, 0, 0})).
					Mul(mgl64.QuatRotate(math.Pi/6, mgl64.Vec3{0, 1, 0}))
				So(l.Rotation.ApproxEqualThreshold(want, 1e-12), ShouldBeTrue)
			})
		})

		Convey("When the value count does not match", func() {
			_, err := skeleton.ComposeLocal(mgl64.Vec3{}, channels, []float64{1})
			So(errors.Is(err, skeleton.ErrInvalidHierarchy), ShouldBeTrue)
		})
	})

	Convey("Given channel names", t, func() {
		c, err := skeleton.ParseChannel("zROTATION")
		So(err, ShouldBeNil)
		So(c, ShouldEqual, skeleton.ZRotation)
		So(c.String(), ShouldEqual, "Zrotation")
		_, err = skeleton.ParseChannel("Wrotation")
		So(err, ShouldNotBeNil)
	})
}
