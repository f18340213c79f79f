package signal_test

import (
	"bytes"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/okian/motionmap/internal/domain/rotation"
	"github.com/okian/motionmap/internal/domain/signal"
	"github.com/okian/motionmap/internal/domain/skeleton"
	. "github.com/smartystreets/goconvey/convey"
)

const tolerance = 1e-12

func TestAffineRoundTrip(t *testing.T) {
	Convey("Given values across the encoded domains", t, func() {
		Convey("Then quaternion components survive encode and decode", func() {
			for x := -1.0; x <= 1.0; x += 0.125 {
				y := signal.EncodeUnit(x)
				So(y, ShouldBeBetweenOrEqual, 0, 1)
				So(signal.DecodeUnit(y), ShouldAlmostEqual, x, tolerance)
			}
		})

		Convey("Then angles survive encode and decode", func() {
			for a := -math.Pi; a <= math.Pi; a += math.Pi / 16 {
				y := signal.EncodeAngle(a)
				So(y, ShouldBeBetweenOrEqual, 0, 1)
				So(signal.DecodeAngle(y), ShouldAlmostEqual, a, 1e-9)
			}
		})
	})
}

func TestEulerAngles(t *testing.T) {
	Convey("Given single-axis rotations", t, func() {
		Convey("Then rotation about X is pitch", func() {
			e := signal.EulerAngles(mgl64.QuatRotate(0.7, mgl64.Vec3{1, 0, 0}))
			So(e[0], ShouldAlmostEqual, 0.7, 1e-9)
			So(e[1], ShouldAlmostEqual, 0, 1e-9)
			So(e[2], ShouldAlmostEqual, 0, 1e-9)
		})

		Convey("Then rotation about Y is yaw", func() {
			e := signal.EulerAngles(mgl64.QuatRotate(-0.4, mgl64.Vec3{0, 1, 0}))
			So(e[0], ShouldAlmostEqual, 0, 1e-9)
			So(e[1], ShouldAlmostEqual, -0.4, 1e-9)
			So(e[2], ShouldAlmostEqual, 0, 1e-9)
		})

		Convey("Then rotation about Z is roll", func() {
			e := signal.EulerAngles(mgl64.QuatRotate(2.5, mgl64.Vec3{0, 0, 1}))
			So(e[0], ShouldAlmostEqual, 0, 1e-9)
			So(e[1], ShouldAlmostEqual, 0, 1e-9)
			So(e[2], ShouldAlmostEqual, 2.5, 1e-9)
		})

		Convey("Then identity encodes to the middle of every channel", func() {
			So(signal.EulerChannels(mgl64.QuatIdent()), ShouldResemble, [3]float64{0.5, 0.5, 0.5})
			So(signal.QuatChannels(mgl64.QuatIdent()), ShouldResemble, [4]float64{0.5, 0.5, 0.5, 1})
		})
	})
}

func TestTableEncode(t *testing.T) {
	Convey("Given two frames of two joints", t, func() {
		table := signal.Table{
			{1, 2, 3, 4, 5, 6},
			{1, 2, 3, 4, 5, 6},
		}

		Convey("When encoded with a comma", func() {
			var buf bytes.Buffer
			rows, err := table.Encode(&buf, signal.DefaultFormat)

			Convey("Then each row is comma joined and newline terminated", func() {
				So(err, ShouldBeNil)
				So(rows, ShouldEqual, 2)
				So(buf.String(), ShouldEqual, "1,2,3,4,5,6\n1,2,3,4,5,6\n")
			})
		})

		Convey("When encoded twice", func() {
			var a, b bytes.Buffer
			noisy := signal.Table{{math.Pi, 1.0 / 3, -2e-7}}
			_, _ = noisy.Encode(&a, signal.Format{Delimiter: "\t", Precision: 6})
			_, _ = noisy.Encode(&b, signal.Format{Delimiter: "\t", Precision: 6})

			Convey("Then the output is byte identical", func() {
				So(a.Bytes(), ShouldResemble, b.Bytes())
				So(a.String(), ShouldEqual, "3.14159\t0.333333\t-2e-07\n")
			})
		})

		Convey("When the writer fails", func() {
			_, err := table.Encode(failingWriter{}, signal.DefaultFormat)
			So(errors.Is(err, errBroken), ShouldBeTrue)
		})
	})
}

func TestRotationTables(t *testing.T) {
	Convey("Given a two-joint, two-frame rotation sequence", t, func() {
		turn := mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1})
		seq := rotation.Sequence{
			{mgl64.QuatIdent(), mgl64.QuatIdent()},
			{mgl64.QuatIdent(), turn},
		}

		Convey("Then the quaternion table is frame-major with four values per joint", func() {
			table := signal.QuatTable(seq)
			So(len(table), ShouldEqual, 2)
			So(len(table[1]), ShouldEqual, 8)
			So(table[0], ShouldResemble, []float64{0.5, 0.5, 0.5, 1, 0.5, 0.5, 0.5, 1})
			So(table[1][6], ShouldAlmostEqual, signal.EncodeUnit(math.Sqrt2/2), tolerance)
		})

		Convey("Then the euler table carries three values per joint", func() {
			table := signal.EulerTable(seq)
			So(len(table[0]), ShouldEqual, 6)
			So(table[1][5], ShouldAlmostEqual, 0.75, 1e-9)
		})

		Convey("Then an empty sequence yields an empty table", func() {
			So(signal.QuatTable(nil), ShouldBeEmpty)
		})
	})
}

func TestPositionTables(t *testing.T) {
	Convey("Given a root moving along X with a child above it", t, func() {
		joints := []skeleton.Joint{
			{Name: "root", Parent: skeleton.NoParent},
			{Name: "child", Parent: 0, Offset: mgl64.Vec3{0, 1, 0}},
		}
		frame := func(x float64) []skeleton.Local {
			return []skeleton.Local{
				{Translation: mgl64.Vec3{x, 0, 0}, Rotation: mgl64.QuatIdent()},
				{Translation: mgl64.Vec3{0, 1, 0}, Rotation: mgl64.QuatIdent()},
			}
		}
		s, err := skeleton.New(joints, [][]skeleton.Local{frame(0), frame(2)}, time.Second/30)
		So(err, ShouldBeNil)

		Convey("When building position tables", func() {
			local, global, err := signal.PositionTables(s)

			Convey("Then global rows hold world positions", func() {
				So(err, ShouldBeNil)
				So(global[0], ShouldResemble, []float64{0, 0, 0, 0, 1, 0})
				So(global[1], ShouldResemble, []float64{2, 0, 0, 2, 1, 0})
			})

			Convey("Then local rows subtract the parent position", func() {
				So(local[1], ShouldResemble, []float64{2, 0, 0, 0, 1, 0})
			})
		})
	})
}

func TestChannelSeries(t *testing.T) {
	Convey("Given a moving joint, a static joint and a solver helper", t, func() {
		axis := mgl64.Vec3{1, 0, 0}
		moving := []mgl64.Quat{mgl64.QuatRotate(0, axis), mgl64.QuatRotate(0.5, axis), mgl64.QuatRotate(1, axis)}
		static := []mgl64.Quat{mgl64.QuatIdent(), mgl64.QuatIdent(), mgl64.QuatIdent()}
		seq := rotation.Sequence{moving, static, moving}
		names := []string{"Arm", "Hips", "Solving"}

		Convey("When building quaternion series", func() {
			series, err := signal.ChannelSeries(names, seq, signal.ModeQuaternion)

			Convey("Then only the moving joint is kept", func() {
				So(err, ShouldBeNil)
				So(len(series), ShouldEqual, 1)
				So(series[0].Name, ShouldEqual, "Arm")
				So(len(series[0].Channels), ShouldEqual, 4)
				So(series[0].Channels[0].Component, ShouldEqual, "x")
			})

			Convey("And the normalized view spans [0,1]", func() {
				x := series[0].Channels[0]
				n := x.Normalized()
				So(n[0], ShouldAlmostEqual, 0, tolerance)
				So(n[2], ShouldAlmostEqual, 1, tolerance)
				So(series[0].Channels[1].Normalized(), ShouldResemble, []float64{0, 0, 0})
			})
		})

		Convey("When building euler series", func() {
			series, err := signal.ChannelSeries(names, seq, signal.ModeEuler)
			So(err, ShouldBeNil)
			So(len(series[0].Channels), ShouldEqual, 3)
			So(series[0].Channels[0].Max, ShouldAlmostEqual, signal.EncodeAngle(1), 1e-9)
		})

		Convey("When names do not line up", func() {
			_, err := signal.ChannelSeries(names[:1], seq, signal.ModeEuler)
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given visualization names", t, func() {
		m, err := signal.ParseMode("quat")
		So(err, ShouldBeNil)
		So(m, ShouldEqual, signal.ModeQuaternion)
		m, err = signal.ParseMode("Euler")
		So(err, ShouldBeNil)
		So(m.Components(), ShouldEqual, 3)
		_, err = signal.ParseMode("axis-angle")
		So(errors.Is(err, signal.ErrUnknownMode), ShouldBeTrue)
	})
}

var errBroken = errors.New("broken pipe")

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errBroken }
