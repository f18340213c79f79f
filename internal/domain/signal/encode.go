// Package signal turns joint rotations and positions into flat numeric
// channels: affine encodings into [0,1], frame-major tables and per-joint
// series for charting.
package signal

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// EncodeUnit maps a quaternion component from [-1,1] to [0,1].
func EncodeUnit(x float64) float64 { return x/2 + 0.5 }

// DecodeUnit inverts EncodeUnit.
func DecodeUnit(y float64) float64 { return (y - 0.5) * 2 }

// EncodeAngle maps an angle in radians from [-π,π] to [0,1].
func EncodeAngle(a float64) float64 { return a/(2*math.Pi) + 0.5 }

// DecodeAngle inverts EncodeAngle.
func DecodeAngle(y float64) float64 { return (y - 0.5) * 2 * math.Pi }

const eulerEpsilon = 1e-12

// EulerAngles returns (pitch, yaw, roll) in radians, matching glm::eulerAngles.
// Pitch and roll lie in [-π,π], yaw in [-π/2,π/2].
func EulerAngles(q mgl64.Quat) mgl64.Vec3 {
	x, y, z, w := q.X(), q.Y(), q.Z(), q.W
	return mgl64.Vec3{pitch(x, y, z, w), yaw(x, y, z, w), roll(x, y, z, w)}
}

func pitch(x, y, z, w float64) float64 {
	sy := 2 * (y*z + w*x)
	sx := w*w - x*x - y*y + z*z
	// Gimbal lock: atan2(0,0) is undefined, fall back to the half-angle form.
	if math.Abs(sx) < eulerEpsilon && math.Abs(sy) < eulerEpsilon {
		return 2 * math.Atan2(x, w)
	}
	return math.Atan2(sy, sx)
}

func yaw(x, y, z, w float64) float64 {
	return math.Asin(mgl64.Clamp(-2*(x*z-w*y), -1, 1))
}

func roll(x, y, z, w float64) float64 {
	sy := 2 * (x*y + w*z)
	sx := w*w + x*x - y*y - z*z
	if math.Abs(sx) < eulerEpsilon && math.Abs(sy) < eulerEpsilon {
		return 0
	}
	return math.Atan2(sy, sx)
}

// QuatChannels encodes (x,y,z,w) of q with EncodeUnit.
func QuatChannels(q mgl64.Quat) [4]float64 {
	return [4]float64{EncodeUnit(q.X()), EncodeUnit(q.Y()), EncodeUnit(q.Z()), EncodeUnit(q.W)}
}

// EulerChannels encodes EulerAngles(q) with EncodeAngle.
func EulerChannels(q mgl64.Quat) [3]float64 {
	e := EulerAngles(q)
	return [3]float64{EncodeAngle(e[0]), EncodeAngle(e[1]), EncodeAngle(e[2])}
}
