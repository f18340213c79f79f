package skeleton

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// Channel identifies one animated degree of freedom of a joint.
type Channel uint8

const (
	XPosition Channel = iota
	YPosition
	ZPosition
	XRotation
	YRotation
	ZRotation
)

var channelNames = [...]string{"Xposition", "Yposition", "Zposition", "Xrotation", "Yrotation", "Zrotation"}

func (c Channel) String() string {
	if int(c) < len(channelNames) {
		return channelNames[c]
	}
	return fmt.Sprintf("Channel(%d)", c)
}

// IsRotation reports whether c carries an angle.
func (c Channel) IsRotation() bool {
	return c >= XRotation && c <= ZRotation
}

// Axis returns the unit axis the channel moves along or rotates about.
func (c Channel) Axis() mgl64.Vec3 {
	switch c {
	case XPosition, XRotation:
		return mgl64.Vec3{1, 0, 0}
	case YPosition, YRotation:
		return mgl64.Vec3{0, 1, 0}
	default:
		return mgl64.Vec3{0, 0, 1}
	}
}

// ParseChannel accepts BVH channel names such as "Zrotation", case-insensitively.
func ParseChannel(s string) (Channel, error) {
	for i, name := range channelNames {
		if strings.EqualFold(s, name) {
			return Channel(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown channel %q", ErrInvalidHierarchy, s)
}

// ComposeLocal builds a local transform from raw channel values given in
// channel order. Rotation values are degrees and compose left to right, so
// "Zrotation Xrotation Yrotation" yields Rz*Rx*Ry. Position values are added
// to the joint offset.
func ComposeLocal(offset mgl64.Vec3, channels []Channel, values []float64) (Local, error) {
	if len(values) != len(channels) {
		return Local{}, fmt.Errorf("%w: %d channel values for %d channels", ErrInvalidHierarchy, len(values), len(channels))
	}
	l := Local{Translation: offset, Rotation: mgl64.QuatIdent()}
	for i, ch := range channels {
		v := values[i]
		if ch.IsRotation() {
			l.Rotation = l.Rotation.Mul(mgl64.QuatRotate(mgl64.DegToRad(v), ch.Axis()))
			continue
		}
		l.Translation = l.Translation.Add(ch.Axis().Mul(v))
	}
	return l, nil
}
