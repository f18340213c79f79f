package signal

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/okian/motionmap/internal/domain/rotation"
	"gonum.org/v1/gonum/floats"
)

// Mode selects which rotation encoding a series carries.
type Mode string

const (
	ModeQuaternion Mode = "quaternion"
	ModeEuler      Mode = "euler"
)

// MinRange is the smallest component span that counts as movement.
const MinRange = 1e-10

// helperJoint is a solver node some capture exports carry; it never moves meaningfully.
const helperJoint = "Solving"

// ParseMode accepts "quaternion" (or "quat") and "euler", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quaternion", "quat":
		return ModeQuaternion, nil
	case "euler":
		return ModeEuler, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Components is the number of channels per joint for m.
func (m Mode) Components() int {
	if m == ModeEuler {
		return 3
	}
	return 4
}

// ComponentNames labels the channels of m in order.
func (m Mode) ComponentNames() []string {
	if m == ModeEuler {
		return []string{"pitch", "yaw", "roll"}
	}
	return []string{"x", "y", "z", "w"}
}

// Series is one encoded channel of one joint over all frames.
type Series struct {
	Component string
	Values    []float64
	Min, Max  float64
}

// Range is Max - Min.
func (s Series) Range() float64 { return s.Max - s.Min }

// Normalized rescales Values to [0,1] by min-max. A flat series maps to zeros.
func (s Series) Normalized() []float64 {
	out := make([]float64, len(s.Values))
	r := s.Range()
	if r <= MinRange {
		return out
	}
	copy(out, s.Values)
	floats.AddConst(-s.Min, out)
	floats.Scale(1/r, out)
	return out
}

// JointSeries groups the channel series of one joint.
type JointSeries struct {
	Joint    int
	Name     string
	Channels []Series
}

// ChannelSeries encodes every joint's rotations for mode. Joints named
// "Solving" are skipped, as are joints none of whose channels span more than
// MinRange. names is indexed like seq.
func ChannelSeries(names []string, seq rotation.Sequence, mode Mode) ([]JointSeries, error) {
	if len(names) != len(seq) {
		return nil, fmt.Errorf("%d names for %d joints", len(names), len(seq))
	}
	labels := mode.ComponentNames()
	var out []JointSeries
	for j, frames := range seq {
		if names[j] == helperJoint || len(frames) == 0 {
			continue
		}
		js := JointSeries{Joint: j, Name: names[j], Channels: make([]Series, len(labels))}
		for k := range js.Channels {
			js.Channels[k].Component = labels[k]
			js.Channels[k].Values = make([]float64, len(frames))
		}
		for i, q := range frames {
			for k, v := range encode(q, mode) {
				js.Channels[k].Values[i] = v
			}
		}

		moving := false
		for k := range js.Channels {
			c := &js.Channels[k]
			c.Min, c.Max = floats.Min(c.Values), floats.Max(c.Values)
			if c.Range() > MinRange {
				moving = true
			}
		}
		if moving {
			out = append(out, js)
		}
	}
	return out, nil
}

func encode(q mgl64.Quat, mode Mode) []float64 {
	if mode == ModeEuler {
		c := EulerChannels(q)
		return c[:]
	}
	c := QuatChannels(q)
	return c[:]
}
