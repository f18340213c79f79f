package signal

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/okian/motionmap/internal/domain/rotation"
	"github.com/okian/motionmap/internal/domain/skeleton"
)

// Table is frame-major numeric data: one row per frame, each row the
// concatenated components of every joint in joint order.
type Table [][]float64

// Format controls how a Table is serialized.
type Format struct {
	Delimiter string
	// Precision is the number of significant digits.
	Precision int
}

// DefaultFormat is comma delimited with six significant digits.
var DefaultFormat = Format{Delimiter: ",", Precision: 6}

// Encode writes t to w, one newline-terminated row per frame with a single
// delimiter between values. It returns the number of rows written.
func (t Table) Encode(w io.Writer, f Format) (int, error) {
	var buf []byte
	for i, row := range t {
		buf = buf[:0]
		for k, v := range row {
			if k > 0 {
				buf = append(buf, f.Delimiter...)
			}
			buf = strconv.AppendFloat(buf, v, 'g', f.Precision, 64)
		}
		buf = append(buf, '\n')
		if _, err := w.Write(buf); err != nil {
			return i, fmt.Errorf("write row %d: %w", i, err)
		}
	}
	return len(t), nil
}

// QuatTable lays out EncodeUnit-mapped (x,y,z,w) per joint per frame.
func QuatTable(seq rotation.Sequence) Table {
	return rotationTable(seq, 4, func(q mgl64.Quat, row []float64) []float64 {
		c := QuatChannels(q)
		return append(row, c[:]...)
	})
}

// EulerTable lays out EncodeAngle-mapped (pitch,yaw,roll) per joint per frame.
func EulerTable(seq rotation.Sequence) Table {
	return rotationTable(seq, 3, func(q mgl64.Quat, row []float64) []float64 {
		c := EulerChannels(q)
		return append(row, c[:]...)
	})
}

func rotationTable(seq rotation.Sequence, width int, add func(mgl64.Quat, []float64) []float64) Table {
	if len(seq) == 0 {
		return nil
	}
	frames := len(seq[0])
	t := make(Table, frames)
	for i := range t {
		row := make([]float64, 0, width*len(seq))
		for j := range seq {
			row = add(seq[j][i], row)
		}
		t[i] = row
	}
	return t
}

// PositionTables resolves every frame of s and returns the parent-relative
// ("local") and global position tables, three values per joint.
func PositionTables(s *skeleton.Skeleton) (local, global Table, err error) {
	n, m := s.NumFrames(), s.NumJoints()
	local = make(Table, n)
	global = make(Table, n)
	for f := 0; f < n; f++ {
		pose, err := s.Resolve(f)
		if err != nil {
			return nil, nil, err
		}
		lrow := make([]float64, 0, 3*m)
		grow := make([]float64, 0, 3*m)
		for j := 0; j < m; j++ {
			g := pose.Position(j)
			r := s.RelativePositionIn(pose, j)
			grow = append(grow, g[0], g[1], g[2])
			lrow = append(lrow, r[0], r[1], r[2])
		}
		local[f] = lrow
		global[f] = grow
	}
	return local, global, nil
}
