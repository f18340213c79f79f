// Package render draws rotation channel graphs and embedding scatters to PNG.
package render

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/okian/motionmap/internal/domain/embedding"
	"github.com/okian/motionmap/internal/domain/signal"
	"github.com/okian/motionmap/pkg/logger"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const (
	defaultWidth     = 10 * vg.Inch
	defaultRowHeight = 1.5 * vg.Inch
)

// componentColors follows channel order: x/pitch, y/yaw, z/roll, w.
var componentColors = []color.Color{
	color.RGBA{R: 0, G: 170, B: 200, A: 255},
	color.RGBA{R: 200, G: 0, B: 160, A: 255},
	color.RGBA{R: 220, G: 170, B: 0, A: 255},
	color.Black,
}

// Renderer writes charts into one directory.
type Renderer struct {
	dir       string
	width     vg.Length
	rowHeight vg.Length
	logger    logger.Logger
}

// NewRenderer returns a Renderer for dir. dir must exist.
func NewRenderer(dir string, opts ...Option) *Renderer {
	r := &Renderer{
		dir:       dir,
		width:     defaultWidth,
		rowHeight: defaultRowHeight,
		logger:    logger.Get().Named("render"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RotationGraphs stacks one graph per joint, one line per channel, frame
// position on X. With normalized set each channel is min-max scaled.
func (r *Renderer) RotationGraphs(ctx context.Context, base string, joints []signal.JointSeries, normalized bool) (string, error) {
	if len(joints) == 0 {
		return "", fmt.Errorf("%w: no joints to draw", ErrRender)
	}

	rows := make([][]*plot.Plot, len(joints))
	for i, js := range joints {
		p, err := jointPlot(js, normalized)
		if err != nil {
			return "", fmt.Errorf("%w: joint %s: %w", ErrRender, js.Name, err)
		}
		rows[i] = []*plot.Plot{p}
	}

	img := vgimg.New(r.width, r.rowHeight*vg.Length(len(rows)))
	dc := draw.New(img)
	canvases := plot.Align(rows, draw.Tiles{Rows: len(rows), Cols: 1}, dc)
	for i := range rows {
		rows[i][0].Draw(canvases[i][0])
	}

	name := base + "-rotations.png"
	if normalized {
		name = base + "-rotations-normalized.png"
	}
	path := filepath.Join(r.dir, name)
	if err := savePNG(img, path); err != nil {
		return "", err
	}
	r.logger.Debug(ctx, "rotation graphs rendered", logger.String("path", path), logger.Int("joints", len(joints)))
	return path, nil
}

func jointPlot(js signal.JointSeries, normalized bool) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = js.Name
	p.X.Min, p.X.Max = 0, 1
	if normalized {
		p.Y.Min, p.Y.Max = 0, 1
	}

	for k, ch := range js.Channels {
		values := ch.Values
		if normalized {
			values = ch.Normalized()
		}
		n := len(values)
		pts := make(plotter.XYs, n)
		for i, v := range values {
			pts[i].X = float64(i) / float64(n)
			pts[i].Y = v
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		line.Color = componentColors[k%len(componentColors)]
		p.Add(line)
		p.Legend.Add(ch.Component, line)
	}
	p.Legend.Top = true
	return p, nil
}

// Embedding draws the point set colored by index, the recent-selection trail
// and the selected point. trail is newest first; selected < 0 draws no cursor.
func (r *Renderer) Embedding(ctx context.Context, base string, idx *embedding.Index, trail []int, selected int) (string, error) {
	points := idx.Points()
	if len(points) == 0 {
		return "", fmt.Errorf("%w: %w", ErrRender, embedding.ErrEmptyIndex)
	}

	p := plot.New()
	p.Title.Text = base
	p.HideAxes()

	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i].X, xys[i].Y = pt[0], pt[1]
	}
	scatter, err := plotter.NewScatter(xys)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRender, err)
	}
	n := len(points)
	scatter.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		return draw.GlyphStyle{
			Color:  palette.HSVA{H: embedding.Hue(i, n), S: 1, V: 1, A: 1},
			Radius: vg.Points(1.5),
			Shape:  draw.CircleGlyph{},
		}
	}
	p.Add(scatter)

	if len(trail) > 1 {
		path := make(plotter.XYs, 0, len(trail))
		for _, i := range trail {
			if pt, ok := idx.Point(i); ok {
				path = append(path, plotter.XY{X: pt[0], Y: pt[1]})
			}
		}
		line, err := plotter.NewLine(path)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrRender, err)
		}
		line.Color = color.Gray{Y: 96}
		p.Add(line)
	}

	if pt, ok := idx.Point(selected); ok {
		cursor, err := plotter.NewScatter(plotter.XYs{{X: pt[0], Y: pt[1]}})
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrRender, err)
		}
		cursor.GlyphStyle = draw.GlyphStyle{Color: color.Black, Radius: vg.Points(6), Shape: draw.RingGlyph{}}
		p.Add(cursor)
	}

	path := filepath.Join(r.dir, base+"-embedding.png")
	if err := p.Save(r.width, r.width, path); err != nil {
		return "", fmt.Errorf("%w: %w", ErrRender, err)
	}
	r.logger.Debug(ctx, "embedding rendered", logger.String("path", path), logger.Int("points", n))
	return path, nil
}

func savePNG(img *vgimg.Canvas, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	return nil
}
