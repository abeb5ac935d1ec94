// Package plot renders ordination scatter plots and exports them as
// PNG, SVG, or PDF through gonum/plot's vg backends.
package plot

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"goord/domain/core"
	"goord/domain/matrix"
	"goord/domain/ordination"
	"goord/ports"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgpdf"
	"gonum.org/v1/plot/vg/vgsvg"
)

// Renderer implements ports.RendererPort
type Renderer struct {
	dpi    int
	width  vg.Length
	height vg.Length
}

// NewRenderer creates a renderer with the given raster DPI and canvas
// size in inches.
func NewRenderer(dpi int, widthIn, heightIn float64) *Renderer {
	return &Renderer{
		dpi:    dpi,
		width:  vg.Length(widthIn) * vg.Inch,
		height: vg.Length(heightIn) * vg.Inch,
	}
}

// point is one plotted sample after projection and blank filtering
type point struct {
	x, y  float64
	value string
}

// Render draws the requested scatter and encodes it in spec.Format.
// Samples whose coloring value is blank are left out, matching the
// blank filtering applied before significance testing.
func (r *Renderer) Render(ord *ordination.Result, meta *matrix.Metadata, spec ports.PlotSpec) ([]byte, error) {
	pts, xLabel, yLabel, err := r.project(ord, meta, spec)
	if err != nil {
		return nil, err
	}
	if len(pts) == 0 {
		return nil, core.NewInsufficientDataError("plot", fmt.Sprintf("variable %q has no non-blank values", spec.ColorBy))
	}

	p := plot.New()
	p.Title.Text = spec.Title
	if p.Title.Text == "" {
		p.Title.Text = fmt.Sprintf("PCoA colored by %s", spec.ColorBy)
	}
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())

	if spec.Categorical {
		err = addCategoricalScatter(p, pts, spec.Palette)
	} else {
		err = addContinuousScatter(p, pts, spec.Palette, spec.ColorBy)
	}
	if err != nil {
		return nil, err
	}

	return r.export(p, spec.Format)
}

// project resolves axes, applies flips, and attaches color values
func (r *Renderer) project(ord *ordination.Result, meta *matrix.Metadata, spec ports.PlotSpec) ([]point, string, string, error) {
	switch spec.View {
	case ports.View3D:
		return r.project3D(ord, meta, spec)
	case ports.View2D, "":
		return r.project2D(ord, meta, spec)
	default:
		return nil, "", "", core.NewValidationError("plot", fmt.Sprintf("unknown view %q", spec.View))
	}
}

func (r *Renderer) project2D(ord *ordination.Result, meta *matrix.Metadata, spec ports.PlotSpec) ([]point, string, string, error) {
	names := []string{spec.XAxis, spec.YAxis}
	rows, err := ord.CoordinateRows(names, spec.Flips)
	if err != nil {
		return nil, "", "", err
	}
	pts, err := attachValues(ord, meta, spec.ColorBy, rows)
	if err != nil {
		return nil, "", "", err
	}
	xl, err := axisLabel(ord, spec.XAxis)
	if err != nil {
		return nil, "", "", err
	}
	yl, err := axisLabel(ord, spec.YAxis)
	if err != nil {
		return nil, "", "", err
	}
	return pts, xl, yl, nil
}

func (r *Renderer) project3D(ord *ordination.Result, meta *matrix.Metadata, spec ports.PlotSpec) ([]point, string, string, error) {
	names := []string{spec.XAxis, spec.YAxis, spec.ZAxis}
	for _, name := range names {
		if _, err := ord.Axis(name); err != nil {
			return nil, "", "", core.NewValidationError("plot",
				fmt.Sprintf("3D view needs axes %s/%s/%s but %q is unavailable (ordination has %d positive axes)",
					spec.XAxis, spec.YAxis, spec.ZAxis, name, ord.AxisCount()))
		}
	}
	rows, err := ord.CoordinateRows(names, spec.Flips)
	if err != nil {
		return nil, "", "", err
	}

	// Orthographic projection: rotate about the vertical by azimuth,
	// then tilt by elevation.
	az := spec.Azimuth * math.Pi / 180
	el := spec.Elevation * math.Pi / 180
	ca, sa := math.Cos(az), math.Sin(az)
	ce, se := math.Cos(el), math.Sin(el)
	proj := make([][]float64, len(rows))
	for i, row := range rows {
		x, y, z := row[0], row[1], row[2]
		proj[i] = []float64{
			ca*x + sa*y,
			ce*z + se*(sa*x-ca*y),
		}
	}

	pts, err := attachValues(ord, meta, spec.ColorBy, proj)
	if err != nil {
		return nil, "", "", err
	}
	xl := fmt.Sprintf("%s/%s projection (azimuth %.0f°)", spec.XAxis, spec.YAxis, spec.Azimuth)
	yl := fmt.Sprintf("%s projection (elevation %.0f°)", spec.ZAxis, spec.Elevation)
	return pts, xl, yl, nil
}

func attachValues(ord *ordination.Result, meta *matrix.Metadata, key core.VariableKey, rows [][]float64) ([]point, error) {
	pts := make([]point, 0, len(rows))
	for i, id := range ord.IDs {
		v, err := meta.Value(id, key)
		if err != nil {
			return nil, err
		}
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		pts = append(pts, point{x: rows[i][0], y: rows[i][1], value: v})
	}
	return pts, nil
}

func axisLabel(ord *ordination.Result, name string) (string, error) {
	ax, err := ord.Axis(name)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s (%.1f%%)", name, ax.ProportionExplained*100), nil
}

func addCategoricalScatter(p *plot.Plot, pts []point, paletteName string) error {
	byLevel := map[string][]point{}
	for _, pt := range pts {
		byLevel[pt.value] = append(byLevel[pt.value], pt)
	}
	levels := make([]string, 0, len(byLevel))
	for level := range byLevel {
		levels = append(levels, level)
	}
	sort.Strings(levels)

	colors, err := categoricalColors(paletteName, len(levels))
	if err != nil {
		return core.NewValidationError("plot", err.Error())
	}

	for i, level := range levels {
		s, err := plotter.NewScatter(toXYs(byLevel[level]))
		if err != nil {
			return err
		}
		s.GlyphStyle.Color = colors[i]
		s.GlyphStyle.Radius = vg.Points(3)
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(s)
		p.Legend.Add(level, s)
	}
	p.Legend.Top = true
	p.Legend.Padding = vg.Points(2)
	return nil
}

func addContinuousScatter(p *plot.Plot, pts []point, colormapName string, key core.VariableKey) error {
	values := make([]float64, len(pts))
	min, max := math.Inf(1), math.Inf(-1)
	for i, pt := range pts {
		v, err := strconv.ParseFloat(pt.value, 64)
		if err != nil {
			return core.NewValidationError("plot",
				fmt.Sprintf("continuous coloring by %q hit non-numeric value %q", key, pt.value))
		}
		values[i] = v
		min = math.Min(min, v)
		max = math.Max(max, v)
	}

	cm, err := NewColormap(colormapName, min, max)
	if err != nil {
		return core.NewValidationError("plot", err.Error())
	}

	s, err := plotter.NewScatter(toXYs(pts))
	if err != nil {
		return err
	}
	s.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		col, err := cm.At(values[i])
		if err != nil {
			col = cm.anchors[0]
		}
		return draw.GlyphStyle{
			Color:  col,
			Radius: vg.Points(3),
			Shape:  draw.CircleGlyph{},
		}
	}
	p.Add(s)
	// No in-plot colorbar; the mapped range rides on the legend line.
	p.Legend.Add(fmt.Sprintf("%s [%.3g, %.3g]", key, min, max), s)
	p.Legend.Top = true
	return nil
}

func toXYs(pts []point) plotter.XYs {
	xys := make(plotter.XYs, len(pts))
	for i, pt := range pts {
		xys[i].X = pt.x
		xys[i].Y = pt.y
	}
	return xys
}

// export draws the plot onto the backend for the requested format
func (r *Renderer) export(p *plot.Plot, format ports.ExportFormat) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case ports.FormatPNG, "":
		c := vgimg.NewWith(vgimg.UseWH(r.width, r.height), vgimg.UseDPI(r.dpi))
		p.Draw(draw.New(c))
		png := vgimg.PngCanvas{Canvas: c}
		if _, err := png.WriteTo(&buf); err != nil {
			return nil, fmt.Errorf("png encode failed: %w", err)
		}
	case ports.FormatSVG:
		c := vgsvg.New(r.width, r.height)
		p.Draw(draw.New(c))
		if _, err := c.WriteTo(&buf); err != nil {
			return nil, fmt.Errorf("svg encode failed: %w", err)
		}
	case ports.FormatPDF:
		c := vgpdf.New(r.width, r.height)
		p.Draw(draw.New(c))
		if _, err := c.WriteTo(&buf); err != nil {
			return nil, fmt.Errorf("pdf encode failed: %w", err)
		}
	default:
		return nil, core.NewValidationError("plot", fmt.Sprintf("unknown export format %q", format))
	}
	return buf.Bytes(), nil
}
