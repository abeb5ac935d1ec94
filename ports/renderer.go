package ports

import (
	"goord/domain/core"
	"goord/domain/matrix"
	"goord/domain/ordination"
)

// ExportFormat identifies a plot export encoding
type ExportFormat string

const (
	FormatPNG ExportFormat = "png"
	FormatSVG ExportFormat = "svg"
	FormatPDF ExportFormat = "pdf"
)

// PlotView selects the scatter projection
type PlotView string

const (
	View2D PlotView = "2d"
	View3D PlotView = "3d"
)

// PlotSpec describes one scatter rendering of an ordination
type PlotSpec struct {
	View    PlotView
	XAxis   string // e.g. "PC1"
	YAxis   string
	ZAxis   string          // 3D only
	Flips   map[string]bool // per-axis sign flips
	ColorBy core.VariableKey
	// Categorical reads palette names (set1, set2, tab10, dark2);
	// continuous reads colormap names (viridis, plasma, cividis).
	Palette     string
	Categorical bool
	Title       string
	Format      ExportFormat
	// 3D projection angles in degrees
	Azimuth   float64
	Elevation float64
}

// RendererPort turns an ordination plus metadata coloring into an
// exported image.
type RendererPort interface {
	Render(ord *ordination.Result, meta *matrix.Metadata, spec PlotSpec) ([]byte, error)
}
