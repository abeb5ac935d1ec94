package plot

import (
	"bytes"
	"testing"

	"goord/domain/core"
	"goord/domain/matrix"
	"goord/domain/ordination"
	"goord/internal/pcoa"
	"goord/internal/testkit"
	"goord/ports"
)

func plotFixture(t *testing.T, n int) (*ordination.Result, *matrix.Metadata) {
	t.Helper()
	dm := testkit.ClusteredDistanceMatrix(n, 21)
	ord, err := pcoa.Compute(dm)
	if err != nil {
		t.Fatalf("PCoA failed: %v", err)
	}
	return ord, testkit.GroupedMetadata(dm.IDs(), 22)
}

// TestRenderFormats tests the three export encodings
func TestRenderFormats(t *testing.T) {
	ord, md := plotFixture(t, 8)
	r := NewRenderer(96, 6, 4)

	tests := []struct {
		format ports.ExportFormat
		magic  []byte
	}{
		{ports.FormatPNG, []byte("\x89PNG")},
		{ports.FormatSVG, []byte("<?xml")},
		{ports.FormatPDF, []byte("%PDF")},
	}
	for _, test := range tests {
		t.Run(string(test.format), func(t *testing.T) {
			data, err := r.Render(ord, md, ports.PlotSpec{
				XAxis:       "PC1",
				YAxis:       "PC2",
				ColorBy:     core.VariableKey("Group"),
				Palette:     "set1",
				Categorical: true,
				Format:      test.format,
			})
			if err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			if len(data) == 0 {
				t.Fatal("Empty export")
			}
			if !bytes.HasPrefix(data, test.magic) {
				t.Errorf("Output does not look like %s (starts %q)", test.format, data[:min(8, len(data))])
			}
		})
	}
}

// TestRenderContinuous tests colormap coloring by a numeric variable
func TestRenderContinuous(t *testing.T) {
	ord, md := plotFixture(t, 8)
	r := NewRenderer(96, 6, 4)

	data, err := r.Render(ord, md, ports.PlotSpec{
		XAxis:   "PC1",
		YAxis:   "PC2",
		ColorBy: core.VariableKey("Depth"),
		Palette: "viridis",
		Format:  ports.FormatPNG,
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Empty export")
	}

	// Continuous coloring by a text column must fail clearly
	_, err = r.Render(ord, md, ports.PlotSpec{
		XAxis:   "PC1",
		YAxis:   "PC2",
		ColorBy: core.VariableKey("Group"),
		Format:  ports.FormatPNG,
	})
	if !core.IsValidationError(err) {
		t.Errorf("Expected validation error for non-numeric continuous coloring, got %v", err)
	}
}

// TestRender3D tests the projected three-axis view
func TestRender3D(t *testing.T) {
	ord, md := plotFixture(t, 10)
	r := NewRenderer(96, 6, 4)

	data, err := r.Render(ord, md, ports.PlotSpec{
		View:        ports.View3D,
		XAxis:       "PC1",
		YAxis:       "PC2",
		ZAxis:       "PC3",
		ColorBy:     core.VariableKey("Group"),
		Palette:     "tab10",
		Categorical: true,
		Format:      ports.FormatPNG,
		Azimuth:     45,
		Elevation:   30,
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Empty export")
	}
}

// TestRender3DMissingAxis tests the axis availability check
func TestRender3DMissingAxis(t *testing.T) {
	// Three collinear points embed on a single axis, so PC3 cannot exist.
	ids := testkit.SampleIDs(3)
	dm, err := matrix.FromCoordinates(ids, [][]float64{{0}, {1}, {2}})
	if err != nil {
		t.Fatalf("Failed to build matrix: %v", err)
	}
	ord, err := pcoa.Compute(dm)
	if err != nil {
		t.Fatalf("PCoA failed: %v", err)
	}
	rows := [][]string{{"S01", "A"}, {"S02", "B"}, {"S03", "A"}}
	md, err := matrix.NewMetadata([]string{"id", "Group"}, rows)
	if err != nil {
		t.Fatalf("Failed to build metadata: %v", err)
	}

	_, err = NewRenderer(96, 6, 4).Render(ord, md, ports.PlotSpec{
		View:        ports.View3D,
		XAxis:       "PC1",
		YAxis:       "PC2",
		ZAxis:       "PC3",
		ColorBy:     core.VariableKey("Group"),
		Palette:     "set1",
		Categorical: true,
		Format:      ports.FormatPNG,
	})
	if !core.IsValidationError(err) {
		t.Errorf("Expected validation error for unavailable axis, got %v", err)
	}
}

// TestRenderRejections tests invalid specs
func TestRenderRejections(t *testing.T) {
	ord, md := plotFixture(t, 8)
	r := NewRenderer(96, 6, 4)

	base := ports.PlotSpec{
		XAxis:       "PC1",
		YAxis:       "PC2",
		ColorBy:     core.VariableKey("Group"),
		Palette:     "set1",
		Categorical: true,
	}

	bad := base
	bad.Format = ports.ExportFormat("gif")
	if _, err := r.Render(ord, md, bad); !core.IsValidationError(err) {
		t.Errorf("Expected validation error for unknown format, got %v", err)
	}

	bad = base
	bad.View = ports.PlotView("4d")
	if _, err := r.Render(ord, md, bad); !core.IsValidationError(err) {
		t.Errorf("Expected validation error for unknown view, got %v", err)
	}

	bad = base
	bad.Palette = "no-such-palette"
	if _, err := r.Render(ord, md, bad); !core.IsValidationError(err) {
		t.Errorf("Expected validation error for unknown palette, got %v", err)
	}

	bad = base
	bad.ColorBy = core.VariableKey("Missing")
	if _, err := r.Render(ord, md, bad); err == nil {
		t.Error("Expected error for unknown variable")
	}
}

// TestRenderFlips tests that sign flips change the projected points
func TestRenderFlips(t *testing.T) {
	ord, md := plotFixture(t, 8)
	r := NewRenderer(96, 6, 4)

	spec := ports.PlotSpec{
		XAxis:       "PC1",
		YAxis:       "PC2",
		ColorBy:     core.VariableKey("Group"),
		Palette:     "set2",
		Categorical: true,
		Format:      ports.FormatSVG,
	}
	plain, err := r.Render(ord, md, spec)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	spec.Flips = map[string]bool{"PC1": true}
	flipped, err := r.Render(ord, md, spec)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if bytes.Equal(plain, flipped) {
		t.Error("Flipping an axis must change the rendered output")
	}
}
