package ordination

import (
	"fmt"

	"goord/domain/core"
)

// Axis is one principal coordinate: an eigenvalue and the per-sample
// coordinates of its scaled eigenvector, in canonical sample order.
type Axis struct {
	Name                string    `json:"name"` // "PC1", "PC2", ...
	Eigenvalue          float64   `json:"eigenvalue"`
	ProportionExplained float64   `json:"proportion_explained"`
	Coordinates         []float64 `json:"coordinates"`
}

// Result holds a PCoA ordination. Axes are ordered by descending
// eigenvalue and only positive-eigenvalue axes carry coordinates;
// negative eigenvalues are kept for reporting and flagged by a warning.
type Result struct {
	IDs                 []core.SampleID `json:"sample_ids"`
	Axes                []Axis          `json:"axes"`
	NegativeEigenvalues []float64       `json:"negative_eigenvalues,omitempty"`
	Warnings            []core.Warning  `json:"warnings,omitempty"`
	ComputedAt          core.Timestamp  `json:"computed_at"`
}

// AxisCount returns the number of coordinate axes
func (r *Result) AxisCount() int {
	return len(r.Axes)
}

// Axis returns the axis with the given name ("PC1", ...)
func (r *Result) Axis(name string) (*Axis, error) {
	for i := range r.Axes {
		if r.Axes[i].Name == name {
			return &r.Axes[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", core.ErrAxisNotFound, name)
}

// AxisNames returns axis names in eigenvalue order
func (r *Result) AxisNames() []string {
	names := make([]string, len(r.Axes))
	for i, ax := range r.Axes {
		names[i] = ax.Name
	}
	return names
}

// Flipped returns a copy of the result with the named axis sign-negated.
// Eigenvalues and all other axes are untouched; flipping twice restores
// the original coordinates.
func (r *Result) Flipped(name string) (*Result, error) {
	if _, err := r.Axis(name); err != nil {
		return nil, err
	}
	out := &Result{
		IDs:                 r.IDs,
		Axes:                make([]Axis, len(r.Axes)),
		NegativeEigenvalues: r.NegativeEigenvalues,
		Warnings:            r.Warnings,
		ComputedAt:          r.ComputedAt,
	}
	for i, ax := range r.Axes {
		out.Axes[i] = ax
		if ax.Name == name {
			flipped := make([]float64, len(ax.Coordinates))
			for j, v := range ax.Coordinates {
				flipped[j] = -v
			}
			out.Axes[i].Coordinates = flipped
		}
	}
	return out, nil
}

// CoordinateRows extracts per-sample coordinate rows for the named axes,
// applying the given sign flips. Row order matches r.IDs.
func (r *Result) CoordinateRows(names []string, flips map[string]bool) ([][]float64, error) {
	axes := make([]*Axis, len(names))
	for i, name := range names {
		ax, err := r.Axis(name)
		if err != nil {
			return nil, err
		}
		axes[i] = ax
	}
	rows := make([][]float64, len(r.IDs))
	for s := range r.IDs {
		row := make([]float64, len(axes))
		for i, ax := range axes {
			v := ax.Coordinates[s]
			if flips[names[i]] {
				v = -v
			}
			row[i] = v
		}
		rows[s] = row
	}
	return rows, nil
}
