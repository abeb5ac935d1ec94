package matrix

import (
	"fmt"
	"math"

	"goord/domain/core"
)

// Tolerances applied during distance matrix validation. Symmetry and the
// zero diagonal are checked within floating tolerance because upstream
// tools routinely emit values like 1e-17 where zero is meant.
const (
	SymmetryTol = 1e-8
	DiagonalTol = 1e-8
)

// DistanceMatrix is a validated, immutable square matrix of pairwise
// sample distances. Row order is the canonical sample order for the
// session; every downstream structure follows it.
type DistanceMatrix struct {
	ids   []core.SampleID
	data  [][]float64
	index map[core.SampleID]int
}

// New validates raw parsed values and builds a DistanceMatrix.
// rowIDs and colIDs are the labels exactly as they appeared in the file.
func New(rowIDs, colIDs []core.SampleID, data [][]float64) (*DistanceMatrix, error) {
	n := len(rowIDs)
	if n == 0 {
		return nil, core.NewValidationError("shape", "matrix has no rows")
	}
	if len(colIDs) != n {
		return nil, fmt.Errorf("%w: %d rows vs %d columns", core.ErrNotSquare, n, len(colIDs))
	}
	for i, row := range data {
		if len(row) != n {
			return nil, fmt.Errorf("%w: row %q has %d values, want %d", core.ErrNotSquare, rowIDs[i], len(row), n)
		}
	}
	for i := range rowIDs {
		if rowIDs[i] != colIDs[i] {
			return nil, fmt.Errorf("%w: position %d has row %q vs column %q", core.ErrLabelMismatch, i, rowIDs[i], colIDs[i])
		}
	}

	index := make(map[core.SampleID]int, n)
	for i, id := range rowIDs {
		if id == "" {
			return nil, core.NewValidationError("sample id", fmt.Sprintf("row %d has an empty sample ID", i))
		}
		if prev, dup := index[id]; dup {
			return nil, fmt.Errorf("%w: %q at rows %d and %d", core.ErrDuplicateSampleID, id, prev, i)
		}
		index[id] = i
	}

	for i := 0; i < n; i++ {
		if math.Abs(data[i][i]) > DiagonalTol {
			return nil, fmt.Errorf("%w: sample %q has self-distance %g", core.ErrNonZeroDiagonal, rowIDs[i], data[i][i])
		}
		for j := i + 1; j < n; j++ {
			a, b := data[i][j], data[j][i]
			if a < 0 || b < 0 {
				return nil, fmt.Errorf("%w: %g between %q and %q", core.ErrNegativeDistance, math.Min(a, b), rowIDs[i], rowIDs[j])
			}
			if math.Abs(a-b) > SymmetryTol*math.Max(1, math.Max(math.Abs(a), math.Abs(b))) {
				return nil, fmt.Errorf("%w: d(%q,%q)=%g but d(%q,%q)=%g", core.ErrNotSymmetric, rowIDs[i], rowIDs[j], a, rowIDs[j], rowIDs[i], b)
			}
		}
	}

	m := &DistanceMatrix{
		ids:   append([]core.SampleID(nil), rowIDs...),
		data:  make([][]float64, n),
		index: index,
	}
	// Copy and force exact symmetry so later stages never see the raw skew.
	for i := 0; i < n; i++ {
		m.data[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		m.data[i][i] = 0
		for j := i + 1; j < n; j++ {
			v := (data[i][j] + data[j][i]) / 2
			m.data[i][j] = v
			m.data[j][i] = v
		}
	}
	return m, nil
}

// FromCoordinates builds a euclidean DistanceMatrix over per-sample
// coordinate rows. Used to derive test distances from ordination axes
// or from a single continuous variable.
func FromCoordinates(ids []core.SampleID, coords [][]float64) (*DistanceMatrix, error) {
	n := len(ids)
	if len(coords) != n {
		return nil, core.NewValidationError("coordinates", fmt.Sprintf("%d ids vs %d coordinate rows", n, len(coords)))
	}
	data := make([][]float64, n)
	for i := range data {
		data[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			var sum float64
			for k := range coords[i] {
				d := coords[i][k] - coords[j][k]
				sum += d * d
			}
			v := math.Sqrt(sum)
			data[i][j] = v
			data[j][i] = v
		}
	}
	return New(ids, ids, data)
}

// Size returns the number of samples
func (m *DistanceMatrix) Size() int {
	return len(m.ids)
}

// IDs returns the canonical sample order. Callers must not mutate it.
func (m *DistanceMatrix) IDs() []core.SampleID {
	return m.ids
}

// At returns the distance between samples at positions i and j
func (m *DistanceMatrix) At(i, j int) float64 {
	return m.data[i][j]
}

// Between returns the distance between two samples by ID
func (m *DistanceMatrix) Between(a, b core.SampleID) (float64, error) {
	i, ok := m.index[a]
	if !ok {
		return 0, core.NewNotFoundError("sample", a.String())
	}
	j, ok := m.index[b]
	if !ok {
		return 0, core.NewNotFoundError("sample", b.String())
	}
	return m.data[i][j], nil
}

// Contains reports whether the matrix has a row/column for id
func (m *DistanceMatrix) Contains(id core.SampleID) bool {
	_, ok := m.index[id]
	return ok
}

// Subset returns a new matrix restricted to ids, in the given order.
// Every id must exist in the matrix.
func (m *DistanceMatrix) Subset(ids []core.SampleID) (*DistanceMatrix, error) {
	pos := make([]int, len(ids))
	for k, id := range ids {
		i, ok := m.index[id]
		if !ok {
			return nil, core.NewNotFoundError("sample", id.String())
		}
		pos[k] = i
	}
	data := make([][]float64, len(ids))
	for a := range ids {
		data[a] = make([]float64, len(ids))
		for b := range ids {
			data[a][b] = m.data[pos[a]][pos[b]]
		}
	}
	return New(ids, ids, data)
}

// Condensed returns the upper triangle (i<j) in row-major order,
// the form rank-based tests operate on.
func (m *DistanceMatrix) Condensed() []float64 {
	n := len(m.ids)
	out := make([]float64, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			out = append(out, m.data[i][j])
		}
	}
	return out
}

// Dense returns a deep copy of the matrix values
func (m *DistanceMatrix) Dense() [][]float64 {
	out := make([][]float64, len(m.data))
	for i, row := range m.data {
		out[i] = append([]float64(nil), row...)
	}
	return out
}
