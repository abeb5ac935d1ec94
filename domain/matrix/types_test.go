package matrix

import (
	"errors"
	"math"
	"testing"

	"goord/domain/core"
)

func ids(names ...string) []core.SampleID {
	out := make([]core.SampleID, len(names))
	for i, n := range names {
		out[i] = core.SampleID(n)
	}
	return out
}

// TestNewValidMatrix tests that a well-formed matrix passes validation
func TestNewValidMatrix(t *testing.T) {
	dm, err := New(ids("a", "b", "c"), ids("a", "b", "c"), [][]float64{
		{0, 1, 2},
		{1, 0, 3},
		{2, 3, 0},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if dm.Size() != 3 {
		t.Errorf("Expected size 3, got %d", dm.Size())
	}
	if dm.At(1, 2) != 3 {
		t.Errorf("Expected At(1,2)=3, got %g", dm.At(1, 2))
	}
}

// TestNewRejectsInvalid tests the validation failure modes
func TestNewRejectsInvalid(t *testing.T) {
	tests := []struct {
		name     string
		rowIDs   []core.SampleID
		colIDs   []core.SampleID
		data     [][]float64
		sentinel error
	}{
		{
			name:     "non-square",
			rowIDs:   ids("a", "b"),
			colIDs:   ids("a", "b", "c"),
			data:     [][]float64{{0, 1}, {1, 0}},
			sentinel: core.ErrNotSquare,
		},
		{
			name:     "ragged row",
			rowIDs:   ids("a", "b"),
			colIDs:   ids("a", "b"),
			data:     [][]float64{{0, 1}, {1}},
			sentinel: core.ErrNotSquare,
		},
		{
			name:     "label mismatch",
			rowIDs:   ids("a", "b"),
			colIDs:   ids("b", "a"),
			data:     [][]float64{{0, 1}, {1, 0}},
			sentinel: core.ErrLabelMismatch,
		},
		{
			name:     "duplicate sample",
			rowIDs:   ids("a", "a"),
			colIDs:   ids("a", "a"),
			data:     [][]float64{{0, 1}, {1, 0}},
			sentinel: core.ErrDuplicateSampleID,
		},
		{
			name:     "asymmetric",
			rowIDs:   ids("a", "b"),
			colIDs:   ids("a", "b"),
			data:     [][]float64{{0, 1}, {2, 0}},
			sentinel: core.ErrNotSymmetric,
		},
		{
			name:     "negative distance",
			rowIDs:   ids("a", "b"),
			colIDs:   ids("a", "b"),
			data:     [][]float64{{0, -1}, {-1, 0}},
			sentinel: core.ErrNegativeDistance,
		},
		{
			name:     "non-zero diagonal",
			rowIDs:   ids("a", "b"),
			colIDs:   ids("a", "b"),
			data:     [][]float64{{0.5, 1}, {1, 0}},
			sentinel: core.ErrNonZeroDiagonal,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := New(test.rowIDs, test.colIDs, test.data)
			if err == nil {
				t.Fatal("Expected validation error, got none")
			}
			if !errors.Is(err, test.sentinel) {
				t.Errorf("Expected %v, got %v", test.sentinel, err)
			}
			if !core.IsValidationError(err) {
				t.Errorf("Expected a validation error, got %v", err)
			}
		})
	}
}

// TestNewToleratesNearSymmetry tests that skew within tolerance is
// averaged away rather than rejected.
func TestNewToleratesNearSymmetry(t *testing.T) {
	dm, err := New(ids("a", "b"), ids("a", "b"), [][]float64{
		{0, 1},
		{1 + 1e-10, 0},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if dm.At(0, 1) != dm.At(1, 0) {
		t.Error("Expected exact symmetry after construction")
	}
	want := (1 + 1 + 1e-10) / 2
	if math.Abs(dm.At(0, 1)-want) > 1e-15 {
		t.Errorf("Expected averaged value %g, got %g", want, dm.At(0, 1))
	}
	if dm.At(0, 0) != 0 {
		t.Error("Expected diagonal forced to exactly zero")
	}
}

// TestSubset tests restriction to a sample subset in caller order
func TestSubset(t *testing.T) {
	dm, err := New(ids("a", "b", "c"), ids("a", "b", "c"), [][]float64{
		{0, 1, 2},
		{1, 0, 3},
		{2, 3, 0},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	sub, err := dm.Subset(ids("c", "a"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if sub.Size() != 2 {
		t.Fatalf("Expected size 2, got %d", sub.Size())
	}
	if sub.At(0, 1) != 2 {
		t.Errorf("Expected d(c,a)=2, got %g", sub.At(0, 1))
	}

	_, err = dm.Subset(ids("a", "missing"))
	if !core.IsNotFoundError(err) {
		t.Errorf("Expected not-found error for unknown sample, got %v", err)
	}
}

// TestCondensed tests upper-triangle extraction in row-major order
func TestCondensed(t *testing.T) {
	dm, err := New(ids("a", "b", "c"), ids("a", "b", "c"), [][]float64{
		{0, 1, 2},
		{1, 0, 3},
		{2, 3, 0},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	got := dm.Condensed()
	want := []float64{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("Expected %d condensed values, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Condensed[%d]: expected %g, got %g", i, want[i], got[i])
		}
	}
}

// TestFromCoordinates tests euclidean distance construction
func TestFromCoordinates(t *testing.T) {
	dm, err := FromCoordinates(ids("a", "b", "c"), [][]float64{
		{0, 0},
		{3, 4},
		{0, 4},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if math.Abs(dm.At(0, 1)-5) > 1e-12 {
		t.Errorf("Expected d(a,b)=5, got %g", dm.At(0, 1))
	}
	if math.Abs(dm.At(0, 2)-4) > 1e-12 {
		t.Errorf("Expected d(a,c)=4, got %g", dm.At(0, 2))
	}
	if math.Abs(dm.At(1, 2)-3) > 1e-12 {
		t.Errorf("Expected d(b,c)=3, got %g", dm.At(1, 2))
	}
}

// TestBetween tests lookup by sample ID
func TestBetween(t *testing.T) {
	dm, err := New(ids("a", "b"), ids("a", "b"), [][]float64{
		{0, 7},
		{7, 0},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	d, err := dm.Between(core.SampleID("a"), core.SampleID("b"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if d != 7 {
		t.Errorf("Expected 7, got %g", d)
	}
	if _, err := dm.Between(core.SampleID("a"), core.SampleID("x")); !core.IsNotFoundError(err) {
		t.Errorf("Expected not-found error, got %v", err)
	}
}

// TestDenseIsACopy tests that mutating the dense view cannot corrupt
// the matrix.
func TestDenseIsACopy(t *testing.T) {
	dm, err := New(ids("a", "b"), ids("a", "b"), [][]float64{
		{0, 1},
		{1, 0},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	dense := dm.Dense()
	dense[0][1] = 99
	if dm.At(0, 1) != 1 {
		t.Error("Dense() must return a deep copy")
	}
}
