package permtest

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"goord/domain/core"
	"goord/domain/matrix"
	"goord/internal/testkit"
)

// TestMantelPerfectCorrelation tests two proportional matrices
func TestMantelPerfectCorrelation(t *testing.T) {
	a := testkit.GradientDistanceMatrix(10)
	ids := a.IDs()
	scaled := a.Dense()
	for i := range scaled {
		for j := range scaled[i] {
			scaled[i][j] *= 2.5
		}
	}
	b, err := matrix.New(ids, ids, scaled)
	if err != nil {
		t.Fatalf("Failed to build matrix: %v", err)
	}

	res, err := Mantel(a, b, 999, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("Mantel failed: %v", err)
	}
	if math.Abs(res.R-1) > 1e-12 {
		t.Errorf("Expected r=1 for proportional matrices, got %g", res.R)
	}
	if res.PValue > 0.01 {
		t.Errorf("Expected significant p-value, got %g", res.PValue)
	}
}

// TestMantelGradientAgainstVariable tests the shape used in dispatch:
// ordination distances against a one-dimensional variable gradient.
func TestMantelGradientAgainstVariable(t *testing.T) {
	a := testkit.GradientDistanceMatrix(12)
	rows := make([][]float64, 12)
	for i := range rows {
		rows[i] = []float64{float64(i)}
	}
	b, err := matrix.FromCoordinates(a.IDs(), rows)
	if err != nil {
		t.Fatalf("Failed to build matrix: %v", err)
	}

	res, err := Mantel(a, b, 999, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("Mantel failed: %v", err)
	}
	if res.R < 0.99 {
		t.Errorf("Expected near-perfect correlation, got %g", res.R)
	}
	if res.PValue > 0.05 {
		t.Errorf("Expected significant p-value, got %g", res.PValue)
	}
	if res.SampleSize != 12 {
		t.Errorf("Expected n=12, got %d", res.SampleSize)
	}
}

// TestMantelDeterministic tests bit-identical results for a fixed seed
func TestMantelDeterministic(t *testing.T) {
	a := testkit.RandomDistanceMatrix(10, 1)
	b := testkit.RandomDistanceMatrix(10, 2)

	r1, err := Mantel(a, b, 999, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("Mantel failed: %v", err)
	}
	r2, err := Mantel(a, b, 999, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("Mantel failed: %v", err)
	}
	if r1.R != r2.R || r1.PValue != r2.PValue {
		t.Errorf("Same seed must reproduce results: r %g vs %g, p %g vs %g", r1.R, r2.R, r1.PValue, r2.PValue)
	}
}

// TestMantelBounds tests the statistic and p-value ranges
func TestMantelBounds(t *testing.T) {
	a := testkit.RandomDistanceMatrix(8, 3)
	b := testkit.RandomDistanceMatrix(8, 4)
	res, err := Mantel(a, b, 99, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("Mantel failed: %v", err)
	}
	if res.R < -1 || res.R > 1 {
		t.Errorf("r out of [-1,1]: %g", res.R)
	}
	if res.PValue <= 0 || res.PValue > 1 {
		t.Errorf("p-value out of (0,1]: %g", res.PValue)
	}
}

// TestMantelRejections tests degenerate inputs
func TestMantelRejections(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	a := testkit.RandomDistanceMatrix(5, 1)
	b := testkit.RandomDistanceMatrix(6, 1)
	if _, err := Mantel(a, b, 99, rng); !core.IsValidationError(err) {
		t.Errorf("Expected validation error for size mismatch, got %v", err)
	}

	small := testkit.RandomDistanceMatrix(2, 1)
	if _, err := Mantel(small, small, 99, rng); !errors.Is(err, core.ErrTooFewSamples) {
		t.Errorf("Expected too-few-samples error, got %v", err)
	}

	if _, err := Mantel(a, a, 0, rng); !core.IsValidationError(err) {
		t.Errorf("Expected validation error for zero permutations, got %v", err)
	}

	// Constant matrix has zero variance in its condensed triangle
	ids := testkit.SampleIDs(4)
	flat := make([][]float64, 4)
	for i := range flat {
		flat[i] = make([]float64, 4)
		for j := range flat[i] {
			if i != j {
				flat[i][j] = 1
			}
		}
	}
	constant, err := matrix.New(ids, ids, flat)
	if err != nil {
		t.Fatalf("Failed to build matrix: %v", err)
	}
	other := testkit.RandomDistanceMatrix(4, 2)
	if _, err := Mantel(constant, other, 99, rng); !core.IsInsufficientDataError(err) {
		t.Errorf("Expected insufficient-data error for zero variance, got %v", err)
	}
}
