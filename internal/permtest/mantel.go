package permtest

import (
	"fmt"
	"math"
	"math/rand"

	"goord/domain/core"
	"goord/domain/matrix"

	"gonum.org/v1/gonum/stat"
)

// MantelResult carries the observed correlation and its permutation p-value
type MantelResult struct {
	R            float64
	PValue       float64
	SampleSize   int
	Permutations int
}

// Mantel tests the correlation between two distance matrices over the
// same samples in the same order. The statistic is the Pearson
// correlation of the condensed upper triangles; significance comes
// from permuting the sample order of the second matrix. The p-value is
// two-sided: the fraction of permutations with |r| at least the
// observed |r|, with the +1 correction.
func Mantel(a, b *matrix.DistanceMatrix, permutations int, rng *rand.Rand) (*MantelResult, error) {
	n := a.Size()
	if b.Size() != n {
		return nil, core.NewValidationError("mantel", fmt.Sprintf("matrix sizes differ: %d vs %d", n, b.Size()))
	}
	if n < 3 {
		return nil, fmt.Errorf("%w: mantel needs at least 3 samples, have %d", core.ErrTooFewSamples, n)
	}
	if permutations < 1 {
		return nil, core.NewValidationError("mantel", "permutation count must be positive")
	}

	x := a.Condensed()
	y := b.Condensed()

	observed := stat.Correlation(x, y, nil)
	if math.IsNaN(observed) {
		return nil, core.NewInsufficientDataError("mantel", "zero variance in one of the distance matrices")
	}

	// Permute sample order of b and re-read its condensed triangle.
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	yPerm := make([]float64, len(y))
	threshold := math.Abs(observed)
	hits := 0
	for p := 0; p < permutations; p++ {
		permuteInts(perm, rng)
		k := 0
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				yPerm[k] = b.At(perm[i], perm[j])
				k++
			}
		}
		r := stat.Correlation(x, yPerm, nil)
		if math.Abs(r) >= threshold {
			hits++
		}
	}

	return &MantelResult{
		R:            observed,
		PValue:       float64(hits+1) / float64(permutations+1),
		SampleSize:   n,
		Permutations: permutations,
	}, nil
}

func permuteInts(idx []int, rng *rand.Rand) {
	for i := len(idx) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		idx[i], idx[j] = idx[j], idx[i]
	}
}
