// Package pcoa computes Principal Coordinates Analysis from a validated
// distance matrix via eigendecomposition of the doubly-centered squared
// distance matrix (Gower centering).
package pcoa

import (
	"fmt"
	"math"
	"sort"

	"goord/domain/core"
	"goord/domain/matrix"
	"goord/domain/ordination"

	"gonum.org/v1/gonum/mat"
)

// Eigenvalues within this relative band of zero are treated as zero
// rather than as real signal; centering leaves one such eigenvalue by
// construction and floating error scatters a few more around it.
const zeroBand = 1e-12

// Compute runs PCoA on the distance matrix.
//
// Negative eigenvalue policy: warn and keep. Negative eigenvalues
// (expected with non-Euclidean distances such as Bray-Curtis) are
// reported on the result and raise a non-fatal warning; coordinate
// axes are built only from positive eigenvalues and the proportion
// explained is taken over the positive sum.
func Compute(dm *matrix.DistanceMatrix) (*ordination.Result, error) {
	n := dm.Size()
	if n < 2 {
		return nil, core.NewInsufficientDataError("pcoa", fmt.Sprintf("need at least 2 samples, have %d", n))
	}

	b := centerSquaredDistances(dm)

	var eig mat.EigenSym
	if ok := eig.Factorize(b, true); !ok {
		return nil, fmt.Errorf("eigendecomposition failed to converge")
	}

	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// Order axes by descending eigenvalue.
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return vals[order[i]] > vals[order[j]]
	})

	maxAbs := 0.0
	for _, v := range vals {
		if math.Abs(v) > maxAbs {
			maxAbs = math.Abs(v)
		}
	}
	cutoff := maxAbs * zeroBand

	result := &ordination.Result{
		IDs:        dm.IDs(),
		ComputedAt: core.Now(),
	}

	var positiveSum float64
	for _, idx := range order {
		if vals[idx] > cutoff {
			positiveSum += vals[idx]
		}
	}

	axisNum := 0
	for _, idx := range order {
		v := vals[idx]
		switch {
		case v > cutoff:
			axisNum++
			coords := make([]float64, n)
			scale := math.Sqrt(v)
			for s := 0; s < n; s++ {
				coords[s] = vecs.At(s, idx) * scale
			}
			prop := 0.0
			if positiveSum > 0 {
				prop = v / positiveSum
			}
			result.Axes = append(result.Axes, ordination.Axis{
				Name:                fmt.Sprintf("PC%d", axisNum),
				Eigenvalue:          v,
				ProportionExplained: prop,
				Coordinates:         coords,
			})
		case v < -cutoff:
			result.NegativeEigenvalues = append(result.NegativeEigenvalues, v)
		}
	}

	if len(result.NegativeEigenvalues) > 0 {
		mostNegative := result.NegativeEigenvalues[len(result.NegativeEigenvalues)-1]
		result.Warnings = append(result.Warnings, core.NewWarning(
			core.WarnNegativeEigenvalues,
			"%d negative eigenvalues (most negative %.4g); distances are not fully Euclidean, negative axes carry no coordinates",
			len(result.NegativeEigenvalues), mostNegative,
		))
	}

	return result, nil
}

// centerSquaredDistances builds B = -0.5 * J * (D∘D) * J with
// J = I - 11ᵀ/n, computed via row/column/grand means.
func centerSquaredDistances(dm *matrix.DistanceMatrix) *mat.SymDense {
	n := dm.Size()
	sq := make([][]float64, n)
	rowMean := make([]float64, n)
	var grand float64
	for i := 0; i < n; i++ {
		sq[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			d := dm.At(i, j)
			sq[i][j] = d * d
			rowMean[i] += sq[i][j]
		}
		rowMean[i] /= float64(n)
		grand += rowMean[i]
	}
	grand /= float64(n)

	b := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			b.SetSym(i, j, -0.5*(sq[i][j]-rowMean[i]-rowMean[j]+grand))
		}
	}
	return b
}
