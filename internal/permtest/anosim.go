package permtest

import (
	"fmt"
	"math/rand"

	"goord/domain/core"
	"goord/domain/matrix"
)

// ANOSIMResult carries the observed statistic and its permutation p-value
type ANOSIMResult struct {
	R            float64
	PValue       float64
	Groups       int
	SampleSize   int
	Permutations int
}

// ANOSIM runs Analysis of Similarities: a rank-based comparison of
// between-group versus within-group distances,
//
//	R = (r̄_between − r̄_within) / (n(n−1)/4)
//
// with significance from permuting group labels. groups must align
// with dm.IDs(); the caller has already dropped blank values. The
// p-value is one-sided: the fraction of permuted R values at least as
// large as the observed one, with the +1 correction.
func ANOSIM(dm *matrix.DistanceMatrix, groups []string, permutations int, rng *rand.Rand) (*ANOSIMResult, error) {
	n := dm.Size()
	if len(groups) != n {
		return nil, core.NewValidationError("anosim", fmt.Sprintf("%d group labels for %d samples", len(groups), n))
	}
	if permutations < 1 {
		return nil, core.NewValidationError("anosim", "permutation count must be positive")
	}

	distinct := map[string]bool{}
	for _, g := range groups {
		distinct[g] = true
	}
	if len(distinct) < 2 {
		return nil, fmt.Errorf("%w: variable has %d distinct level(s)", core.ErrTooFewGroups, len(distinct))
	}
	if len(distinct) == n {
		// every sample its own group: no within-group pairs to rank against
		return nil, core.NewInsufficientDataError("anosim", "every sample is its own group")
	}

	ranks := rankAverage(dm.Condensed())
	denom := float64(n) * float64(n-1) / 4

	observed := anosimR(ranks, groups, n, denom)

	perm := make([]string, n)
	copy(perm, groups)
	hits := 0
	for p := 0; p < permutations; p++ {
		shuffle(perm, rng)
		if anosimR(ranks, perm, n, denom) >= observed {
			hits++
		}
	}

	return &ANOSIMResult{
		R:            observed,
		PValue:       float64(hits+1) / float64(permutations+1),
		Groups:       len(distinct),
		SampleSize:   n,
		Permutations: permutations,
	}, nil
}

// anosimR computes R from precomputed condensed-distance ranks and a
// label assignment.
func anosimR(ranks []float64, groups []string, n int, denom float64) float64 {
	var withinSum, betweenSum float64
	var withinN, betweenN int
	k := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if groups[i] == groups[j] {
				withinSum += ranks[k]
				withinN++
			} else {
				betweenSum += ranks[k]
				betweenN++
			}
			k++
		}
	}
	if withinN == 0 || betweenN == 0 {
		return 0
	}
	return (betweenSum/float64(betweenN) - withinSum/float64(withinN)) / denom
}

// shuffle is a Fisher-Yates shuffle driven by the seeded stream
func shuffle(labels []string, rng *rand.Rand) {
	for i := len(labels) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		labels[i], labels[j] = labels[j], labels[i]
	}
}
