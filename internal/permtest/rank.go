package permtest

import "sort"

// rankAverage assigns 1-based ranks with ties sharing their average
// rank, the convention ANOSIM's R statistic is defined over.
func rankAverage(values []float64) []float64 {
	n := len(values)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		return values[order[i]] < values[order[j]]
	})

	ranks := make([]float64, n)
	i := 0
	for i < n {
		j := i + 1
		for j < n && values[order[j]] == values[order[i]] {
			j++
		}
		// average rank across the tie group
		avg := (float64(i+1) + float64(j)) / 2
		for k := i; k < j; k++ {
			ranks[order[k]] = avg
		}
		i = j
	}
	return ranks
}
