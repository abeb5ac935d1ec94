// Package classify labels metadata columns categorical or continuous.
// The split drives test dispatch: categorical columns get ANOSIM,
// continuous columns get Mantel. The heuristic is best-effort and can
// be overridden per request.
package classify

import (
	"strconv"
	"strings"

	"goord/domain/core"
	"goord/domain/matrix"
	"goord/domain/stats"

	mfstats "github.com/montanaflynn/stats"
)

// Classifier applies the distinct-value heuristic
type Classifier struct {
	threshold int
}

// New creates a classifier. A column with at most threshold distinct
// non-blank values is treated as categorical even when numeric.
func New(threshold int) *Classifier {
	if threshold < 1 {
		threshold = 1
	}
	return &Classifier{threshold: threshold}
}

// Threshold returns the distinct-value cutoff
func (c *Classifier) Threshold() int {
	return c.threshold
}

// Classify inspects one metadata column. Blank and whitespace-only
// values are ignored; they are dropped again before testing.
func (c *Classifier) Classify(md *matrix.Metadata, key core.VariableKey) (stats.Classification, error) {
	values, err := md.Column(key)
	if err != nil {
		return stats.Classification{}, err
	}

	cls := stats.Classification{
		Variable:  key,
		Threshold: c.threshold,
	}

	distinct := map[string]bool{}
	numeric := make([]float64, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			cls.Blank++
			continue
		}
		cls.NonBlank++
		distinct[v] = true
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			numeric = append(numeric, f)
		}
	}
	cls.Distinct = len(distinct)
	cls.NumericCount = len(numeric)

	allNumeric := cls.NonBlank > 0 && cls.NumericCount == cls.NonBlank
	if !allNumeric || cls.Distinct <= c.threshold {
		cls.Type = stats.TypeCategorical
	} else {
		cls.Type = stats.TypeContinuous
	}

	if allNumeric {
		cls.Profile = profileNumeric(numeric)
	}
	return cls, nil
}

// ClassifyAll classifies every variable column in the table
func (c *Classifier) ClassifyAll(md *matrix.Metadata) (map[core.VariableKey]stats.Classification, error) {
	out := make(map[core.VariableKey]stats.Classification, len(md.Variables()))
	for _, key := range md.Variables() {
		cls, err := c.Classify(md, key)
		if err != nil {
			return nil, err
		}
		out[key] = cls
	}
	return out, nil
}

// Resolve applies a user override to a heuristic classification
func Resolve(cls stats.Classification, mode stats.TypeMode) stats.VariableType {
	switch mode {
	case stats.ModeCategorical:
		return stats.TypeCategorical
	case stats.ModeContinuous:
		return stats.TypeContinuous
	default:
		return cls.Type
	}
}

func profileNumeric(values []float64) *stats.ColumnProfile {
	if len(values) == 0 {
		return nil
	}
	mean, _ := mfstats.Mean(values)
	stdDev, _ := mfstats.StandardDeviation(values)
	min, _ := mfstats.Min(values)
	max, _ := mfstats.Max(values)
	median, _ := mfstats.Median(values)
	return &stats.ColumnProfile{
		Mean:   mean,
		StdDev: stdDev,
		Min:    min,
		Max:    max,
		Median: median,
	}
}
