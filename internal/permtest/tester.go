// Package permtest implements the seeded permutation tests (ANOSIM and
// Mantel) and the dispatcher that picks between them from a variable's
// classification.
package permtest

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"goord/domain/core"
	"goord/domain/matrix"
	"goord/domain/ordination"
	"goord/domain/stats"
	"goord/internal/classify"
	"goord/ports"
)

// DefaultAxes are the ordination axes tested when the request does not
// name any, matching the default plot projection.
var DefaultAxes = []string{"PC1", "PC2"}

// Tester dispatches a test request to ANOSIM or Mantel and guarantees
// reproducibility through the seeded RNG port.
type Tester struct {
	rng ports.RNGPort
}

// NewTester creates a tester over the given RNG port
func NewTester(rng ports.RNGPort) *Tester {
	return &Tester{rng: rng}
}

// Run executes one significance test. Blank values of the selected
// variable are dropped first (with a warning); the remaining samples
// feed either ANOSIM (categorical) or Mantel (continuous).
func (t *Tester) Run(ctx context.Context, dm *matrix.DistanceMatrix, md *matrix.Metadata, ord *ordination.Result, cls stats.Classification, req stats.TestRequest) (*stats.TestResult, error) {
	if req.Permutations < 1 {
		return nil, core.NewValidationError("test request", "permutation count must be a positive integer")
	}

	values, err := md.Column(req.Variable)
	if err != nil {
		return nil, err
	}

	keptIDs, keptValues := dropBlanks(md.IDs(), values)
	if len(keptIDs) == 0 {
		return nil, core.NewInsufficientDataError("test", fmt.Sprintf("variable %q has no non-blank values", req.Variable))
	}

	var warnings []core.Warning
	if dropped := len(values) - len(keptValues); dropped > 0 {
		warnings = append(warnings, core.NewWarning(core.WarnBlankValues,
			"dropped %d sample(s) with blank %q values", dropped, req.Variable))
	}

	varType := classify.Resolve(cls, req.Mode)

	base, axes, err := t.baseDistances(dm, ord, req, keptIDs)
	if err != nil {
		return nil, err
	}

	stream, err := t.rng.SeededStream(ctx, fmt.Sprintf("%s:%s", stats.KindFor(varType), req.Variable), req.Seed)
	if err != nil {
		return nil, err
	}

	result := &stats.TestResult{
		Kind:         stats.KindFor(varType),
		Variable:     req.Variable,
		VariableType: varType,
		Permutations: req.Permutations,
		Seed:         req.Seed,
		Source:       req.Source,
		Axes:         axes,
		Warnings:     warnings,
		ComputedAt:   core.Now(),
	}

	switch varType {
	case stats.TypeCategorical:
		res, err := ANOSIM(base, keptValues, req.Permutations, stream)
		if err != nil {
			return nil, err
		}
		result.Statistic = res.R
		result.PValue = res.PValue
		result.Groups = res.Groups
		result.SampleSize = res.SampleSize

	case stats.TypeContinuous:
		numeric, err := parseNumeric(req.Variable, keptValues)
		if err != nil {
			return nil, err
		}
		rows := make([][]float64, len(numeric))
		for i, v := range numeric {
			rows[i] = []float64{v}
		}
		varDist, err := matrix.FromCoordinates(keptIDs, rows)
		if err != nil {
			return nil, err
		}
		res, err := Mantel(base, varDist, req.Permutations, stream)
		if err != nil {
			return nil, err
		}
		result.Statistic = res.R
		result.PValue = res.PValue
		result.SampleSize = res.SampleSize

	default:
		return nil, core.NewValidationError("test request", fmt.Sprintf("unknown variable type %q", varType))
	}

	return result, nil
}

// baseDistances derives the sample distance matrix the test runs
// against, restricted to keptIDs.
func (t *Tester) baseDistances(dm *matrix.DistanceMatrix, ord *ordination.Result, req stats.TestRequest, keptIDs []core.SampleID) (*matrix.DistanceMatrix, []string, error) {
	switch req.Source {
	case stats.SourceMatrix:
		sub, err := dm.Subset(keptIDs)
		return sub, nil, err

	case stats.SourceOrdination, "":
		if ord == nil {
			return nil, nil, core.NewValidationError("test request", "no ordination computed for this session")
		}
		axes := req.Axes
		if len(axes) == 0 {
			axes = DefaultAxes
		}
		// Sign flips cannot change euclidean distances, so they are
		// ignored here even when the plot has them applied.
		rows, err := ord.CoordinateRows(axes, nil)
		if err != nil {
			return nil, nil, err
		}
		keep := map[core.SampleID]int{}
		for i, id := range ord.IDs {
			keep[id] = i
		}
		sel := make([][]float64, len(keptIDs))
		for i, id := range keptIDs {
			idx, ok := keep[id]
			if !ok {
				return nil, nil, core.NewNotFoundError("sample", id.String())
			}
			sel[i] = rows[idx]
		}
		sub, err := matrix.FromCoordinates(keptIDs, sel)
		return sub, axes, err

	default:
		return nil, nil, core.NewValidationError("test request", fmt.Sprintf("unknown distance source %q", req.Source))
	}
}

func dropBlanks(ids []core.SampleID, values []string) ([]core.SampleID, []string) {
	keptIDs := make([]core.SampleID, 0, len(ids))
	keptValues := make([]string, 0, len(values))
	for i, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		keptIDs = append(keptIDs, ids[i])
		keptValues = append(keptValues, v)
	}
	return keptIDs, keptValues
}

func parseNumeric(key core.VariableKey, values []string) ([]float64, error) {
	out := make([]float64, len(values))
	for i, v := range values {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, core.NewValidationError("continuous variable",
				fmt.Sprintf("%q has non-numeric value %q; classify it as categorical instead", key, v))
		}
		out[i] = f
	}
	return out, nil
}
