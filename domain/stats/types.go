package stats

import (
	"goord/domain/core"
)

// VariableType is the derived semantic type of a metadata column.
// Classification is a heuristic over the observed values, never stored
// with the data.
type VariableType string

const (
	TypeCategorical VariableType = "categorical"
	TypeContinuous  VariableType = "continuous"
)

// TypeMode lets the user override the classifier
type TypeMode string

const (
	ModeAuto        TypeMode = "auto"
	ModeCategorical TypeMode = "categorical"
	ModeContinuous  TypeMode = "continuous"
)

// TestKind identifies the dispatched significance test
type TestKind string

const (
	TestANOSIM TestKind = "anosim"
	TestMantel TestKind = "mantel"
)

// KindFor maps a variable type to its test: categorical grouping gets
// ANOSIM, continuous gradients get Mantel.
func KindFor(t VariableType) TestKind {
	if t == TypeCategorical {
		return TestANOSIM
	}
	return TestMantel
}

// DistanceSource selects which distances a test runs against
type DistanceSource string

const (
	// SourceOrdination derives euclidean distances from the chosen
	// ordination axes, matching the interactive plot.
	SourceOrdination DistanceSource = "ordination"
	// SourceMatrix tests the uploaded distance matrix directly.
	SourceMatrix DistanceSource = "matrix"
)

// Classification describes one metadata column as the classifier saw it
type Classification struct {
	Variable      core.VariableKey `json:"variable"`
	Type          VariableType     `json:"type"`
	Distinct      int              `json:"distinct"`
	NonBlank      int              `json:"non_blank"`
	Blank         int              `json:"blank"`
	NumericCount  int              `json:"numeric_count"`
	Threshold     int              `json:"threshold"`
	Profile       *ColumnProfile   `json:"profile,omitempty"`
}

// ColumnProfile carries descriptive statistics for numeric columns
type ColumnProfile struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
}

// TestRequest is the full, reproducible description of one test run
type TestRequest struct {
	Variable     core.VariableKey `json:"variable"`
	Mode         TypeMode         `json:"mode"`
	Permutations int              `json:"permutations"`
	Seed         int64            `json:"seed"`
	Source       DistanceSource   `json:"source"`
	Axes         []string         `json:"axes,omitempty"` // ordination axes for SourceOrdination
}

// TestResult is the outcome of an ANOSIM or Mantel run. Identical
// requests against identical data reproduce it bit for bit.
type TestResult struct {
	Kind         TestKind         `json:"kind"`
	Variable     core.VariableKey `json:"variable"`
	VariableType VariableType     `json:"variable_type"`
	Statistic    float64          `json:"statistic"` // ANOSIM R or Mantel r
	PValue       float64          `json:"p_value"`
	Permutations int              `json:"permutations"`
	Seed         int64            `json:"seed"`
	SampleSize   int              `json:"sample_size"`
	Groups       int              `json:"groups,omitempty"` // ANOSIM only
	Source       DistanceSource   `json:"source"`
	Axes         []string         `json:"axes,omitempty"`
	Warnings     []core.Warning   `json:"warnings,omitempty"`
	ComputedAt   core.Timestamp   `json:"computed_at"`
}
