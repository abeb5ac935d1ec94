package permtest

import (
	"context"
	"testing"

	"goord/adapters/rng"
	"goord/domain/core"
	"goord/domain/matrix"
	"goord/domain/ordination"
	"goord/domain/stats"
	"goord/internal/classify"
	"goord/internal/pcoa"
	"goord/internal/testkit"
)

func testerFixture(t *testing.T, n int) (*matrix.DistanceMatrix, *matrix.Metadata, *ordination.Result, map[core.VariableKey]stats.Classification) {
	t.Helper()
	dm := testkit.ClusteredDistanceMatrix(n, 11)
	md := testkit.GroupedMetadata(dm.IDs(), 12)
	ord, err := pcoa.Compute(dm)
	if err != nil {
		t.Fatalf("PCoA failed: %v", err)
	}
	cls, err := classify.New(10).ClassifyAll(md)
	if err != nil {
		t.Fatalf("Classification failed: %v", err)
	}
	return dm, md, ord, cls
}

// TestRunDispatchesANOSIM tests that a categorical variable runs ANOSIM
func TestRunDispatchesANOSIM(t *testing.T) {
	dm, md, ord, cls := testerFixture(t, 10)
	tester := NewTester(rng.NewSeededAdapter())

	req := stats.TestRequest{
		Variable:     core.VariableKey("Group"),
		Permutations: 999,
		Seed:         42,
	}
	result, err := tester.Run(context.Background(), dm, md, ord, cls[req.Variable], req)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Kind != stats.TestANOSIM {
		t.Errorf("Expected anosim, got %s", result.Kind)
	}
	if result.VariableType != stats.TypeCategorical {
		t.Errorf("Expected categorical, got %s", result.VariableType)
	}
	if result.Groups != 2 {
		t.Errorf("Expected 2 groups, got %d", result.Groups)
	}
	// Default distance source is the first two ordination axes
	if len(result.Axes) != 2 || result.Axes[0] != "PC1" || result.Axes[1] != "PC2" {
		t.Errorf("Expected default axes [PC1 PC2], got %v", result.Axes)
	}
	if result.Statistic < 0.5 {
		t.Errorf("Expected strong group separation, got R=%g", result.Statistic)
	}
}

// TestRunDispatchesMantel tests that a continuous variable runs Mantel
func TestRunDispatchesMantel(t *testing.T) {
	dm, md, ord, cls := testerFixture(t, 12)
	tester := NewTester(rng.NewSeededAdapter())

	req := stats.TestRequest{
		Variable:     core.VariableKey("Depth"),
		Permutations: 999,
		Seed:         42,
	}
	result, err := tester.Run(context.Background(), dm, md, ord, cls[req.Variable], req)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Kind != stats.TestMantel {
		t.Errorf("Expected mantel, got %s", result.Kind)
	}
	if result.VariableType != stats.TypeContinuous {
		t.Errorf("Expected continuous, got %s", result.VariableType)
	}
	if result.Statistic < -1 || result.Statistic > 1 {
		t.Errorf("r out of [-1,1]: %g", result.Statistic)
	}
}

// TestRunReproducible tests that identical requests reproduce results
// bit for bit.
func TestRunReproducible(t *testing.T) {
	dm, md, ord, cls := testerFixture(t, 10)
	tester := NewTester(rng.NewSeededAdapter())

	req := stats.TestRequest{
		Variable:     core.VariableKey("Group"),
		Permutations: 999,
		Seed:         42,
	}
	a, err := tester.Run(context.Background(), dm, md, ord, cls[req.Variable], req)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	b, err := tester.Run(context.Background(), dm, md, ord, cls[req.Variable], req)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if a.Statistic != b.Statistic || a.PValue != b.PValue {
		t.Errorf("Identical requests must agree: R %g vs %g, p %g vs %g",
			a.Statistic, b.Statistic, a.PValue, b.PValue)
	}

	req.Seed = 43
	c, err := tester.Run(context.Background(), dm, md, ord, cls[req.Variable], req)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if a.Statistic != c.Statistic {
		t.Error("The observed statistic must not depend on the seed")
	}
}

// TestRunModeOverride tests forcing a numeric variable categorical
func TestRunModeOverride(t *testing.T) {
	dm, md, ord, cls := testerFixture(t, 10)
	tester := NewTester(rng.NewSeededAdapter())

	// Group is categorical; force the continuous path and expect a
	// failure since its values are not numeric.
	req := stats.TestRequest{
		Variable:     core.VariableKey("Group"),
		Mode:         stats.ModeContinuous,
		Permutations: 99,
		Seed:         1,
	}
	if _, err := tester.Run(context.Background(), dm, md, ord, cls[req.Variable], req); !core.IsValidationError(err) {
		t.Errorf("Expected validation error for non-numeric continuous override, got %v", err)
	}

	// A numeric column with repeated levels: classified continuous, but
	// the categorical override must run ANOSIM on its levels.
	ids := dm.IDs()
	rows := make([][]string, len(ids))
	for i, id := range ids {
		rows[i] = []string{id.String(), []string{"1", "2", "3", "4", "5"}[i%5]}
	}
	md2, err := matrix.NewMetadata([]string{"id", "Level"}, rows)
	if err != nil {
		t.Fatalf("Failed to build metadata: %v", err)
	}
	cls2, err := classify.New(3).Classify(md2, core.VariableKey("Level"))
	if err != nil {
		t.Fatalf("Classification failed: %v", err)
	}
	if cls2.Type != stats.TypeContinuous {
		t.Fatalf("Fixture expected continuous classification, got %s", cls2.Type)
	}

	req = stats.TestRequest{
		Variable:     core.VariableKey("Level"),
		Mode:         stats.ModeCategorical,
		Permutations: 99,
		Seed:         1,
	}
	result, err := tester.Run(context.Background(), dm, md2, ord, cls2, req)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Kind != stats.TestANOSIM {
		t.Errorf("Expected anosim under categorical override, got %s", result.Kind)
	}
	if result.Groups != 5 {
		t.Errorf("Expected 5 groups, got %d", result.Groups)
	}
}

// TestRunMatrixSource tests testing against the uploaded distances
func TestRunMatrixSource(t *testing.T) {
	dm, md, ord, cls := testerFixture(t, 10)
	tester := NewTester(rng.NewSeededAdapter())

	req := stats.TestRequest{
		Variable:     core.VariableKey("Group"),
		Permutations: 999,
		Seed:         42,
		Source:       stats.SourceMatrix,
	}
	result, err := tester.Run(context.Background(), dm, md, ord, cls[req.Variable], req)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Axes != nil {
		t.Errorf("Matrix source must not report axes, got %v", result.Axes)
	}
	if result.Statistic < 0.9 {
		t.Errorf("Expected R near 1 on the raw clustered matrix, got %g", result.Statistic)
	}
}

// TestRunDropsBlanks tests blank value exclusion with a warning
func TestRunDropsBlanks(t *testing.T) {
	dm := testkit.ClusteredDistanceMatrix(10, 11)
	ids := dm.IDs()
	rows := make([][]string, len(ids))
	for i, id := range ids {
		group := "A"
		if i >= 5 {
			group = "B"
		}
		if i == 0 {
			group = ""
		}
		rows[i] = []string{id.String(), group}
	}
	md, err := matrix.NewMetadata([]string{"id", "Group"}, rows)
	if err != nil {
		t.Fatalf("Failed to build metadata: %v", err)
	}
	ord, err := pcoa.Compute(dm)
	if err != nil {
		t.Fatalf("PCoA failed: %v", err)
	}
	cls, err := classify.New(10).Classify(md, core.VariableKey("Group"))
	if err != nil {
		t.Fatalf("Classification failed: %v", err)
	}

	tester := NewTester(rng.NewSeededAdapter())
	req := stats.TestRequest{
		Variable:     core.VariableKey("Group"),
		Permutations: 99,
		Seed:         1,
	}
	result, err := tester.Run(context.Background(), dm, md, ord, cls, req)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.SampleSize != 9 {
		t.Errorf("Expected 9 samples after dropping the blank, got %d", result.SampleSize)
	}
	found := false
	for _, w := range result.Warnings {
		if w.Code == core.WarnBlankValues {
			found = true
		}
	}
	if !found {
		t.Error("Expected a blank-values warning")
	}
}
