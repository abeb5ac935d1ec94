package pipeline

import (
	"context"
	"strings"
	"testing"

	"goord/adapters/ingest"
	"goord/adapters/memstore"
	"goord/adapters/plot"
	"goord/adapters/rng"
	"goord/domain/core"
	"goord/domain/stats"
	"goord/internal/config"
	"goord/internal/testkit"
	"goord/ports"
)

func testPipeline() (*Pipeline, *memstore.SessionStore) {
	store := memstore.NewSessionStore()
	pl := New(Deps{
		Reader:   ingest.NewReader(),
		Sessions: store,
		Renderer: plot.NewRenderer(96, 6, 4),
		RNG:      rng.NewSeededAdapter(),
		Config: config.AnalysisConfig{
			CategoricalThreshold: 10,
			DefaultPermutations:  99,
			MaxPermutations:      10000,
			DefaultSeed:          42,
		},
	})
	return pl, store
}

func uploadFixture(t *testing.T, n int) (*Pipeline, core.SessionID) {
	t.Helper()
	dm := testkit.ClusteredDistanceMatrix(n, 31)
	md := testkit.GroupedMetadata(dm.IDs(), 32)

	pl, _ := testPipeline()
	sess, err := pl.CreateSession(context.Background(),
		strings.NewReader(testkit.MatrixTSV(dm)), "dist.tsv",
		strings.NewReader(testkit.MetadataCSV(md)), "meta.csv")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	return pl, sess.ID
}

// TestCreateSessionEndToEnd tests the full load stage
func TestCreateSessionEndToEnd(t *testing.T) {
	dm := testkit.ClusteredDistanceMatrix(10, 31)
	md := testkit.GroupedMetadata(dm.IDs(), 32)

	pl, store := testPipeline()
	sess, err := pl.CreateSession(context.Background(),
		strings.NewReader(testkit.MatrixTSV(dm)), "dist.tsv",
		strings.NewReader(testkit.MetadataCSV(md)), "meta.csv")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	if sess.SampleCount() != 10 {
		t.Errorf("Expected 10 samples, got %d", sess.SampleCount())
	}
	if sess.Ordination == nil || sess.Ordination.AxisCount() < 2 {
		t.Fatal("Expected a computed ordination with at least 2 axes")
	}
	if len(sess.Classifications) != 2 {
		t.Errorf("Expected 2 classified variables, got %d", len(sess.Classifications))
	}
	if sess.Classifications[core.VariableKey("Group")].Type != stats.TypeCategorical {
		t.Error("Group should classify categorical")
	}
	if store.Len() != 1 {
		t.Errorf("Expected 1 stored session, got %d", store.Len())
	}
	if len(sess.Warnings) != 0 {
		t.Errorf("Fully matched inputs should carry no warnings, got %v", sess.Warnings)
	}
}

// TestCreateSessionIntersectsSamples tests the partial-overlap path:
// unmatched samples are dropped with warnings, matrix row order rules.
func TestCreateSessionIntersectsSamples(t *testing.T) {
	dm := testkit.ClusteredDistanceMatrix(10, 31)
	ids := dm.IDs()

	// Metadata covers only the first 8 matrix samples plus one stranger.
	rows := make([][]string, 0, 9)
	for i := 0; i < 8; i++ {
		group := "A"
		if i >= 4 {
			group = "B"
		}
		rows = append(rows, []string{ids[i].String(), group})
	}
	rows = append(rows, []string{"stranger", "C"})
	meta := "SampleID,Group\n"
	for _, row := range rows {
		meta += strings.Join(row, ",") + "\n"
	}

	pl, _ := testPipeline()
	sess, err := pl.CreateSession(context.Background(),
		strings.NewReader(testkit.MatrixTSV(dm)), "dist.tsv",
		strings.NewReader(meta), "meta.csv")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	if sess.SampleCount() != 8 {
		t.Errorf("Expected 8 common samples, got %d", sess.SampleCount())
	}
	found := 0
	for _, w := range sess.Warnings {
		if w.Code == core.WarnDroppedSamples {
			found++
		}
	}
	if found != 2 {
		t.Errorf("Expected dropped-sample warnings for both sides, got %v", sess.Warnings)
	}
	// Common set preserves matrix row order
	for i, id := range sess.Distance.IDs() {
		if id != ids[i] {
			t.Fatalf("Sample order diverged at %d: %s vs %s", i, id, ids[i])
		}
	}
}

// TestCreateSessionNoOverlap tests disjoint sample sets
func TestCreateSessionNoOverlap(t *testing.T) {
	dm := testkit.ClusteredDistanceMatrix(6, 31)
	meta := "SampleID,Group\nx1,A\nx2,B\n"

	pl, _ := testPipeline()
	_, err := pl.CreateSession(context.Background(),
		strings.NewReader(testkit.MatrixTSV(dm)), "dist.tsv",
		strings.NewReader(meta), "meta.csv")
	if err == nil {
		t.Fatal("Expected error for disjoint sample sets")
	}
	if !core.IsValidationError(err) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

// TestRunTestDefaultsAndCaching tests request defaulting and the
// last-test cache.
func TestRunTestDefaultsAndCaching(t *testing.T) {
	pl, id := uploadFixture(t, 10)
	ctx := context.Background()

	result, err := pl.RunTest(ctx, id, stats.TestRequest{
		Variable: core.VariableKey("Group"),
		Seed:     42,
	})
	if err != nil {
		t.Fatalf("RunTest failed: %v", err)
	}
	if result.Permutations != 99 {
		t.Errorf("Expected default permutation count 99, got %d", result.Permutations)
	}
	if result.Source != stats.SourceOrdination {
		t.Errorf("Expected default ordination source, got %s", result.Source)
	}
	if result.Kind != stats.TestANOSIM {
		t.Errorf("Expected anosim, got %s", result.Kind)
	}

	sess, err := pl.GetSession(ctx, id)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if sess.LastTest == nil || sess.LastTest.Statistic != result.Statistic {
		t.Error("Expected the result cached on the session")
	}
}

// TestRunTestReproducible tests seed reproducibility through the
// whole pipeline.
func TestRunTestReproducible(t *testing.T) {
	pl, id := uploadFixture(t, 10)
	ctx := context.Background()

	req := stats.TestRequest{
		Variable:     core.VariableKey("Group"),
		Permutations: 999,
		Seed:         42,
	}
	a, err := pl.RunTest(ctx, id, req)
	if err != nil {
		t.Fatalf("RunTest failed: %v", err)
	}
	b, err := pl.RunTest(ctx, id, req)
	if err != nil {
		t.Fatalf("RunTest failed: %v", err)
	}
	if a.Statistic != b.Statistic || a.PValue != b.PValue {
		t.Errorf("Same request must reproduce: R %g vs %g, p %g vs %g",
			a.Statistic, b.Statistic, a.PValue, b.PValue)
	}
}

// TestRunTestLimits tests permutation bounds and unknown variables
func TestRunTestLimits(t *testing.T) {
	pl, id := uploadFixture(t, 10)
	ctx := context.Background()

	_, err := pl.RunTest(ctx, id, stats.TestRequest{
		Variable:     core.VariableKey("Group"),
		Permutations: 20001,
		Seed:         1,
	})
	if !core.IsValidationError(err) {
		t.Errorf("Expected validation error above the permutation cap, got %v", err)
	}

	_, err = pl.RunTest(ctx, id, stats.TestRequest{
		Variable: core.VariableKey("Nope"),
		Seed:     1,
	})
	if !core.IsNotFoundError(err) {
		t.Errorf("Expected not-found error for unknown variable, got %v", err)
	}

	_, err = pl.RunTest(ctx, core.NewSessionID(), stats.TestRequest{
		Variable: core.VariableKey("Group"),
		Seed:     1,
	})
	if !core.IsNotFoundError(err) {
		t.Errorf("Expected not-found error for unknown session, got %v", err)
	}
}

// TestRenderPlotResolvesType tests palette and type resolution
func TestRenderPlotResolvesType(t *testing.T) {
	// 12 samples keep Depth above the distinct-value threshold, so it
	// classifies continuous.
	pl, id := uploadFixture(t, 12)
	ctx := context.Background()

	// Categorical variable with default palette
	data, err := pl.RenderPlot(ctx, id, ports.PlotSpec{
		XAxis:   "PC1",
		YAxis:   "PC2",
		ColorBy: core.VariableKey("Group"),
		Format:  ports.FormatPNG,
	}, stats.ModeAuto)
	if err != nil {
		t.Fatalf("RenderPlot failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Empty categorical render")
	}

	// Continuous variable with default colormap
	data, err = pl.RenderPlot(ctx, id, ports.PlotSpec{
		XAxis:   "PC1",
		YAxis:   "PC2",
		ColorBy: core.VariableKey("Depth"),
		Format:  ports.FormatSVG,
	}, stats.ModeAuto)
	if err != nil {
		t.Fatalf("RenderPlot failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Empty continuous render")
	}

	_, err = pl.RenderPlot(ctx, id, ports.PlotSpec{
		XAxis:   "PC1",
		YAxis:   "PC2",
		ColorBy: core.VariableKey("Nope"),
		Format:  ports.FormatPNG,
	}, stats.ModeAuto)
	if !core.IsNotFoundError(err) {
		t.Errorf("Expected not-found error for unknown variable, got %v", err)
	}
}

// TestDeleteSession tests explicit teardown
func TestDeleteSession(t *testing.T) {
	pl, id := uploadFixture(t, 8)
	ctx := context.Background()

	if err := pl.DeleteSession(ctx, id); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if _, err := pl.GetSession(ctx, id); !core.IsNotFoundError(err) {
		t.Errorf("Expected not-found after delete, got %v", err)
	}
}
