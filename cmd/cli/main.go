package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"goord/adapters/ingest"
	"goord/adapters/memstore"
	"goord/adapters/plot"
	"goord/adapters/rng"
	"goord/domain/core"
	"goord/domain/session"
	"goord/domain/stats"
	"goord/internal/config"
	"goord/internal/pipeline"
	"goord/ports"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "goord-cli",
		Short: "Ordination analysis from the command line",
		Long: `Run principal coordinates analysis and permutation tests on a
distance matrix and sample metadata without starting the web UI.`,
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newTestCmd(),
		newPlotCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildPipeline wires an in-process pipeline with the same adapters the
// servers use.
func buildPipeline() (*pipeline.Pipeline, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	pl := pipeline.New(pipeline.Deps{
		Reader:   ingest.NewReader(),
		Sessions: memstore.NewSessionStore(),
		Renderer: plot.NewRenderer(cfg.Plot.DPI, cfg.Plot.WidthIn, cfg.Plot.HeightIn),
		RNG:      rng.NewSeededAdapter(),
		Config:   cfg.Analysis,
	})
	return pl, cfg, nil
}

func loadSession(ctx context.Context, pl *pipeline.Pipeline, matrixPath, metaPath string) (*session.Session, error) {
	mf, err := os.Open(matrixPath)
	if err != nil {
		return nil, err
	}
	defer mf.Close()

	df, err := os.Open(metaPath)
	if err != nil {
		return nil, err
	}
	defer df.Close()

	return pl.CreateSession(ctx, mf, filepath.Base(matrixPath), df, filepath.Base(metaPath))
}

func newAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze [matrix-file] [metadata-file]",
		Short: "Compute the ordination and classify metadata variables",
		Long: `Load a symmetric distance matrix and sample metadata, compute the
principal coordinates, and print the eigenvalue and classification
tables.

Example: goord-cli analyze distances.tsv metadata.csv`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pl, _, err := buildPipeline()
			if err != nil {
				return err
			}
			sess, err := loadSession(cmd.Context(), pl, args[0], args[1])
			if err != nil {
				return err
			}
			printSummary(sess)
			return nil
		},
	}
}

func newTestCmd() *cobra.Command {
	var (
		seed         int64
		permutations int
		mode         string
		source       string
		axes         []string
	)

	cmd := &cobra.Command{
		Use:   "test [matrix-file] [metadata-file] [variable]",
		Short: "Run a seeded permutation test for one metadata variable",
		Long: `Run ANOSIM (categorical variable) or a Mantel test (continuous
variable) against the ordination distances. Results are reproducible
for a fixed seed and permutation count.

Example: goord-cli test distances.tsv metadata.csv Group --seed 42 --permutations 999`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			pl, cfg, err := buildPipeline()
			if err != nil {
				return err
			}
			sess, err := loadSession(cmd.Context(), pl, args[0], args[1])
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("seed") {
				seed = cfg.Analysis.DefaultSeed
			}
			req := stats.TestRequest{
				Variable:     core.VariableKey(args[2]),
				Mode:         stats.TypeMode(mode),
				Permutations: permutations,
				Seed:         seed,
				Source:       stats.DistanceSource(source),
				Axes:         axes,
			}
			result, err := pl.RunTest(cmd.Context(), sess.ID, req)
			if err != nil {
				return err
			}
			printResult(result)
			return nil
		},
	}

	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for the permutation stream")
	cmd.Flags().IntVar(&permutations, "permutations", 0, "Permutation count (0 uses the configured default)")
	cmd.Flags().StringVar(&mode, "mode", string(stats.ModeAuto), "Variable type: auto, categorical or continuous")
	cmd.Flags().StringVar(&source, "source", string(stats.SourceOrdination), "Distance source: ordination or matrix")
	cmd.Flags().StringSliceVar(&axes, "axes", nil, "Ordination axes to test (default PC1,PC2)")

	return cmd
}

func newPlotCmd() *cobra.Command {
	var (
		colorBy   string
		output    string
		format    string
		view      string
		xAxis     string
		yAxis     string
		zAxis     string
		palette   string
		mode      string
		azimuth   float64
		elevation float64
	)

	cmd := &cobra.Command{
		Use:   "plot [matrix-file] [metadata-file]",
		Short: "Export an ordination scatter plot",
		Long: `Render the ordination colored by one metadata variable and write
the image to disk.

Example: goord-cli plot distances.tsv metadata.csv --color Group --output group.png`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pl, _, err := buildPipeline()
			if err != nil {
				return err
			}
			sess, err := loadSession(cmd.Context(), pl, args[0], args[1])
			if err != nil {
				return err
			}

			spec := ports.PlotSpec{
				View:      ports.PlotView(view),
				XAxis:     xAxis,
				YAxis:     yAxis,
				ZAxis:     zAxis,
				ColorBy:   core.VariableKey(colorBy),
				Palette:   palette,
				Format:    ports.ExportFormat(format),
				Azimuth:   azimuth,
				Elevation: elevation,
			}
			data, err := pl.RenderPlot(cmd.Context(), sess.ID, spec, stats.TypeMode(mode))
			if err != nil {
				return err
			}

			if output == "" {
				output = fmt.Sprintf("%s_PCoA.%s", colorBy, format)
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			color.Green("wrote %s (%d bytes)", output, len(data))
			return nil
		},
	}

	cmd.Flags().StringVar(&colorBy, "color", "", "Metadata variable to color by (required)")
	cmd.Flags().StringVar(&output, "output", "", "Output file (default <variable>_PCoA.<format>)")
	cmd.Flags().StringVar(&format, "format", string(ports.FormatPNG), "Export format: png, svg or pdf")
	cmd.Flags().StringVar(&view, "view", string(ports.View2D), "Projection: 2d or 3d")
	cmd.Flags().StringVar(&xAxis, "x", "PC1", "X axis")
	cmd.Flags().StringVar(&yAxis, "y", "PC2", "Y axis")
	cmd.Flags().StringVar(&zAxis, "z", "PC3", "Z axis (3d view only)")
	cmd.Flags().StringVar(&palette, "palette", "", "Palette or colormap name")
	cmd.Flags().StringVar(&mode, "mode", string(stats.ModeAuto), "Variable type override")
	cmd.Flags().Float64Var(&azimuth, "azimuth", 45, "Camera azimuth in degrees (3d view)")
	cmd.Flags().Float64Var(&elevation, "elevation", 30, "Camera elevation in degrees (3d view)")
	cmd.MarkFlagRequired("color")

	return cmd
}

func printSummary(sess *session.Session) {
	header := color.New(color.FgCyan, color.Bold)
	header.Printf("Samples: %d", sess.SampleCount())
	fmt.Println()

	for _, w := range sess.Warnings {
		color.Yellow("warning [%s]: %s", w.Code, w.Message)
	}

	header.Println("\nOrdination axes")
	for _, axis := range sess.Ordination.Axes {
		fmt.Printf("  %-6s eigenvalue %10.4f  %6.2f%% explained\n",
			axis.Name, axis.Eigenvalue, axis.ProportionExplained*100)
	}
	if n := len(sess.Ordination.NegativeEigenvalues); n > 0 {
		color.Yellow("  %d negative eigenvalue(s) excluded from coordinates", n)
	}

	header.Println("\nMetadata variables")
	keys := make([]string, 0, len(sess.Classifications))
	for k := range sess.Classifications {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)
	for _, k := range keys {
		cls := sess.Classifications[core.VariableKey(k)]
		fmt.Printf("  %-20s %-12s %3d distinct, %3d non-blank\n",
			k, cls.Type, cls.Distinct, cls.NonBlank)
	}
}

func printResult(result *stats.TestResult) {
	header := color.New(color.FgCyan, color.Bold)
	header.Printf("%s for %q\n", result.Kind, result.Variable)

	statName := "R"
	if result.Kind == stats.TestMantel {
		statName = "r"
	}
	fmt.Printf("  %s = %.4f\n", statName, result.Statistic)

	pLine := fmt.Sprintf("  p = %.4f (%d permutations, seed %d)",
		result.PValue, result.Permutations, result.Seed)
	if result.PValue <= 0.05 {
		color.Green(pLine)
	} else {
		fmt.Println(pLine)
	}

	fmt.Printf("  n = %d", result.SampleSize)
	if result.Groups > 0 {
		fmt.Printf(", %d groups", result.Groups)
	}
	fmt.Println()
	if len(result.Axes) > 0 {
		fmt.Printf("  distances from axes %v\n", result.Axes)
	}
	for _, w := range result.Warnings {
		color.Yellow("  warning [%s]: %s", w.Code, w.Message)
	}
}
