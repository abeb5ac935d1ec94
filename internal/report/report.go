// Package report builds a markdown summary of a session's analysis,
// rendered to HTML at the UI boundary.
package report

import (
	"fmt"
	"sort"
	"strings"

	"goord/domain/core"
	"goord/domain/session"
	"goord/domain/stats"
)

// Markdown summarizes the session: inputs, ordination, variable
// classification, and the most recent test.
func Markdown(sess *session.Session) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Ordination analysis report\n\n")
	fmt.Fprintf(&b, "- Distance matrix: `%s`\n", sess.MatrixFile)
	fmt.Fprintf(&b, "- Metadata: `%s`\n", sess.MetadataFile)
	fmt.Fprintf(&b, "- Samples in common set: %d\n", sess.SampleCount())
	fmt.Fprintf(&b, "- Created: %s\n\n", sess.CreatedAt)

	if len(sess.Warnings) > 0 {
		fmt.Fprintf(&b, "## Warnings\n\n")
		for _, w := range sess.Warnings {
			fmt.Fprintf(&b, "- **%s**: %s\n", w.Code, w.Message)
		}
		fmt.Fprintln(&b)
	}

	writeOrdination(&b, sess)
	writeClassifications(&b, sess)
	writeTest(&b, sess.LastTest)

	return b.String()
}

func writeOrdination(b *strings.Builder, sess *session.Session) {
	ord := sess.Ordination
	if ord == nil {
		return
	}
	fmt.Fprintf(b, "## Principal coordinates\n\n")
	fmt.Fprintf(b, "| Axis | Eigenvalue | Variance explained |\n")
	fmt.Fprintf(b, "|------|-----------:|-------------------:|\n")
	shown := ord.Axes
	if len(shown) > 10 {
		shown = shown[:10]
	}
	for _, ax := range shown {
		fmt.Fprintf(b, "| %s | %.4f | %.1f%% |\n", ax.Name, ax.Eigenvalue, ax.ProportionExplained*100)
	}
	if len(ord.Axes) > len(shown) {
		fmt.Fprintf(b, "\n(%d further axes omitted)\n", len(ord.Axes)-len(shown))
	}
	for _, w := range ord.Warnings {
		fmt.Fprintf(b, "\n> **%s**: %s\n", w.Code, w.Message)
	}
	fmt.Fprintln(b)
}

func writeClassifications(b *strings.Builder, sess *session.Session) {
	if len(sess.Classifications) == 0 {
		return
	}
	fmt.Fprintf(b, "## Variables\n\n")
	fmt.Fprintf(b, "| Variable | Type | Distinct | Non-blank | Test |\n")
	fmt.Fprintf(b, "|----------|------|---------:|----------:|------|\n")

	keys := make([]string, 0, len(sess.Classifications))
	for k := range sess.Classifications {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	for _, k := range keys {
		cls := sess.Classifications[core.VariableKey(k)]
		fmt.Fprintf(b, "| %s | %s | %d | %d | %s |\n",
			k, cls.Type, cls.Distinct, cls.NonBlank, stats.KindFor(cls.Type))
	}
	fmt.Fprintln(b)
}

func writeTest(b *strings.Builder, t *stats.TestResult) {
	if t == nil {
		return
	}
	fmt.Fprintf(b, "## Significance test\n\n")
	statName := "R"
	if t.Kind == stats.TestMantel {
		statName = "r"
	}
	fmt.Fprintf(b, "**%s** on `%s` (%s): %s = %.4f, p = %.4g  \n",
		strings.ToUpper(string(t.Kind)), t.Variable, t.VariableType, statName, t.Statistic, t.PValue)
	fmt.Fprintf(b, "%d permutations, seed %d, %d samples", t.Permutations, t.Seed, t.SampleSize)
	if t.Groups > 0 {
		fmt.Fprintf(b, ", %d groups", t.Groups)
	}
	if len(t.Axes) > 0 {
		fmt.Fprintf(b, ", distances from axes %s", strings.Join(t.Axes, "/"))
	}
	fmt.Fprintln(b)
	for _, w := range t.Warnings {
		fmt.Fprintf(b, "\n> **%s**: %s\n", w.Code, w.Message)
	}
}
