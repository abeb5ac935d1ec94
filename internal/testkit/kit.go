// Package testkit generates synthetic distance matrices and metadata
// tables for demos and tests.
package testkit

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"goord/domain/core"
	"goord/domain/matrix"
)

// SampleIDs produces n identifiers of the form S01, S02, ...
func SampleIDs(n int) []core.SampleID {
	ids := make([]core.SampleID, n)
	for i := range ids {
		ids[i] = core.SampleID(fmt.Sprintf("S%02d", i+1))
	}
	return ids
}

// RandomDistanceMatrix builds a symmetric zero-diagonal matrix with
// distances drawn uniformly from [0,1), seeded for reproducibility.
func RandomDistanceMatrix(n int, seed int64) *matrix.DistanceMatrix {
	rng := rand.New(rand.NewSource(seed))
	ids := SampleIDs(n)
	data := make([][]float64, n)
	for i := range data {
		data[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := rng.Float64()
			data[i][j] = v
			data[j][i] = v
		}
	}
	dm, err := matrix.New(ids, ids, data)
	if err != nil {
		panic(fmt.Sprintf("testkit: generated matrix failed validation: %v", err))
	}
	return dm
}

// ClusteredDistanceMatrix builds a matrix with two well-separated
// groups: small distances within the first half and the second half,
// large distances across. Useful for exercising ANOSIM with a strong
// expected signal.
func ClusteredDistanceMatrix(n int, seed int64) *matrix.DistanceMatrix {
	rng := rand.New(rand.NewSource(seed))
	ids := SampleIDs(n)
	half := n / 2
	data := make([][]float64, n)
	for i := range data {
		data[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			var v float64
			if (i < half) == (j < half) {
				v = 0.1 + 0.1*rng.Float64()
			} else {
				v = 0.8 + 0.2*rng.Float64()
			}
			data[i][j] = v
			data[j][i] = v
		}
	}
	dm, err := matrix.New(ids, ids, data)
	if err != nil {
		panic(fmt.Sprintf("testkit: generated matrix failed validation: %v", err))
	}
	return dm
}

// GroupedMetadata builds a metadata table with a two-level categorical
// Group column (first half A, second half B) and a continuous Depth
// column increasing with a jittered gradient.
func GroupedMetadata(ids []core.SampleID, seed int64) *matrix.Metadata {
	rng := rand.New(rand.NewSource(seed))
	header := []string{matrix.SampleIDColumn, "Group", "Depth"}
	rows := make([][]string, len(ids))
	half := len(ids) / 2
	for i, id := range ids {
		group := "A"
		if i >= half {
			group = "B"
		}
		depth := float64(i) + rng.Float64()
		rows[i] = []string{id.String(), group, fmt.Sprintf("%.3f", depth)}
	}
	md, err := matrix.NewMetadata(header, rows)
	if err != nil {
		panic(fmt.Sprintf("testkit: generated metadata failed validation: %v", err))
	}
	return md
}

// MatrixTSV serializes a distance matrix in the upload format
func MatrixTSV(dm *matrix.DistanceMatrix) string {
	var b strings.Builder
	b.WriteString("sample")
	for _, id := range dm.IDs() {
		b.WriteByte('\t')
		b.WriteString(id.String())
	}
	b.WriteByte('\n')
	for i, id := range dm.IDs() {
		b.WriteString(id.String())
		for j := range dm.IDs() {
			fmt.Fprintf(&b, "\t%g", dm.At(i, j))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// MetadataCSV serializes a metadata table in the upload format
func MetadataCSV(md *matrix.Metadata) string {
	var b strings.Builder
	b.WriteString(matrix.SampleIDColumn)
	for _, v := range md.Variables() {
		b.WriteByte(',')
		b.WriteString(v.String())
	}
	b.WriteByte('\n')
	for _, id := range md.IDs() {
		b.WriteString(id.String())
		for _, v := range md.Variables() {
			val, _ := md.Value(id, v)
			b.WriteByte(',')
			b.WriteString(val)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// GradientDistanceMatrix builds distances proportional to |i-j|,
// a perfect one-dimensional gradient for exercising Mantel.
func GradientDistanceMatrix(n int) *matrix.DistanceMatrix {
	ids := SampleIDs(n)
	data := make([][]float64, n)
	for i := range data {
		data[i] = make([]float64, n)
		for j := range data[i] {
			data[i][j] = math.Abs(float64(i - j))
		}
	}
	dm, err := matrix.New(ids, ids, data)
	if err != nil {
		panic(fmt.Sprintf("testkit: generated matrix failed validation: %v", err))
	}
	return dm
}
