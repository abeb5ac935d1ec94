package session

import (
	"goord/domain/core"
	"goord/domain/matrix"
	"goord/domain/ordination"
	"goord/domain/stats"
)

// Session holds one upload's worth of analysis state. Everything lives
// in memory and dies with the session; nothing is persisted.
type Session struct {
	ID       core.SessionID
	Distance *matrix.DistanceMatrix
	Metadata *matrix.Metadata

	// Derived state, recomputed when inputs change
	Ordination      *ordination.Result
	Classifications map[core.VariableKey]stats.Classification
	LastTest        *stats.TestResult

	// Upload provenance
	MatrixFile   string
	MetadataFile string
	Warnings     []core.Warning

	CreatedAt  core.Timestamp
	AccessedAt core.Timestamp
}

// Touch refreshes the access time used by TTL cleanup
func (s *Session) Touch() {
	s.AccessedAt = core.Now()
}

// SampleCount returns the number of samples in the common set
func (s *Session) SampleCount() int {
	if s.Distance == nil {
		return 0
	}
	return s.Distance.Size()
}

// Classification returns the stored classification for a variable
func (s *Session) Classification(key core.VariableKey) (stats.Classification, bool) {
	c, ok := s.Classifications[key]
	return c, ok
}
