// Package rng provides the deterministic random source behind all
// permutation tests.
package rng

import (
	"context"
	"math/rand"
)

// SeededAdapter implements ports.RNGPort with plain math/rand sources.
// The operation name is folded into the seed so distinct tests sharing
// a user seed do not replay the same shuffle sequence, while the same
// (name, seed) pair always does.
type SeededAdapter struct{}

// NewSeededAdapter creates the adapter
func NewSeededAdapter() *SeededAdapter {
	return &SeededAdapter{}
}

// SeededStream creates a deterministic random number generator for a named operation
func (a *SeededAdapter) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	return rand.New(rand.NewSource(seed + int64(hashString(name)))), nil
}

// hashString creates a simple hash for deterministic seeding
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c) // djb2 algorithm
	}
	return hash
}
