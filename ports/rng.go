package ports

import (
	"context"
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic
// permutation sequences. Identical (name, seed) inputs must yield
// identical streams across runs and hosts.
type RNGPort interface {
	// SeededStream creates a deterministic random number generator
	// for a named operation
	SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error)
}
