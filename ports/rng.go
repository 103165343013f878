package ports

import (
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic runs.
// Population generation, replicate generation and subsampling each consume
// their own stream so that parallel and sequential execution produce
// identical results for the same master seed.
type RNGPort interface {
	// SeededStream creates a deterministic generator for a named stage
	// (e.g. "driver", "pool") derived from the master seed.
	SeededStream(name string, seed int64) *rand.Rand

	// CombinationStream creates a deterministic generator for one
	// (specimen count, noise level) combination, derived from the master
	// seed and the combination's cross-product index.
	CombinationStream(seed int64, combination int) *rand.Rand
}
