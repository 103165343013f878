// Package rng implements the RNG port with splitmix64-style seed mixing so
// that every stage and every combination gets an independent, reproducible
// stream derived from one master seed.
package rng

import (
	"hash/fnv"
	"math/rand"

	"dendrosim/ports"
)

// StreamAdapter derives independent rand.Rand streams from a master seed.
type StreamAdapter struct{}

// NewStreamAdapter creates a new stream adapter.
func NewStreamAdapter() *StreamAdapter {
	return &StreamAdapter{}
}

var _ ports.RNGPort = (*StreamAdapter)(nil)

// SeededStream derives a stream from the master seed and a stage name.
func (a *StreamAdapter) SeededStream(name string, seed int64) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(name))
	return rand.New(rand.NewSource(mix(seed, h.Sum64())))
}

// CombinationStream derives a stream from the master seed and a
// cross-product combination index. Distinct indices yield uncorrelated
// streams, so workers can consume them in any order.
func (a *StreamAdapter) CombinationStream(seed int64, combination int) *rand.Rand {
	return rand.New(rand.NewSource(mix(seed, uint64(combination)+0x243F6A8885A308D3)))
}

// mix is the splitmix64 finalizer applied to seed+salt. It breaks up the
// linear structure of nearby seeds and salts.
func mix(seed int64, salt uint64) int64 {
	z := uint64(seed) + salt + 0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return int64(z ^ (z >> 31))
}
