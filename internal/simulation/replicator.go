package simulation

import (
	"math/rand"
)

// ReplicateSet holds, for every specimen, the R noisy core measurements of
// its pool signal at one noise magnitude. It is rebuilt from scratch for
// every (specimen count, noise level) combination: replicate noise is never
// shared across noise levels.
type ReplicateSet struct {
	Specimens  int
	Replicates int
	Years      int
	cores      [][][]float64 // cores[specimen][replicate][year]
}

// Replicator generates core replicate matrices from a specimen pool.
type Replicator struct{}

// NewReplicator creates a core replicator.
func NewReplicator() *Replicator {
	return &Replicator{}
}

// Build generates replicates fresh measurements per specimen, each the
// specimen's pool signal plus independent Gaussian noise at noiseSD. No
// post-standardization: downstream pooling uses the raw noisy replicates.
func (r *Replicator) Build(rng *rand.Rand, pool *Pool, replicates int, noiseSD float64) *ReplicateSet {
	cores := make([][][]float64, len(pool.Specimens))
	for i, signal := range pool.Specimens {
		specimenCores := make([][]float64, replicates)
		for k := 0; k < replicates; k++ {
			core := make([]float64, pool.Years)
			for t, v := range signal {
				core[t] = v + rng.NormFloat64()*noiseSD
			}
			specimenCores[k] = core
		}
		cores[i] = specimenCores
	}
	return &ReplicateSet{
		Specimens:  len(pool.Specimens),
		Replicates: replicates,
		Years:      pool.Years,
		cores:      cores,
	}
}

// Core returns one replicate column (read-only).
func (rs *ReplicateSet) Core(specimen, replicate int) []float64 {
	return rs.cores[specimen][replicate]
}
