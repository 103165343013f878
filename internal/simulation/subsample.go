package simulation

import (
	"math/rand"

	"dendrosim/domain/series"
	sim "dendrosim/domain/simulation"
	"dendrosim/internal/errors"
)

// Subsampler performs the repeated random draws at the heart of the
// simulation: sample a sub-population, pool one core per specimen, and
// measure the pooled chronology against the climate signal.
type Subsampler struct{}

// NewSubsampler creates a subsample simulator.
func NewSubsampler() *Subsampler {
	return &Subsampler{}
}

// Run performs repetitions independent draws against one replicate set and
// returns one result row per draw, tagged with (specimenCount, noiseLevel).
//
// Each draw: specimenCount distinct specimens sampled without replacement
// (Fisher-Yates permutation prefix, bias-free), one replicate column chosen
// uniformly per specimen (independent across specimens and draws), pooled
// by row-wise mean. Coherence is the mean off-diagonal pairwise correlation
// among the selected columns; correlation is Pearson between the pooled
// chronology and the analysis-season signal.
func (s *Subsampler) Run(rng *rand.Rand, set *ReplicateSet, specimenCount, repetitions int, analysisSignal []float64, noiseLevel float64) ([]sim.ResultRow, error) {
	rows := make([]sim.ResultRow, 0, repetitions)
	cols := make([][]float64, specimenCount)

	for k := 0; k < repetitions; k++ {
		indices := rng.Perm(set.Specimens)[:specimenCount]
		for j, specimen := range indices {
			cols[j] = set.Core(specimen, rng.Intn(set.Replicates))
		}

		coherence, err := series.MeanPairwiseCorrelation(cols)
		if err != nil {
			return nil, errors.Wrapf(err, "coherence undefined at specimen_count=%d noise_level=%g repetition=%d", specimenCount, noiseLevel, k)
		}

		chronology := series.RowMean(cols)
		correlation, err := series.Pearson(chronology, analysisSignal)
		if err != nil {
			return nil, errors.Wrapf(err, "climate correlation undefined at specimen_count=%d noise_level=%g repetition=%d", specimenCount, noiseLevel, k)
		}

		rows = append(rows, sim.ResultRow{
			SpecimenCount: specimenCount,
			NoiseLevel:    noiseLevel,
			Correlation:   correlation,
			Coherence:     coherence,
		})
	}
	return rows, nil
}
