package simulation

import (
	"math/rand"

	"dendrosim/domain/reliability"
	"dendrosim/domain/series"
	"dendrosim/internal/errors"
)

// Generator builds the synthetic truth signal and the specimen population
// around it. Both are created once per run and read-only afterwards.
type Generator struct{}

// NewGenerator creates a population generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// BuildDriver constructs the reference climate-driven truth signal: the
// driver-season months averaged row-wise, standardized, perturbed with
// Gaussian noise calibrated to the target correlation, and re-standardized.
func (g *Generator) BuildDriver(rng *rand.Rand, climate *series.Matrix, driverMonths []int, targetCorrelation float64) ([]float64, error) {
	noiseSD, err := reliability.NoiseSDForCorrelation(targetCorrelation)
	if err != nil {
		return nil, err
	}

	seasonal, err := climate.SeasonMean(driverMonths)
	if err != nil {
		return nil, err
	}
	seasonal, err = series.Standardize(seasonal)
	if err != nil {
		return nil, errors.Wrap(err, "driver season signal is degenerate")
	}

	driver := make([]float64, len(seasonal))
	for i, v := range seasonal {
		driver[i] = v + rng.NormFloat64()*noiseSD
	}
	driver, err = series.Standardize(driver)
	if err != nil {
		return nil, errors.Wrap(err, "driver signal is degenerate after noise injection")
	}
	return driver, nil
}

// Pool is the specimen population: one standardized column per specimen,
// each the driver signal plus independent calibrated noise. Conceptually it
// stands in for an unbounded population; populationSize fixes its realized
// width.
type Pool struct {
	Years     int
	Specimens [][]float64 // column-major: Specimens[i][year]
}

// BuildPool derives populationSize specimen columns from the driver signal,
// with per-specimen Gaussian noise calibrated to the target coherence, then
// column-standardizes the whole matrix.
func (g *Generator) BuildPool(rng *rand.Rand, driver []float64, targetCoherence float64, populationSize int) (*Pool, error) {
	noiseSD, err := reliability.NoiseSDForCoherence(targetCoherence)
	if err != nil {
		return nil, err
	}
	if populationSize < 2 {
		return nil, errors.InvalidParameterf("population size %d must be at least 2", populationSize)
	}

	years := len(driver)
	specimens := make([][]float64, populationSize)
	for i := range specimens {
		col := make([]float64, years)
		for t, v := range driver {
			col[t] = v + rng.NormFloat64()*noiseSD
		}
		col, err = series.Standardize(col)
		if err != nil {
			return nil, errors.Wrapf(err, "specimen %d is degenerate", i)
		}
		specimens[i] = col
	}
	return &Pool{Years: years, Specimens: specimens}, nil
}

// MeanChronology pools the entire population into its row-wise mean.
func (p *Pool) MeanChronology() []float64 {
	return series.RowMean(p.Specimens)
}

// Coherence is the population's mean pairwise correlation, computed with
// the standardized-column identity (the pool is column-standardized by
// construction).
func (p *Pool) Coherence() (float64, error) {
	return series.MeanPairwiseStandardized(p.Specimens)
}
