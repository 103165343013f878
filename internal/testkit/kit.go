// Package testkit provides synthetic fixtures for tests and for the
// `synthetic` CLI command.
package testkit

import (
	"math/rand"

	"dendrosim/domain/series"
	sim "dendrosim/domain/simulation"
)

// SyntheticClimate builds a years-by-months matrix of independent standard
// normal values with every column standardized, matching the preprocessing
// contract real climate input must satisfy.
func SyntheticClimate(rng *rand.Rand, years, months int) (*series.Matrix, error) {
	data := make([][]float64, years)
	for y := range data {
		data[y] = make([]float64, months)
	}
	for m := 0; m < months; m++ {
		col := make([]float64, years)
		for y := range col {
			col[y] = rng.NormFloat64()
		}
		col, err := series.Standardize(col)
		if err != nil {
			return nil, err
		}
		for y := range col {
			data[y][m] = col[y]
		}
	}
	return series.NewMatrix(data)
}

// DefaultParams returns a small, fast parameter set used as a baseline in
// tests and demos. Callers override what they need.
func DefaultParams() sim.Params {
	return sim.Params{
		NoiseLevels:       []float64{0.2, 0.4},
		SpecimenCounts:    []int{5, 10},
		PopulationSize:    500,
		DriverMonths:      []int{1},
		AnalysisMonths:    []int{1},
		TargetCorrelation: 0.6,
		TargetCoherence:   0.4,
		Replicates:        10,
		Repetitions:       50,
		PValue:            0.05,
		Seed:              42,
	}
}
