// Package simulation defines the parameter and result types of a sampling
// design run. The invariants documented here are enforced by
// Params.Validate before any computation starts.
package simulation

import (
	"time"

	"dendrosim/domain/core"
	"dendrosim/internal/errors"
)

// DefaultPopulationSize realizes the "unbounded population" sentinel
// (PopulationSize == 0). The reliability formulas are stated for an
// infinite population; the simulation always operates on this finite
// matrix.
const DefaultPopulationSize = 2000

// Params configures one simulation run.
//
// INVARIANTS (checked by Validate):
//   - NoiseLevels non-empty, every level > 0
//   - SpecimenCounts non-empty, every count >= 2 and <= effective population
//   - PopulationSize >= 0 (0 means unbounded, realized as DefaultPopulationSize)
//   - DriverMonths and AnalysisMonths non-empty, 1-based indices
//   - TargetCorrelation and TargetCoherence in (0,1]
//   - Replicates and Repetitions > 0
//   - PValue in (0,1)
type Params struct {
	NoiseLevels       []float64 `json:"noise_levels"`
	SpecimenCounts    []int     `json:"specimen_counts"`
	PopulationSize    int       `json:"population_size"`
	DriverMonths      []int     `json:"driver_months"`
	AnalysisMonths    []int     `json:"analysis_months"`
	TargetCorrelation float64   `json:"target_correlation"`
	TargetCoherence   float64   `json:"target_coherence"`
	Replicates        int       `json:"replicates"`
	Repetitions       int       `json:"repetitions"`
	PValue            float64   `json:"p_value"`
	Seed              int64     `json:"seed"`
	Workers           int       `json:"workers,omitempty"`
}

// EffectivePopulation maps the unbounded sentinel to its realized size.
func (p Params) EffectivePopulation() int {
	if p.PopulationSize == 0 {
		return DefaultPopulationSize
	}
	return p.PopulationSize
}

// Combinations returns the size of the specimen-count x noise-level
// cross-product.
func (p Params) Combinations() int {
	return len(p.SpecimenCounts) * len(p.NoiseLevels)
}

// Validate rejects invalid parameters before simulation begins. No partial
// computation is attempted on failure.
func (p Params) Validate() error {
	if len(p.NoiseLevels) == 0 {
		return errors.InvalidParameter("noise level list is empty")
	}
	for _, level := range p.NoiseLevels {
		if level <= 0 {
			return errors.InvalidParameterf("noise level %g must be positive", level)
		}
	}
	if p.PopulationSize < 0 {
		return errors.InvalidParameterf("population size %d must be positive (0 means unbounded)", p.PopulationSize)
	}
	pop := p.EffectivePopulation()
	if len(p.SpecimenCounts) == 0 {
		return errors.InvalidParameter("specimen count list is empty")
	}
	for _, count := range p.SpecimenCounts {
		if count < 2 {
			return errors.InvalidParameterf("specimen count %d must be at least 2", count)
		}
		if count > pop {
			return errors.InvalidParameterf("specimen count %d exceeds population size %d", count, pop)
		}
	}
	if len(p.DriverMonths) == 0 {
		return errors.InvalidParameter("driver season month list is empty")
	}
	if len(p.AnalysisMonths) == 0 {
		return errors.InvalidParameter("analysis season month list is empty")
	}
	for _, month := range append(append([]int{}, p.DriverMonths...), p.AnalysisMonths...) {
		if month < 1 {
			return errors.InvalidParameterf("month index %d must be 1-based", month)
		}
	}
	if p.TargetCorrelation <= 0 || p.TargetCorrelation > 1 {
		return errors.InvalidParameterf("target correlation %g outside (0,1]", p.TargetCorrelation)
	}
	if p.TargetCoherence <= 0 || p.TargetCoherence > 1 {
		return errors.InvalidParameterf("target coherence %g outside (0,1]", p.TargetCoherence)
	}
	if p.Replicates <= 0 {
		return errors.InvalidParameterf("replicate count %d must be positive", p.Replicates)
	}
	if p.Repetitions <= 0 {
		return errors.InvalidParameterf("repetition count %d must be positive", p.Repetitions)
	}
	if p.PValue <= 0 || p.PValue >= 1 {
		return errors.InvalidParameterf("significance p-value %g outside (0,1)", p.PValue)
	}
	return nil
}

// ResultRow is one subsample draw: a pooled chronology's correlation to the
// analysis-season climate signal and its internal coherence, tagged with
// the (specimen count, noise level) combination that produced it.
type ResultRow struct {
	SpecimenCount int     `json:"specimen_count" db:"specimen_count"`
	NoiseLevel    float64 `json:"noise_level" db:"noise_level"`
	Correlation   float64 `json:"correlation" db:"correlation"`
	Coherence     float64 `json:"coherence" db:"coherence"`
}

// Summary carries the run's asymptotic truth statistics, computed from the
// full population without subsampling.
type Summary struct {
	PopulationCoherence   float64 `json:"population_coherence" db:"population_coherence"`
	PopulationCorrelation float64 `json:"population_correlation" db:"population_correlation"`
	CriticalCorrelation   float64 `json:"critical_correlation" db:"critical_correlation"`
}

// Run is the complete output of one simulation: the results table (one row
// per draw, grouped by combination in cross-product order) plus summary
// scalars.
type Run struct {
	ID         core.RunID  `json:"id"`
	Params     Params      `json:"params"`
	Summary    Summary     `json:"summary"`
	Rows       []ResultRow `json:"rows"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
}

// RowsFor returns the rows of one (specimen count, noise level) combination.
func (r *Run) RowsFor(specimenCount int, noiseLevel float64) []ResultRow {
	var out []ResultRow
	for _, row := range r.Rows {
		if row.SpecimenCount == specimenCount && row.NoiseLevel == noiseLevel {
			out = append(out, row)
		}
	}
	return out
}
