package simulation

import (
	"context"
	"runtime"
	"sync"
	"time"

	"dendrosim/domain/core"
	"dendrosim/domain/reliability"
	"dendrosim/domain/series"
	sim "dendrosim/domain/simulation"
	"dendrosim/internal"
	"dendrosim/internal/errors"
	"dendrosim/ports"
)

// Orchestrator runs the full simulation: population synthesis, truth
// statistics, and the subsampling sweep over the specimen-count x
// noise-level cross-product.
type Orchestrator struct {
	generator  *Generator
	replicator *Replicator
	subsampler *Subsampler
	rng        ports.RNGPort
	logger     *internal.Logger
}

// NewOrchestrator wires the simulation components around an RNG port.
func NewOrchestrator(rngPort ports.RNGPort, logger *internal.Logger) *Orchestrator {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Orchestrator{
		generator:  NewGenerator(),
		replicator: NewReplicator(),
		subsampler: NewSubsampler(),
		rng:        rngPort,
		logger:     logger,
	}
}

// combination is one cell of the cross-product, identified by its index so
// worker completion order never affects the output table.
type combination struct {
	index         int
	specimenCount int
	noiseLevel    float64
}

// Run executes one complete simulation against a standardized climate
// matrix. Deterministic for a fixed Params.Seed regardless of worker count.
func (o *Orchestrator) Run(ctx context.Context, climate *series.Matrix, params sim.Params) (*sim.Run, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	for _, month := range params.DriverMonths {
		if month > climate.Months {
			return nil, errors.InvalidParameterf("driver month %d outside matrix columns 1..%d", month, climate.Months)
		}
	}
	for _, month := range params.AnalysisMonths {
		if month > climate.Months {
			return nil, errors.InvalidParameterf("analysis month %d outside matrix columns 1..%d", month, climate.Months)
		}
	}

	started := time.Now()
	population := params.EffectivePopulation()
	o.logger.Info("simulation start: population=%d combinations=%d repetitions=%d seed=%d",
		population, params.Combinations(), params.Repetitions, params.Seed)

	driver, err := o.generator.BuildDriver(
		o.rng.SeededStream("driver", params.Seed), climate, params.DriverMonths, params.TargetCorrelation)
	if err != nil {
		return nil, err
	}
	pool, err := o.generator.BuildPool(
		o.rng.SeededStream("pool", params.Seed), driver, params.TargetCoherence, population)
	if err != nil {
		return nil, err
	}
	analysisSignal, err := climate.SeasonMean(params.AnalysisMonths)
	if err != nil {
		return nil, err
	}

	summary, err := o.truthSummary(pool, analysisSignal, climate.Years, params.PValue)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("truth statistics: coherence=%.4f correlation=%.4f critical=%.4f",
		summary.PopulationCoherence, summary.PopulationCorrelation, summary.CriticalCorrelation)

	combos := make([]combination, 0, params.Combinations())
	for _, count := range params.SpecimenCounts {
		for _, level := range params.NoiseLevels {
			combos = append(combos, combination{index: len(combos), specimenCount: count, noiseLevel: level})
		}
	}

	results := make([][]sim.ResultRow, len(combos))
	workers := params.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(combos) {
		workers = len(combos)
	}

	workChan := make(chan combination, len(combos))
	var wg sync.WaitGroup
	var mu sync.Mutex
	var runErr error

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for combo := range workChan {
				select {
				case <-ctx.Done():
					return
				default:
				}
				rows, err := o.runCombination(pool, analysisSignal, params, combo)
				mu.Lock()
				if err != nil {
					if runErr == nil {
						runErr = err
					}
				} else {
					results[combo.index] = rows
				}
				mu.Unlock()
			}
		}()
	}

	for _, combo := range combos {
		workChan <- combo
	}
	close(workChan)
	wg.Wait()

	if runErr != nil {
		return nil, runErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows := make([]sim.ResultRow, 0, len(combos)*params.Repetitions)
	for _, comboRows := range results {
		rows = append(rows, comboRows...)
	}

	finished := time.Now()
	o.logger.Info("simulation done: %d rows in %s", len(rows), finished.Sub(started).Round(time.Millisecond))

	return &sim.Run{
		ID:         core.NewRunID(),
		Params:     params,
		Summary:    summary,
		Rows:       rows,
		StartedAt:  started,
		FinishedAt: finished,
	}, nil
}

// truthSummary computes the population's asymptotic statistics directly
// from the full pool, without subsampling.
func (o *Orchestrator) truthSummary(pool *Pool, analysisSignal []float64, years int, pValue float64) (sim.Summary, error) {
	coherence, err := pool.Coherence()
	if err != nil {
		return sim.Summary{}, err
	}
	correlation, err := series.Pearson(pool.MeanChronology(), analysisSignal)
	if err != nil {
		return sim.Summary{}, errors.Wrap(err, "population chronology correlation undefined")
	}
	critical, err := reliability.CriticalCorrelation(years, pValue)
	if err != nil {
		return sim.Summary{}, err
	}
	return sim.Summary{
		PopulationCoherence:   coherence,
		PopulationCorrelation: correlation,
		CriticalCorrelation:   critical,
	}, nil
}

// runCombination builds a fresh replicate set for the combination's noise
// level and subsamples it. The combination's RNG stream covers both stages,
// so the combination is reproducible in isolation.
func (o *Orchestrator) runCombination(pool *Pool, analysisSignal []float64, params sim.Params, combo combination) ([]sim.ResultRow, error) {
	rng := o.rng.CombinationStream(params.Seed, combo.index)
	set := o.replicator.Build(rng, pool, params.Replicates, combo.noiseLevel)
	return o.subsampler.Run(rng, set, combo.specimenCount, params.Repetitions, analysisSignal, combo.noiseLevel)
}
