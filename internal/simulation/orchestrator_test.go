package simulation

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"dendrosim/adapters/rng"
	sim "dendrosim/domain/simulation"
	"dendrosim/internal"
	"dendrosim/internal/errors"
	"dendrosim/internal/testkit"
)

func newTestOrchestrator() *Orchestrator {
	return NewOrchestrator(rng.NewStreamAdapter(), internal.NewLogger(internal.LogLevelError))
}

// TestOrchestrator_EndToEnd is the full scenario: 50-year 2-month synthetic
// climate, one combination, 200 draws.
func TestOrchestrator_EndToEnd(t *testing.T) {
	climate, err := testkit.SyntheticClimate(rand.New(rand.NewSource(11)), 50, 2)
	if err != nil {
		t.Fatal(err)
	}

	params := sim.Params{
		NoiseLevels:       []float64{0.2},
		SpecimenCounts:    []int{10},
		PopulationSize:    2000,
		DriverMonths:      []int{1},
		AnalysisMonths:    []int{2},
		TargetCorrelation: 0.6,
		TargetCoherence:   0.4,
		Replicates:        50,
		Repetitions:       200,
		PValue:            0.05,
		Seed:              99,
	}

	run, err := newTestOrchestrator().Run(context.Background(), climate, params)
	if err != nil {
		t.Fatal(err)
	}

	if len(run.Rows) != 200 {
		t.Fatalf("got %d rows, want 200", len(run.Rows))
	}
	for i, row := range run.Rows {
		if row.SpecimenCount != 10 || row.NoiseLevel != 0.2 {
			t.Fatalf("row %d tagged (%d, %g), want (10, 0.2)", i, row.SpecimenCount, row.NoiseLevel)
		}
		if math.Abs(row.Correlation) > 1 {
			t.Fatalf("row %d correlation %g outside [-1,1]", i, row.Correlation)
		}
		if math.Abs(row.Coherence) > 1 {
			t.Fatalf("row %d coherence %g outside [-1,1]", i, row.Coherence)
		}
	}

	if math.Abs(run.Summary.PopulationCorrelation) > 1 {
		t.Errorf("population correlation %g outside [-1,1]", run.Summary.PopulationCorrelation)
	}
	if run.Summary.CriticalCorrelation <= 0 || run.Summary.CriticalCorrelation >= 1 {
		t.Errorf("critical correlation %g outside (0,1)", run.Summary.CriticalCorrelation)
	}
	// target coherence 0.4 should show up in the population truth
	if math.Abs(run.Summary.PopulationCoherence-0.4) > 0.05 {
		t.Errorf("population coherence %g, want about 0.4", run.Summary.PopulationCoherence)
	}
}

// TestOrchestrator_TableShape checks the A x B x K accounting across a
// multi-combination cross-product.
func TestOrchestrator_TableShape(t *testing.T) {
	climate, err := testkit.SyntheticClimate(rand.New(rand.NewSource(12)), 60, 4)
	if err != nil {
		t.Fatal(err)
	}

	params := testkit.DefaultParams()
	params.NoiseLevels = []float64{0.2, 0.5, 1.0}
	params.SpecimenCounts = []int{4, 8}
	params.PopulationSize = 200
	params.Replicates = 5
	params.Repetitions = 25
	params.DriverMonths = []int{1, 2}
	params.AnalysisMonths = []int{3}

	run, err := newTestOrchestrator().Run(context.Background(), climate, params)
	if err != nil {
		t.Fatal(err)
	}

	wantRows := 2 * 3 * 25
	if len(run.Rows) != wantRows {
		t.Fatalf("got %d rows, want %d", len(run.Rows), wantRows)
	}
	for _, count := range params.SpecimenCounts {
		for _, level := range params.NoiseLevels {
			if got := len(run.RowsFor(count, level)); got != 25 {
				t.Errorf("combination (%d, %g) has %d rows, want 25", count, level, got)
			}
		}
	}
}

// TestOrchestrator_Deterministic verifies the same seed yields identical
// tables regardless of worker count.
func TestOrchestrator_Deterministic(t *testing.T) {
	climate, err := testkit.SyntheticClimate(rand.New(rand.NewSource(13)), 40, 2)
	if err != nil {
		t.Fatal(err)
	}

	params := testkit.DefaultParams()
	params.PopulationSize = 100
	params.Replicates = 4
	params.Repetitions = 10
	params.Seed = 7

	params.Workers = 1
	sequential, err := newTestOrchestrator().Run(context.Background(), climate, params)
	if err != nil {
		t.Fatal(err)
	}

	params.Workers = 4
	parallel, err := newTestOrchestrator().Run(context.Background(), climate, params)
	if err != nil {
		t.Fatal(err)
	}

	if len(sequential.Rows) != len(parallel.Rows) {
		t.Fatalf("row counts differ: %d vs %d", len(sequential.Rows), len(parallel.Rows))
	}
	for i := range sequential.Rows {
		if sequential.Rows[i] != parallel.Rows[i] {
			t.Fatalf("row %d differs between sequential and parallel runs: %+v vs %+v",
				i, sequential.Rows[i], parallel.Rows[i])
		}
	}
	if sequential.Summary != parallel.Summary {
		t.Errorf("summaries differ: %+v vs %+v", sequential.Summary, parallel.Summary)
	}
}

func TestOrchestrator_RejectsInvalidParams(t *testing.T) {
	climate, err := testkit.SyntheticClimate(rand.New(rand.NewSource(14)), 30, 2)
	if err != nil {
		t.Fatal(err)
	}
	orch := newTestOrchestrator()

	cases := []struct {
		name   string
		mutate func(*sim.Params)
	}{
		{"negative noise", func(p *sim.Params) { p.NoiseLevels = []float64{-0.1} }},
		{"zero noise", func(p *sim.Params) { p.NoiseLevels = []float64{0} }},
		{"count exceeds population", func(p *sim.Params) { p.SpecimenCounts = []int{p.PopulationSize + 1} }},
		{"zero repetitions", func(p *sim.Params) { p.Repetitions = 0 }},
		{"zero replicates", func(p *sim.Params) { p.Replicates = 0 }},
		{"target correlation above 1", func(p *sim.Params) { p.TargetCorrelation = 1.1 }},
		{"target coherence zero", func(p *sim.Params) { p.TargetCoherence = 0 }},
		{"p-value of 1", func(p *sim.Params) { p.PValue = 1 }},
		{"driver month out of range", func(p *sim.Params) { p.DriverMonths = []int{5} }},
		{"analysis month out of range", func(p *sim.Params) { p.AnalysisMonths = []int{99} }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := testkit.DefaultParams()
			params.PopulationSize = 50
			params.Repetitions = 5
			tc.mutate(&params)

			_, err := orch.Run(context.Background(), climate, params)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if errors.GetCode(err) != errors.CodeInvalidParameter {
				t.Errorf("expected INVALID_PARAMETER, got %s (%v)", errors.GetCode(err), err)
			}
		})
	}
}

func TestOrchestrator_ContextCancellation(t *testing.T) {
	climate, err := testkit.SyntheticClimate(rand.New(rand.NewSource(15)), 30, 2)
	if err != nil {
		t.Fatal(err)
	}

	params := testkit.DefaultParams()
	params.PopulationSize = 50
	params.Repetitions = 5

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newTestOrchestrator().Run(ctx, climate, params); err == nil {
		t.Error("expected error for cancelled context")
	}
}
