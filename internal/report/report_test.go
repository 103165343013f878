package report

import (
	"strings"
	"testing"
	"time"

	"dendrosim/domain/core"
	sim "dendrosim/domain/simulation"
	"dendrosim/internal/errors"
)

func fixtureRun(t *testing.T) *sim.Run {
	t.Helper()
	params := sim.Params{
		NoiseLevels:       []float64{0.2, 0.5},
		SpecimenCounts:    []int{5, 10},
		PopulationSize:    100,
		DriverMonths:      []int{1},
		AnalysisMonths:    []int{1},
		TargetCorrelation: 0.6,
		TargetCoherence:   0.4,
		Replicates:        10,
		Repetitions:       3,
		PValue:            0.05,
		Seed:              1,
	}

	var rows []sim.ResultRow
	base := 0.1
	for _, count := range params.SpecimenCounts {
		for _, level := range params.NoiseLevels {
			for k := 0; k < params.Repetitions; k++ {
				rows = append(rows, sim.ResultRow{
					SpecimenCount: count,
					NoiseLevel:    level,
					Correlation:   base,
					Coherence:     base + 0.05,
				})
				base += 0.05
			}
		}
	}

	now := time.Now()
	return &sim.Run{
		ID:     core.NewRunID(),
		Params: params,
		Summary: sim.Summary{
			PopulationCoherence:   0.41,
			PopulationCorrelation: 0.58,
			CriticalCorrelation:   0.349,
		},
		Rows:       rows,
		StartedAt:  now,
		FinishedAt: now.Add(time.Second),
	}
}

func TestMarkdown_Sections(t *testing.T) {
	run := fixtureRun(t)

	md, err := Markdown(run)
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"## Population truth",
		"## Reliability by specimen count",
		"## Coherence quantile buckets",
		run.ID.String(),
	} {
		if !strings.Contains(md, want) {
			t.Errorf("report missing %q", want)
		}
	}

	// one table row per specimen count, one per quartile bucket
	if got := strings.Count(md, "| 5 |"); got != 1 {
		t.Errorf("specimen count 5 appears in %d rows, want 1", got)
	}
	if got := strings.Count(md, "| 10 |"); got != 1 {
		t.Errorf("specimen count 10 appears in %d rows, want 1", got)
	}
	for _, label := range []string{"Q1", "Q2", "Q3", "Q4"} {
		if !strings.Contains(md, "| "+label+" |") {
			t.Errorf("missing bucket %s", label)
		}
	}
}

func TestBucketByCoherence_CoversEveryDraw(t *testing.T) {
	run := fixtureRun(t)

	buckets, err := bucketByCoherence(run)
	if err != nil {
		t.Fatal(err)
	}
	if len(buckets) != 4 {
		t.Fatalf("got %d buckets, want 4", len(buckets))
	}

	total := 0
	for _, b := range buckets {
		if b.Low > b.High {
			t.Errorf("bucket %s has inverted range [%g, %g]", b.Label, b.Low, b.High)
		}
		if b.SignificantShare < 0 || b.SignificantShare > 1 {
			t.Errorf("bucket %s significant share %g outside [0,1]", b.Label, b.SignificantShare)
		}
		total += b.Draws
	}
	if total != len(run.Rows) {
		t.Errorf("buckets account for %d draws, run has %d", total, len(run.Rows))
	}
}

func TestSummarizeGroups(t *testing.T) {
	run := fixtureRun(t)

	groups, err := summarizeGroups(run)
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	for _, g := range groups {
		if g.Draws != 6 {
			t.Errorf("group n=%d has %d draws, want 6", g.SpecimenCount, g.Draws)
		}
		if g.EPS <= 0 || g.EPS > 1 {
			t.Errorf("group n=%d EPS %g outside (0,1]", g.SpecimenCount, g.EPS)
		}
		if g.P05Correlation > g.MedianCorrelation || g.MedianCorrelation > g.P95Correlation {
			t.Errorf("group n=%d quantiles out of order: p05=%g median=%g p95=%g",
				g.SpecimenCount, g.P05Correlation, g.MedianCorrelation, g.P95Correlation)
		}
	}
}

func TestHTML_RendersTables(t *testing.T) {
	run := fixtureRun(t)

	out, err := HTML(run)
	if err != nil {
		t.Fatal(err)
	}
	htmlStr := string(out)
	if !strings.Contains(htmlStr, "<table>") {
		t.Error("HTML output has no rendered table")
	}
	if !strings.Contains(htmlStr, "Population truth") {
		t.Error("HTML output missing population truth heading")
	}
}

func TestMarkdown_EmptyRun(t *testing.T) {
	run := fixtureRun(t)
	run.Rows = nil

	_, err := Markdown(run)
	if errors.GetCode(err) != errors.CodeInvalidParameter {
		t.Errorf("expected INVALID_PARAMETER for empty run, got %v", err)
	}
}
