// Package report renders a completed simulation run as a Markdown summary
// and as HTML. This is the summarization surface for the results table:
// per-specimen-count reliability distributions and coherence quantile
// buckets, the schema downstream visualization tools consume.
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/montanaflynn/stats"

	"dendrosim/domain/reliability"
	sim "dendrosim/domain/simulation"
	"dendrosim/internal/errors"
)

// groupSummary aggregates all draws for one specimen count.
type groupSummary struct {
	SpecimenCount     int
	Draws             int
	MeanCorrelation   float64
	MedianCorrelation float64
	P05Correlation    float64
	P95Correlation    float64
	MeanCoherence     float64
	MedianCoherence   float64
	EPS               float64 // from the median coherence at this count
}

// coherenceBucket is one quantile range of the coherence distribution
// across every draw in the run.
type coherenceBucket struct {
	Label            string
	Low, High        float64
	Draws            int
	MeanCorrelation  float64
	SignificantShare float64 // draws whose |correlation| >= critical
}

// Markdown renders the run as a Markdown document.
func Markdown(run *sim.Run) (string, error) {
	if len(run.Rows) == 0 {
		return "", errors.InvalidParameter("run has no result rows to report")
	}

	groups, err := summarizeGroups(run)
	if err != nil {
		return "", err
	}
	buckets, err := bucketByCoherence(run)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Sampling design run %s\n\n", run.ID)
	fmt.Fprintf(&b, "Target correlation %.2f, target coherence %.2f, population %d, %d cores/specimen, %d draws per combination, seed %d.\n\n",
		run.Params.TargetCorrelation, run.Params.TargetCoherence,
		run.Params.EffectivePopulation(), run.Params.Replicates,
		run.Params.Repetitions, run.Params.Seed)

	b.WriteString("## Population truth\n\n")
	fmt.Fprintf(&b, "- Population coherence (rbar): %.4f\n", run.Summary.PopulationCoherence)
	fmt.Fprintf(&b, "- Population correlation to climate: %.4f\n", run.Summary.PopulationCorrelation)
	fmt.Fprintf(&b, "- Critical correlation (two-tailed p=%g): %.4f\n\n",
		run.Params.PValue, run.Summary.CriticalCorrelation)

	b.WriteString("## Reliability by specimen count\n\n")
	b.WriteString("| n | draws | mean r | median r | p05 r | p95 r | mean rbar | median rbar | EPS |\n")
	b.WriteString("|---|-------|--------|----------|-------|-------|-----------|-------------|-----|\n")
	for _, g := range groups {
		fmt.Fprintf(&b, "| %d | %d | %.3f | %.3f | %.3f | %.3f | %.3f | %.3f | %.3f |\n",
			g.SpecimenCount, g.Draws, g.MeanCorrelation, g.MedianCorrelation,
			g.P05Correlation, g.P95Correlation, g.MeanCoherence, g.MedianCoherence, g.EPS)
	}
	b.WriteString("\n")

	b.WriteString("## Coherence quantile buckets\n\n")
	b.WriteString("| bucket | rbar range | draws | mean r | share significant |\n")
	b.WriteString("|--------|------------|-------|--------|-------------------|\n")
	for _, bucket := range buckets {
		fmt.Fprintf(&b, "| %s | [%.3f, %.3f] | %d | %.3f | %.1f%% |\n",
			bucket.Label, bucket.Low, bucket.High, bucket.Draws,
			bucket.MeanCorrelation, 100*bucket.SignificantShare)
	}
	b.WriteString("\n")

	return b.String(), nil
}

// HTML renders the run report as an HTML fragment.
func HTML(run *sim.Run) ([]byte, error) {
	md, err := Markdown(run)
	if err != nil {
		return nil, err
	}
	p := parser.NewWithExtensions(parser.CommonExtensions)
	doc := p.Parse([]byte(md))
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.Render(doc, renderer), nil
}

func summarizeGroups(run *sim.Run) ([]groupSummary, error) {
	groups := make([]groupSummary, 0, len(run.Params.SpecimenCounts))
	for _, count := range run.Params.SpecimenCounts {
		var correlations, coherences []float64
		for _, row := range run.Rows {
			if row.SpecimenCount == count {
				correlations = append(correlations, row.Correlation)
				coherences = append(coherences, row.Coherence)
			}
		}
		if len(correlations) == 0 {
			continue
		}

		meanR, _ := stats.Mean(correlations)
		medianR, _ := stats.Median(correlations)
		p05, _ := stats.Percentile(correlations, 5)
		p95, _ := stats.Percentile(correlations, 95)
		meanRbar, _ := stats.Mean(coherences)
		medianRbar, _ := stats.Median(coherences)

		eps, err := reliability.CoherenceToEPS(medianRbar, count)
		if err != nil {
			return nil, errors.Wrapf(err, "EPS undefined for specimen count %d", count)
		}

		groups = append(groups, groupSummary{
			SpecimenCount:     count,
			Draws:             len(correlations),
			MeanCorrelation:   meanR,
			MedianCorrelation: medianR,
			P05Correlation:    p05,
			P95Correlation:    p95,
			MeanCoherence:     meanRbar,
			MedianCoherence:   medianRbar,
			EPS:               eps,
		})
	}
	return groups, nil
}

func bucketByCoherence(run *sim.Run) ([]coherenceBucket, error) {
	coherences := make([]float64, len(run.Rows))
	for i, row := range run.Rows {
		coherences[i] = row.Coherence
	}

	minC, _ := stats.Min(coherences)
	maxC, _ := stats.Max(coherences)
	q25, err := stats.Percentile(coherences, 25)
	if err != nil {
		return nil, errors.Wrap(err, "coherence quartiles undefined")
	}
	q50, _ := stats.Percentile(coherences, 50)
	q75, _ := stats.Percentile(coherences, 75)

	edges := []struct {
		label     string
		low, high float64
	}{
		{"Q1", minC, q25},
		{"Q2", q25, q50},
		{"Q3", q50, q75},
		{"Q4", q75, maxC},
	}

	buckets := make([]coherenceBucket, 0, len(edges))
	for i, e := range edges {
		var sum float64
		var draws, significant int
		for _, row := range run.Rows {
			// Half-open ranges except the last bucket, so every draw
			// lands in exactly one bucket.
			inBucket := row.Coherence >= e.low && (row.Coherence < e.high || i == len(edges)-1 && row.Coherence <= e.high)
			if !inBucket {
				continue
			}
			draws++
			sum += row.Correlation
			if math.Abs(row.Correlation) >= run.Summary.CriticalCorrelation {
				significant++
			}
		}
		bucket := coherenceBucket{Label: e.label, Low: e.low, High: e.high, Draws: draws}
		if draws > 0 {
			bucket.MeanCorrelation = sum / float64(draws)
			bucket.SignificantShare = float64(significant) / float64(draws)
		}
		buckets = append(buckets, bucket)
	}
	return buckets, nil
}

