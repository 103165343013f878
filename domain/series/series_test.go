package series

import (
	"math"
	"math/rand"
	"testing"

	"dendrosim/internal/errors"
)

func TestNewMatrix_Validation(t *testing.T) {
	if _, err := NewMatrix(nil); err == nil {
		t.Error("expected error for empty matrix")
	}
	if _, err := NewMatrix([][]float64{{1, 2}, {3}}); err == nil {
		t.Error("expected error for ragged matrix")
	}

	m, err := NewMatrix([][]float64{{1, 2}, {3, 4}, {5, 6}})
	if err != nil {
		t.Fatal(err)
	}
	if m.Years != 3 || m.Months != 2 {
		t.Errorf("got %dx%d, want 3x2", m.Years, m.Months)
	}
}

func TestSeasonMean(t *testing.T) {
	m, err := NewMatrix([][]float64{{1, 3}, {2, 4}, {3, 5}})
	if err != nil {
		t.Fatal(err)
	}

	// single-month season is the column itself
	single, err := m.SeasonMean([]int{2})
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []float64{3, 4, 5} {
		if single[i] != want {
			t.Errorf("single[%d]=%g, want %g", i, single[i], want)
		}
	}

	// two-month season averages row-wise
	both, err := m.SeasonMean([]int{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []float64{2, 3, 4} {
		if both[i] != want {
			t.Errorf("both[%d]=%g, want %g", i, both[i], want)
		}
	}

	if _, err := m.SeasonMean([]int{3}); err == nil {
		t.Error("expected error for out-of-range month")
	}
	if _, err := m.SeasonMean(nil); err == nil {
		t.Error("expected error for empty season")
	}
}

func TestStandardize(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	z, err := Standardize(x)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(Mean(z)) > 1e-12 {
		t.Errorf("standardized mean %g, want 0", Mean(z))
	}
	if math.Abs(StdDev(z)-1) > 1e-12 {
		t.Errorf("standardized sd %g, want 1", StdDev(z))
	}

	_, err = Standardize([]float64{2, 2, 2, 2})
	if errors.GetCode(err) != errors.CodeDegenerateStatistic {
		t.Errorf("expected DEGENERATE_STATISTIC for constant series, got %v", err)
	}
}

func TestPearson(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}

	r, err := Pearson(x, []float64{2, 4, 6, 8, 10})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(r-1) > 1e-12 {
		t.Errorf("perfect positive correlation: got %g", r)
	}

	r, err = Pearson(x, []float64{5, 4, 3, 2, 1})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(r+1) > 1e-12 {
		t.Errorf("perfect negative correlation: got %g", r)
	}

	if _, err := Pearson(x, []float64{1, 2}); err == nil {
		t.Error("expected error for length mismatch")
	}
	_, err = Pearson(x, []float64{3, 3, 3, 3, 3})
	if errors.GetCode(err) != errors.CodeDegenerateStatistic {
		t.Errorf("expected DEGENERATE_STATISTIC for constant series, got %v", err)
	}
}

func TestRowMean(t *testing.T) {
	pooled := RowMean([][]float64{{1, 2, 3}, {3, 4, 5}})
	for i, want := range []float64{2, 3, 4} {
		if pooled[i] != want {
			t.Errorf("pooled[%d]=%g, want %g", i, pooled[i], want)
		}
	}
}

func TestMeanPairwiseStandardized_MatchesDirect(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	years := 60
	cols := make([][]float64, 8)
	for i := range cols {
		col := make([]float64, years)
		for y := range col {
			col[y] = rng.NormFloat64()
		}
		z, err := Standardize(col)
		if err != nil {
			t.Fatal(err)
		}
		cols[i] = z
	}

	direct, err := MeanPairwiseCorrelation(cols)
	if err != nil {
		t.Fatal(err)
	}
	fast, err := MeanPairwiseStandardized(cols)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(direct-fast) > 1e-10 {
		t.Errorf("identity form %g differs from direct form %g", fast, direct)
	}
}

func TestMeanPairwiseCorrelation_NeedsTwoSeries(t *testing.T) {
	if _, err := MeanPairwiseCorrelation([][]float64{{1, 2, 3}}); err == nil {
		t.Error("expected error for a single series")
	}
}
