package series

import (
	"math"

	"dendrosim/internal/errors"
)

// Matrix holds a year-by-month climate matrix. Callers provide it already
// detrended and column-standardized; nothing here mutates it after creation.
type Matrix struct {
	Years  int
	Months int
	data   [][]float64 // data[year][month]
}

// NewMatrix builds a Matrix from row-major year data. Rows must be
// non-empty and rectangular.
func NewMatrix(data [][]float64) (*Matrix, error) {
	if len(data) == 0 {
		return nil, errors.InvalidParameter("climate matrix has no rows")
	}
	months := len(data[0])
	if months == 0 {
		return nil, errors.InvalidParameter("climate matrix has no columns")
	}
	for i, row := range data {
		if len(row) != months {
			return nil, errors.InvalidParameterf("climate matrix row %d has %d columns, expected %d", i, len(row), months)
		}
	}
	return &Matrix{Years: len(data), Months: months, data: data}, nil
}

// Row returns the values for one year (not a copy; treat as read-only).
func (m *Matrix) Row(year int) []float64 {
	return m.data[year]
}

// Column returns a copy of one month column. Months are 1-based calendar
// indices into the matrix columns.
func (m *Matrix) Column(month int) ([]float64, error) {
	if month < 1 || month > m.Months {
		return nil, errors.InvalidParameterf("month index %d outside matrix columns 1..%d", month, m.Months)
	}
	col := make([]float64, m.Years)
	for y := 0; y < m.Years; y++ {
		col[y] = m.data[y][month-1]
	}
	return col, nil
}

// SeasonMean averages the given month columns row-wise. A season of one
// month is averaged too (sum of one element divided by one), so single- and
// multi-month seasons share one code path.
func (m *Matrix) SeasonMean(months []int) ([]float64, error) {
	if len(months) == 0 {
		return nil, errors.InvalidParameter("season month list is empty")
	}
	for _, month := range months {
		if month < 1 || month > m.Months {
			return nil, errors.InvalidParameterf("season month %d outside matrix columns 1..%d", month, m.Months)
		}
	}
	out := make([]float64, m.Years)
	for y := 0; y < m.Years; y++ {
		sum := 0.0
		for _, month := range months {
			sum += m.data[y][month-1]
		}
		out[y] = sum / float64(len(months))
	}
	return out, nil
}

// Mean returns the arithmetic mean of x.
func Mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range x {
		sum += v
	}
	return sum / float64(len(x))
}

// StdDev returns the sample (n-1) standard deviation of x.
func StdDev(x []float64) float64 {
	if len(x) <= 1 {
		return 0
	}
	m := Mean(x)
	sumSq := 0.0
	for _, v := range x {
		diff := v - m
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(x)-1))
}

// Standardize returns x transformed to mean 0 and sample standard
// deviation 1. A zero-variance input is degenerate.
func Standardize(x []float64) ([]float64, error) {
	if len(x) < 2 {
		return nil, errors.DegenerateStatistic("cannot standardize a series shorter than 2 points")
	}
	m := Mean(x)
	sd := StdDev(x)
	if sd == 0 {
		return nil, errors.DegenerateStatistic("cannot standardize a zero-variance series")
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = (v - m) / sd
	}
	return out, nil
}

// Pearson computes the Pearson correlation coefficient between x and y.
// Zero variance in either series is degenerate rather than silently zero.
func Pearson(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, errors.InvalidParameterf("correlation inputs differ in length: %d vs %d", len(x), len(y))
	}
	if len(x) < 2 {
		return 0, errors.DegenerateStatistic("correlation undefined for fewer than 2 points")
	}

	n := float64(len(x))
	sumX, sumY := 0.0, 0.0
	sumXY, sumX2, sumY2 := 0.0, 0.0, 0.0
	for i := 0; i < len(x); i++ {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumX2 += x[i] * x[i]
		sumY2 += y[i] * y[i]
	}

	numerator := n*sumXY - sumX*sumY
	denominator := math.Sqrt((n*sumX2 - sumX*sumX) * (n*sumY2 - sumY*sumY))
	if denominator == 0 {
		return 0, errors.DegenerateStatistic("correlation undefined: zero-variance series")
	}
	return numerator / denominator, nil
}

// RowMean pools equal-length columns into their element-wise mean.
func RowMean(cols [][]float64) []float64 {
	if len(cols) == 0 {
		return nil
	}
	years := len(cols[0])
	out := make([]float64, years)
	for t := 0; t < years; t++ {
		sum := 0.0
		for _, col := range cols {
			sum += col[t]
		}
		out[t] = sum / float64(len(cols))
	}
	return out
}

// MeanPairwiseCorrelation computes the mean of the off-diagonal entries of
// the pairwise Pearson correlation matrix among the given columns. Columns
// need not be standardized; every pair is correlated in full.
func MeanPairwiseCorrelation(cols [][]float64) (float64, error) {
	if len(cols) < 2 {
		return 0, errors.DegenerateStatistic("mean pairwise correlation needs at least 2 series")
	}
	sum := 0.0
	pairs := 0
	for i := 0; i < len(cols); i++ {
		for j := i + 1; j < len(cols); j++ {
			r, err := Pearson(cols[i], cols[j])
			if err != nil {
				return 0, err
			}
			sum += r
			pairs++
		}
	}
	return sum / float64(pairs), nil
}

// MeanPairwiseStandardized computes the mean pairwise correlation for
// columns that are already standardized (mean 0, sample sd 1). For such
// columns corr(i,j) = dot(z_i, z_j)/(Y-1), so the pair sum collapses to
// (sum_t S(t)^2 - sum_i dot(z_i, z_i)) / (Y-1) with S the row sums,
// which is O(n*Y) instead of O(n^2*Y).
func MeanPairwiseStandardized(cols [][]float64) (float64, error) {
	n := len(cols)
	if n < 2 {
		return 0, errors.DegenerateStatistic("mean pairwise correlation needs at least 2 series")
	}
	years := len(cols[0])
	if years < 2 {
		return 0, errors.DegenerateStatistic("mean pairwise correlation undefined for fewer than 2 points")
	}

	rowSums := make([]float64, years)
	sumSelf := 0.0
	for _, col := range cols {
		for t, v := range col {
			rowSums[t] += v
			sumSelf += v * v
		}
	}
	total := 0.0
	for _, s := range rowSums {
		total += s * s
	}

	pairSum := (total - sumSelf) / float64(years-1)
	return pairSum / float64(n*(n-1)), nil
}
