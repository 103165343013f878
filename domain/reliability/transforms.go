// Package reliability holds the algebraic transforms between chronology
// reliability metrics. The formulas are stated for an idealized infinite
// population of specimens; the simulation realizes that population as a
// large finite matrix and these transforms calibrate its noise magnitudes.
package reliability

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"dendrosim/internal/errors"
)

// CoherenceToEPS converts the mean inter-series correlation rbar of n
// pooled specimens into the Expressed Population Signal:
//
//	EPS = n*rbar / (1 + (n-1)*rbar)
//
// Defined for n >= 2 and rbar in (-1/(n-1), 1].
func CoherenceToEPS(rbar float64, n int) (float64, error) {
	if n < 2 {
		return 0, errors.NumericDomainf("specimen count n=%d must be at least 2 for EPS", n)
	}
	if rbar <= -1.0/float64(n-1) || rbar > 1 {
		return 0, errors.NumericDomainf("coherence rbar=%g outside (-1/(n-1), 1] for n=%d", rbar, n)
	}
	nf := float64(n)
	return nf * rbar / (1 + (nf-1)*rbar), nil
}

// EPSToCoherence is the exact algebraic inverse of CoherenceToEPS:
//
//	rbar = EPS / (n - EPS*(n-1))
func EPSToCoherence(eps float64, n int) (float64, error) {
	if n < 2 {
		return 0, errors.NumericDomainf("specimen count n=%d must be at least 2 for EPS", n)
	}
	nf := float64(n)
	denom := nf - eps*(nf-1)
	if denom == 0 {
		return 0, errors.NumericDomainf("eps=%g has no finite coherence for n=%d", eps, n)
	}
	return eps / denom, nil
}

// CriticalCorrelation returns the Pearson correlation magnitude that is
// statistically significant at two-tailed p-value pValue for sampleSize
// paired observations, via Student's t with sampleSize-2 degrees of
// freedom:
//
//	r_crit = sqrt(t^2 / (t^2 + df))
func CriticalCorrelation(sampleSize int, pValue float64) (float64, error) {
	if sampleSize <= 2 {
		return 0, errors.NumericDomainf("sample size N=%d must exceed 2 for a significance threshold", sampleSize)
	}
	if pValue <= 0 || pValue >= 1 {
		return 0, errors.NumericDomainf("p-value %g outside (0,1)", pValue)
	}

	df := float64(sampleSize - 2)
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	tCrit := tDist.Quantile(1 - pValue/2)
	return math.Sqrt(tCrit * tCrit / (tCrit*tCrit + df)), nil
}

// NoiseSDForCorrelation returns the Gaussian noise standard deviation that,
// added to a unit-variance signal, yields an expected correlation of target
// between the noisy and clean signals:
//
//	sd = sqrt(1 - x^2) / x
//
// from corr = signal_sd / sqrt(signal_sd^2 + noise_sd^2) with signal_sd = 1.
func NoiseSDForCorrelation(target float64) (float64, error) {
	if target <= 0 || target > 1 {
		return 0, errors.NumericDomainf("target correlation %g outside (0,1]", target)
	}
	return math.Sqrt(1-target*target) / target, nil
}

// NoiseSDForCoherence returns the Gaussian noise standard deviation that,
// added independently to many copies of a unit-variance signal, yields an
// expected mean pairwise correlation of target among the copies:
//
//	sd = sqrt((1 - x) / x)
func NoiseSDForCoherence(target float64) (float64, error) {
	if target <= 0 || target > 1 {
		return 0, errors.NumericDomainf("target coherence %g outside (0,1]", target)
	}
	return math.Sqrt((1 - target) / target), nil
}
