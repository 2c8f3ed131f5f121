package models

import (
	"errors"
	"math"
)

// difference applies d-order differencing to make series stationary
func difference(series []float64, d int) []float64 {
	if d == 0 || len(series) == 0 {
		result := make([]float64, len(series))
		copy(result, series)
		return result
	}

	result := make([]float64, len(series)-1)
	for i := 0; i < len(series)-1; i++ {
		result[i] = series[i+1] - series[i]
	}

	if d > 1 {
		return difference(result, d-1)
	}

	return result
}

// seasonalDifference applies D-order seasonal differencing at lag s
func seasonalDifference(series []float64, D int, s int) []float64 {
	if D == 0 || s <= 0 || len(series) <= s {
		result := make([]float64, len(series))
		copy(result, series)
		return result
	}

	result := make([]float64, len(series)-s)
	for i := range result {
		result[i] = series[i+s] - series[i]
	}

	if D > 1 {
		return seasonalDifference(result, D-1, s)
	}

	return result
}

func computeMean(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range series {
		sum += v
	}
	return sum / float64(len(series))
}

func computeVariance(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}

	mean := computeMean(series)
	var sumSq float64
	for _, v := range series {
		diff := v - mean
		sumSq += diff * diff
	}
	return sumSq / float64(len(series))
}

// autocorr computes autocorrelation at given lag
func autocorr(series []float64, lag int) float64 {
	if lag < 0 || lag >= len(series) {
		return 0
	}

	mean := computeMean(series)

	var c0, ck float64
	for _, v := range series {
		c0 += (v - mean) * (v - mean)
	}
	for i := 0; i < len(series)-lag; i++ {
		ck += (series[i] - mean) * (series[i+lag] - mean)
	}

	if c0 == 0 {
		return 0
	}
	return ck / c0
}

// fitAR estimates AR coefficients using Yule-Walker equations with Levinson-Durbin.
// A flat series yields zero coefficients.
func fitAR(centered []float64, p int) []float64 {
	if p == 0 {
		return []float64{}
	}

	if computeVariance(centered) < 1e-10 {
		return make([]float64, p)
	}

	acf := make([]float64, p+1)
	for k := 0; k <= p; k++ {
		acf[k] = autocorr(centered, k)
	}

	coeffs, err := levinsonDurbin(acf, p)
	if err != nil {
		coeffs = make([]float64, p)
		coeffs[0] = 0.5
	}
	return coeffs
}

// fitSeasonalAR estimates seasonal AR coefficients at lag s
func fitSeasonalAR(centered []float64, P int, s int) []float64 {
	if P == 0 || s <= 0 {
		return []float64{}
	}

	if computeVariance(centered) < 1e-10 {
		return make([]float64, P)
	}

	acf := make([]float64, P+1)
	for k := 0; k <= P; k++ {
		acf[k] = autocorr(centered, k*s)
	}

	coeffs, err := levinsonDurbin(acf, P)
	if err != nil {
		coeffs = make([]float64, P)
		coeffs[0] = 0.3
	}
	return coeffs
}

func levinsonDurbin(acf []float64, p int) ([]float64, error) {
	if p == 0 {
		return []float64{}, nil
	}

	phi := make([][]float64, p+1)
	for i := range phi {
		phi[i] = make([]float64, p+1)
	}

	v := acf[0]

	for k := 1; k <= p; k++ {
		num := acf[k]
		for j := 1; j < k; j++ {
			num -= phi[k-1][j] * acf[k-j]
		}

		if v == 0 {
			return nil, errors.New("numerical instability in Levinson-Durbin")
		}

		phi[k][k] = num / v

		for j := 1; j < k; j++ {
			phi[k][j] = phi[k-1][j] - phi[k][k]*phi[k-1][k-j]
		}

		v = v * (1 - phi[k][k]*phi[k][k])
		if v < 0 {
			return nil, errors.New("negative variance in Levinson-Durbin")
		}
	}

	coeffs := make([]float64, p)
	for i := range p {
		coeffs[i] = phi[p][i+1]
	}
	return coeffs, nil
}

// computeResiduals returns one-step AR prediction errors, starting at
// index max(p, P*s) of centered.
func computeResiduals(centered, arCoeffs, seasonalARCoeffs []float64, p, P, s int) []float64 {
	startIdx := max(p, P*s)
	if len(centered) <= startIdx {
		return []float64{}
	}

	residuals := make([]float64, len(centered)-startIdx)

	for t := startIdx; t < len(centered); t++ {
		var pred float64
		for i := 0; i < p && i < len(arCoeffs); i++ {
			pred += arCoeffs[i] * centered[t-1-i]
		}
		for i := 0; i < P && i < len(seasonalARCoeffs); i++ {
			if idx := t - (i+1)*s; idx >= 0 {
				pred += seasonalARCoeffs[i] * centered[idx]
			}
		}
		residuals[t-startIdx] = centered[t] - pred
	}

	return residuals
}

// fitMA estimates MA coefficients from residual autocorrelations at the
// given lag stride (1 for the non-seasonal part, s for the seasonal part).
// Coefficients are kept inside (-1, 1) for invertibility.
func fitMA(residuals []float64, q, stride int) []float64 {
	if q == 0 || stride <= 0 || len(residuals) == 0 {
		return []float64{}
	}

	coeffs := make([]float64, q)
	for i := 0; i < q && (i+1)*stride < len(residuals); i++ {
		coeffs[i] = autocorr(residuals, (i+1)*stride)
		if math.Abs(coeffs[i]) >= 1 {
			coeffs[i] = math.Copysign(0.9, coeffs[i])
		}
	}
	return coeffs
}
