package models

import (
	"context"
	"fmt"
)

// SARIMAModel is the in-process seasonal strategy.
//
// SARIMA(p,d,q)(P,D,Q,s) where:
//   - p: Non-seasonal AutoRegressive order
//   - d: Non-seasonal Differencing order
//   - q: Non-seasonal Moving Average order
//   - P: Seasonal AutoRegressive order
//   - D: Seasonal Differencing order
//   - Q: Seasonal Moving Average order
//   - s: Seasonal period in points of the daily axis (7 = weekly)
//
// With P=D=Q=0 the seasonal components are disabled and the model reduces to
// ARIMA(p,d,q): a trend forecaster on the differenced series.
//
// The model keeps no fitted state. Each Predict call fits the history it is
// given, so a single instance is safe for concurrent use.
type SARIMAModel struct {
	p, d, q    int
	P, D, Q, s int
}

// NewSARIMAModel creates a new SARIMA model with the specified parameters.
//
// Parameters:
//   - p: Non-seasonal AR order (0 = auto-detect, defaults to 1)
//   - d: Non-seasonal Differencing order (0 = auto-detect, defaults to 1; max 2)
//   - q: Non-seasonal MA order (0 = auto-detect, defaults to 1)
//   - P: Seasonal AR order (0 = no seasonal AR)
//   - D: Seasonal Differencing order (0 = no seasonal differencing; max 1)
//   - Q: Seasonal MA order (0 = no seasonal MA)
//   - s: Seasonal period in data points (must be > 0 for seasonal components)
//
// Panics on out-of-range parameters; callers validate configuration first.
func NewSARIMAModel(p, d, q, P, D, Q, s int) *SARIMAModel {
	if d < 0 || d > 2 {
		panic("d must be in range [0, 2]")
	}
	if D < 0 || D > 1 {
		panic("D must be in range [0, 1]")
	}
	if p < 0 || q < 0 {
		panic("p and q must be >= 0")
	}
	if P < 0 || Q < 0 {
		panic("P and Q must be >= 0")
	}
	if (P > 0 || D > 0 || Q > 0) && s <= 0 {
		panic("s must be > 0 when using seasonal components")
	}

	if p == 0 {
		p = 1
	}
	if d == 0 {
		d = 1
	}
	if q == 0 {
		q = 1
	}

	return &SARIMAModel{p: p, d: d, q: q, P: P, D: D, Q: Q, s: s}
}

// Name returns the model name with its orders.
func (m *SARIMAModel) Name() string {
	if !m.seasonal() {
		return fmt.Sprintf("sarima(%d,%d,%d)", m.p, m.d, m.q)
	}
	return fmt.Sprintf("sarima(%d,%d,%d)(%d,%d,%d,%d)", m.p, m.d, m.q, m.P, m.D, m.Q, m.s)
}

// Probe always succeeds: the model runs in-process.
func (m *SARIMAModel) Probe(ctx context.Context) error {
	return nil
}

func (m *SARIMAModel) seasonal() bool {
	return m.P > 0 || m.D > 0 || m.Q > 0
}

// MinPoints is the shortest history the model can fit.
func (m *SARIMAModel) MinPoints() int {
	need := max(MinSeasonalPoints, m.p+m.d+1, m.q+m.d+1)
	if m.seasonal() {
		need = max(need, m.s*(m.P+m.D)+m.d+1, m.s*(m.Q+m.D)+m.d+1)
	}
	return need
}

// Predict fits the model to history and forecasts periods steps ahead.
//
// The procedure:
//  1. Differences the series d times, then seasonally D times at lag s
//  2. Fits AR (Yule-Walker) and MA (residual autocorrelation) coefficients,
//     seasonal ones at lag s when enabled
//  3. Runs the ARMA recursion forward, with future shocks set to zero
//  4. Undoes seasonal then regular differencing to return to the original scale
//
// Values are not clamped.
func (m *SARIMAModel) Predict(ctx context.Context, history []float64, periods int) ([]float64, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if need := m.MinPoints(); len(history) < need {
		return nil, insufficient(need, len(history))
	}
	if periods < 0 {
		return nil, fmt.Errorf("periods must be >= 0, got %d", periods)
	}
	if periods == 0 {
		return []float64{}, nil
	}

	levels := make([][]float64, m.d+1)
	levels[0] = difference(history, 0)
	for k := 1; k <= m.d; k++ {
		levels[k] = difference(levels[k-1], 1)
	}
	base := levels[m.d]

	stationary := base
	if m.D > 0 {
		stationary = seasonalDifference(base, m.D, m.s)
	}

	mean := computeMean(stationary)
	centered := make([]float64, len(stationary))
	for i, v := range stationary {
		centered[i] = v - mean
	}

	arCoeffs := fitAR(centered, m.p)
	var seasonalARCoeffs []float64
	if m.P > 0 {
		seasonalARCoeffs = fitSeasonalAR(centered, m.P, m.s)
	}

	residuals := computeResiduals(centered, arCoeffs, seasonalARCoeffs, m.p, m.P, m.s)

	maCoeffs := fitMA(residuals, m.q, 1)
	var seasonalMACoeffs []float64
	if m.Q > 0 {
		seasonalMACoeffs = fitMA(residuals, m.Q, m.s)
	}

	n := len(centered)
	ext := make([]float64, n+periods)
	copy(ext, centered)
	shocks := make([]float64, n+periods)
	copy(shocks[n-len(residuals):], residuals)

	for t := n; t < n+periods; t++ {
		var pred float64
		for i, c := range arCoeffs {
			if idx := t - 1 - i; idx >= 0 {
				pred += c * ext[idx]
			}
		}
		for i, c := range seasonalARCoeffs {
			if idx := t - (i+1)*m.s; idx >= 0 {
				pred += c * ext[idx]
			}
		}
		for j, c := range maCoeffs {
			if idx := t - 1 - j; idx >= 0 {
				pred += c * shocks[idx]
			}
		}
		for j, c := range seasonalMACoeffs {
			if idx := t - (j+1)*m.s; idx >= 0 {
				pred += c * shocks[idx]
			}
		}
		ext[t] = pred
	}

	forecast := make([]float64, periods)
	for i := range forecast {
		forecast[i] = ext[n+i] + mean
	}

	if m.D > 0 {
		nb := len(base)
		full := make([]float64, nb+periods)
		copy(full, base)
		for i := range periods {
			t := nb + i
			full[t] = forecast[i] + full[t-m.s]
		}
		forecast = full[nb:]
	}

	for k := m.d; k >= 1; k-- {
		prev := levels[k-1]
		last := prev[len(prev)-1]
		integrated := make([]float64, periods)
		for i, v := range forecast {
			last += v
			integrated[i] = last
		}
		forecast = integrated
	}

	if err := checkFinite(forecast); err != nil {
		return nil, fmt.Errorf("%s: %w", m.Name(), err)
	}

	return forecast, nil
}
