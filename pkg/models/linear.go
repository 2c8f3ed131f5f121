package models

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// LinearModel fits y = alpha + beta*x over x = 0..n-1 and extrapolates to
// x = n..n+periods-1.
//
// A single observation yields a flat line through that point. The model is
// deterministic and keeps no state between calls.
type LinearModel struct{}

// NewLinearModel creates a linear fallback model.
func NewLinearModel() *LinearModel {
	return &LinearModel{}
}

// Name returns the model identifier.
func (m *LinearModel) Name() string {
	return "linear"
}

// Predict extrapolates the least-squares line through history.
func (m *LinearModel) Predict(ctx context.Context, history []float64, periods int) ([]float64, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if len(history) == 0 {
		return nil, ErrEmptyHistory
	}
	if periods < 0 {
		return nil, fmt.Errorf("periods must be >= 0, got %d", periods)
	}

	n := len(history)
	alpha, beta := history[0], 0.0

	if n > 1 {
		xs := make([]float64, n)
		for i := range xs {
			xs[i] = float64(i)
		}
		alpha, beta = stat.LinearRegression(xs, history, nil, false)
	}

	predictions := make([]float64, periods)
	for i := range predictions {
		predictions[i] = alpha + beta*float64(n+i)
	}

	if err := checkFinite(predictions); err != nil {
		return nil, fmt.Errorf("linear fit: %w", err)
	}

	return predictions, nil
}
