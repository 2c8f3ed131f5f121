// Package models provides the forecasting strategies used by the predictor.
//
// Every strategy implements Model: it receives a history of observations,
// indexed by position, and returns exactly periods values that follow the
// last observation. Two families exist:
//   - LinearModel: ordinary least squares over the integer time index
//   - seasonal models (SARIMAModel in-process, ProphetModel remote) which
//     place the history on a daily time axis and need at least
//     MinSeasonalPoints observations
package models

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// MinSeasonalPoints is the smallest history a seasonal model accepts.
const MinSeasonalPoints = 3

var (
	// ErrEmptyHistory is returned when a model is given no observations.
	ErrEmptyHistory = errors.New("history cannot be empty")

	// ErrInsufficientHistory is returned by seasonal models when the history
	// is shorter than MinSeasonalPoints (or the model's own minimum).
	ErrInsufficientHistory = errors.New("insufficient history")
)

// Model is a forecasting strategy.
type Model interface {
	// Name identifies the model in logs and metrics.
	Name() string

	// Predict returns periods values following history.
	// Implementations must not modify history.
	Predict(ctx context.Context, history []float64, periods int) ([]float64, error)
}

// Prober is implemented by models whose availability depends on something
// outside the process, such as a remote service.
type Prober interface {
	Probe(ctx context.Context) error
}

// Capability describes whether the seasonal model can be used.
// It is resolved once at startup.
type Capability struct {
	Available bool   `json:"available"`
	Backend   string `json:"backend"`
	Reason    string `json:"reason,omitempty"`
}

// DailyAxis returns n consecutive days ending at now's date followed by
// periods future days. All timestamps are midnight UTC.
func DailyAxis(n, periods int, now time.Time) (history, future []time.Time) {
	y, m, d := now.UTC().Date()
	end := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	history = make([]time.Time, n)
	for i := range n {
		history[i] = end.AddDate(0, 0, i-(n-1))
	}

	future = make([]time.Time, periods)
	for i := range periods {
		future[i] = end.AddDate(0, 0, i+1)
	}

	return history, future
}

func insufficient(need, got int) error {
	return fmt.Errorf("%w: need at least %d points for seasonal prediction, got %d",
		ErrInsufficientHistory, need, got)
}

func checkFinite(values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite prediction at step %d", i)
		}
	}
	return nil
}
