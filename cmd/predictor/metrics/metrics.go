// Package metrics provides Prometheus metrics instrumentation for the predictor.
//
// Metrics exposed:
//   - predictor_model_predict_seconds: Histogram of model fit+forecast duration by model
//   - predictor_cache_lookups_total: Counter of seasonal cache lookups by result (hit, miss)
//   - predictor_requests_total: Counter of /predict responses by model and status
//   - predictor_errors_total: Counter of errors by component and reason
//   - predictor_seasonal_available: Gauge, 1 when the seasonal model is in use
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the predictor.
type Metrics struct {
	ModelPredictSeconds *prometheus.HistogramVec
	CacheLookupsTotal   *prometheus.CounterVec
	RequestsTotal       *prometheus.CounterVec
	ErrorsTotal         *prometheus.CounterVec
	SeasonalAvailable   prometheus.Gauge
}

// New creates the metrics and registers them with reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		ModelPredictSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "predictor_model_predict_seconds",
			Help:    "Time spent fitting a model and forecasting",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5, 15, 60},
		}, []string{"model"}),

		CacheLookupsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "predictor_cache_lookups_total",
			Help: "Seasonal result cache lookups",
		}, []string{"result"}),

		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "predictor_requests_total",
			Help: "Prediction requests by selected model and HTTP status",
		}, []string{"model", "status"}),

		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "predictor_errors_total",
			Help: "Total errors by component and reason",
		}, []string{"component", "reason"}),

		SeasonalAvailable: factory.NewGauge(prometheus.GaugeOpts{
			Name: "predictor_seasonal_available",
			Help: "1 if the seasonal model is available, 0 otherwise",
		}),
	}
}

// RecordPredict records the duration of one model run.
func (m *Metrics) RecordPredict(model string, seconds float64) {
	if m == nil {
		return
	}
	m.ModelPredictSeconds.WithLabelValues(model).Observe(seconds)
}

// RecordCacheLookup counts a seasonal cache hit or miss.
func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordError increments the error counter.
func (m *Metrics) RecordError(component, reason string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(component, reason).Inc()
}

// RecordRequest counts a /predict response. model is empty when the request
// failed before a strategy was chosen.
func (m *Metrics) RecordRequest(model string, status int) {
	if m == nil {
		return
	}
	if model == "" {
		model = "none"
	}
	m.RequestsTotal.WithLabelValues(model, strconv.Itoa(status)).Inc()
}

// SetSeasonalAvailable sets the seasonal availability gauge.
func (m *Metrics) SetSeasonalAvailable(available bool) {
	if m == nil {
		return
	}
	if available {
		m.SeasonalAvailable.Set(1)
	} else {
		m.SeasonalAvailable.Set(0)
	}
}
