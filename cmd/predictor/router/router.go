// Package router configures HTTP routes for the predictor's HTTP API.
//
// Routes configured:
//   - GET /         - Service status and seasonal model availability
//   - POST /predict - Forecast future values from a historical series
//   - GET /healthz  - Liveness check (returns 200 OK)
//   - GET /readyz   - Readiness check (pings the cache backend)
//   - GET /metrics  - Prometheus metrics endpoint
//
// Every route is wrapped with panic recovery, request logging, CORS and a
// request body limit.
package router

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/HatiCode/predictor/cmd/predictor/metrics"
	"github.com/HatiCode/predictor/pkg/forecast"
	"github.com/HatiCode/predictor/pkg/httpx"
	"github.com/HatiCode/predictor/pkg/models"
)

// Options holds the HTTP-facing settings.
type Options struct {
	MaxPeriods   int
	MaxBodyBytes int64
	CORSOrigins  []string

	// Metrics may be nil.
	Metrics *metrics.Metrics
	// Gatherer backs /metrics; nil uses the default registry.
	Gatherer prometheus.Gatherer
	// Ready backs /readyz; nil is always ready.
	Ready func(ctx context.Context) error
}

// StatusResponse is the body of GET /.
type StatusResponse struct {
	OK               bool   `json:"ok"`
	HasSeasonalModel bool   `json:"has_seasonal_model"`
	SeasonalBackend  string `json:"seasonal_backend"`
}

// SetupRoutes configures HTTP endpoints for the predictor.
func SetupRoutes(svc *forecast.Service, capability models.Capability, opts Options, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/{$}", handleStatus(capability))
	mux.HandleFunc("/predict", handlePredict(svc, opts, logger))

	mux.Handle("/healthz", httpx.HealthHandler())
	mux.Handle("/readyz", httpx.HealthHandlerWithCheck(readyCheck(opts.Ready)))

	if opts.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	} else {
		mux.Handle("/metrics", promhttp.Handler())
	}

	return httpx.Chain(mux,
		httpx.RecoveryMiddleware(logger),
		httpx.LoggingMiddleware(logger),
		httpx.CORSMiddleware(opts.CORSOrigins),
		httpx.MaxBodyMiddleware(opts.MaxBodyBytes),
	)
}

func readyCheck(ready func(ctx context.Context) error) func() error {
	return func() error {
		if ready == nil {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return ready(ctx)
	}
}

// handleStatus returns a handler for GET /.
func handleStatus(capability models.Capability) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			httpx.WriteErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		resp := StatusResponse{
			OK:               true,
			HasSeasonalModel: capability.Available,
			SeasonalBackend:  capability.Backend,
		}
		if err := httpx.WriteJSON(w, http.StatusOK, resp); err != nil {
			slog.Error("failed to write status response", "error", err)
		}
	}
}

// handlePredict returns a handler for POST /predict.
func handlePredict(svc *forecast.Service, opts Options, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			httpx.WriteErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				opts.Metrics.RecordRequest("", http.StatusRequestEntityTooLarge)
				httpx.WriteErrorMessage(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			opts.Metrics.RecordRequest("", http.StatusBadRequest)
			httpx.WriteErrorMessage(w, http.StatusBadRequest, "failed to read request body")
			return
		}

		req, err := forecast.ParseRequest(body, opts.MaxPeriods)
		if err != nil {
			writeInputError(w, err, "", opts.Metrics, logger)
			return
		}

		kind := string(svc.Select(len(req.History)))

		result, err := svc.Predict(r.Context(), req)
		if err != nil {
			if errors.Is(err, forecast.ErrInvalidInput) {
				writeInputError(w, err, kind, opts.Metrics, logger)
				return
			}

			logger.Error("prediction failed",
				"model", kind,
				"points", len(req.History),
				"periods", req.Periods,
				"error", err,
			)
			opts.Metrics.RecordRequest(kind, http.StatusInternalServerError)
			httpx.WriteError(w, http.StatusInternalServerError, err)
			return
		}

		opts.Metrics.RecordRequest(string(result.Model), http.StatusOK)
		if err := httpx.WriteJSON(w, http.StatusOK, result); err != nil {
			logger.Error("failed to write prediction", "error", err)
		}
	}
}

func writeInputError(w http.ResponseWriter, err error, kind string, m *metrics.Metrics, logger *slog.Logger) {
	var inputErr *forecast.InputError
	if errors.As(err, &inputErr) {
		logger.Debug("rejected prediction request", "field", inputErr.Field, "error", inputErr.Msg)
	}
	m.RecordRequest(kind, http.StatusBadRequest)
	httpx.WriteError(w, http.StatusBadRequest, err)
}
