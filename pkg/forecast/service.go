// Package forecast implements the prediction request handler.
//
// A Service receives a validated Request, picks a strategy and returns a
// Result:
//
//	seasonal available && len(history) >= 3  →  seasonal (memoized)
//	otherwise                                 →  linear   (recomputed)
//
// The seasonal model and the cache are injected at construction; nothing in
// this package holds process-wide state.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/HatiCode/predictor/pkg/cache"
	"github.com/HatiCode/predictor/pkg/models"
)

// Kind is the strategy reported to callers.
type Kind string

const (
	KindSeasonal Kind = "seasonal"
	KindLinear   Kind = "linear"
)

// Result is the outcome of a successful prediction.
type Result struct {
	Predictions []float64 `json:"predictions"`
	Model       Kind      `json:"model"`
}

// Recorder receives instrumentation events. All methods must be safe for
// concurrent use.
type Recorder interface {
	RecordPredict(model string, seconds float64)
	RecordCacheLookup(hit bool)
	RecordError(component, reason string)
}

// Service selects a strategy per request and memoizes seasonal results.
type Service struct {
	seasonal models.Model
	linear   models.Model
	cache    cache.Cache
	group    singleflight.Group
	logger   *slog.Logger
	metrics  Recorder
	now      func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithSeasonal sets the seasonal model. Pass it only when the model is
// available; a nil model disables the seasonal path.
func WithSeasonal(m models.Model) Option {
	return func(s *Service) { s.seasonal = m }
}

// WithCache sets the cache used for seasonal results.
func WithCache(c cache.Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithRecorder sets the instrumentation sink.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.metrics = r }
}

// NewService creates a Service around the linear fallback model.
// Without WithCache an in-memory cache owned by the Service is used.
func NewService(linear models.Model, opts ...Option) *Service {
	s := &Service{
		linear: linear,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.cache == nil {
		s.cache = cache.NewMemoryCache()
	}
	return s
}

// HasSeasonal reports whether the seasonal path is enabled.
func (s *Service) HasSeasonal() bool {
	return s.seasonal != nil
}

// Select returns the strategy the policy picks for a history of n points.
func (s *Service) Select(n int) Kind {
	if s.seasonal != nil && n >= models.MinSeasonalPoints {
		return KindSeasonal
	}
	return KindLinear
}

// Predict runs the request through the selected strategy.
//
// Errors from the models are returned wrapped; they are internal failures,
// never *InputError.
func (s *Service) Predict(ctx context.Context, req Request) (Result, error) {
	if len(req.History) == 0 {
		return Result{}, inputErrorf("historical", "provide `historical` as list of numbers")
	}
	if req.Periods < 0 {
		return Result{}, inputErrorf("periods", "`periods` must be >= 0, got %d", req.Periods)
	}

	kind := s.Select(len(req.History))

	if req.Periods == 0 {
		return Result{Predictions: []float64{}, Model: kind}, nil
	}

	if kind == KindSeasonal {
		return s.predictSeasonal(ctx, req)
	}

	preds, err := s.run(ctx, s.linear, req)
	if err != nil {
		return Result{}, err
	}
	return Result{Predictions: preds, Model: KindLinear}, nil
}

// predictSeasonal shares one fit between concurrent callers of the same key.
// The fit runs detached from any single caller's cancellation; each caller
// stops waiting when its own context ends.
func (s *Service) predictSeasonal(ctx context.Context, req Request) (Result, error) {
	key := cache.Key{Strategy: string(KindSeasonal), Periods: req.Periods, History: req.History}
	fitCtx := context.WithoutCancel(ctx)

	ch := s.group.DoChan(key.String(), func() (any, error) {
		if entry, found := s.lookup(fitCtx, key, req.Periods); found {
			return entry.Predictions, nil
		}

		preds, err := s.run(fitCtx, s.seasonal, req)
		if err != nil {
			return nil, err
		}

		s.store(fitCtx, key, cache.Entry{
			Model:       string(KindSeasonal),
			Predictions: preds,
			CreatedAt:   s.now(),
		})
		return preds, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return Result{}, res.Err
	}

	if res.Shared {
		s.logger.Debug("shared in-flight seasonal prediction", "points", len(req.History), "periods", req.Periods)
	}

	preds := res.Val.([]float64)
	out := make([]float64, len(preds))
	copy(out, preds)

	return Result{Predictions: out, Model: KindSeasonal}, nil
}

func (s *Service) run(ctx context.Context, m models.Model, req Request) ([]float64, error) {
	start := time.Now()

	preds, err := m.Predict(ctx, req.History, req.Periods)
	if err != nil {
		reason := "predict_failed"
		if errors.Is(err, models.ErrInsufficientHistory) {
			reason = "insufficient_history"
		}
		s.recordError("model", reason)
		s.logger.Error("prediction failed",
			"model", m.Name(),
			"points", len(req.History),
			"periods", req.Periods,
			"error", err,
		)
		return nil, fmt.Errorf("%s: %w", m.Name(), err)
	}

	if len(preds) != req.Periods {
		s.recordError("model", "length_mismatch")
		return nil, fmt.Errorf("%s: expected %d predictions, got %d", m.Name(), req.Periods, len(preds))
	}

	duration := time.Since(start)
	if s.metrics != nil {
		s.metrics.RecordPredict(m.Name(), duration.Seconds())
	}

	s.logger.Debug("predicted",
		"model", m.Name(),
		"points", len(req.History),
		"periods", req.Periods,
		"duration_ms", duration.Milliseconds(),
	)

	return preds, nil
}

// lookup treats cache failures and entries of the wrong length as misses.
func (s *Service) lookup(ctx context.Context, key cache.Key, periods int) (cache.Entry, bool) {
	entry, found, err := s.cache.Get(ctx, key)
	if err != nil {
		s.recordError("cache", "get_failed")
		s.logger.Warn("cache lookup failed, recomputing", "error", err)
		return cache.Entry{}, false
	}
	if found && len(entry.Predictions) != periods {
		s.recordError("cache", "length_mismatch")
		s.logger.Warn("cached entry has wrong length, recomputing",
			"want", periods,
			"got", len(entry.Predictions),
		)
		found = false
	}
	if s.metrics != nil {
		s.metrics.RecordCacheLookup(found)
	}
	return entry, found
}

// store logs and drops cache write failures.
func (s *Service) store(ctx context.Context, key cache.Key, entry cache.Entry) {
	if err := s.cache.Put(ctx, key, entry); err != nil {
		s.recordError("cache", "put_failed")
		s.logger.Warn("cache write failed", "error", err)
	}
}

func (s *Service) recordError(component, reason string) {
	if s.metrics != nil {
		s.metrics.RecordError(component, reason)
	}
}
