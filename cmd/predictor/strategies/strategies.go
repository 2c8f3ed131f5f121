// Package strategies builds the seasonal model from configuration and
// decides, once at startup, whether it can be used.
package strategies

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/HatiCode/predictor/cmd/predictor/config"
	"github.com/HatiCode/predictor/pkg/httpx"
	"github.com/HatiCode/predictor/pkg/models"
)

// probeTimeout bounds the startup availability check.
const probeTimeout = 5 * time.Second

// NewSeasonal creates the configured seasonal model, or nil for
// SEASONAL=none.
func NewSeasonal(cfg *config.Config, logger *slog.Logger) (models.Model, error) {
	switch cfg.Seasonal {
	case config.SeasonalSARIMA:
		logger.Info("initializing SARIMA model",
			"p", cfg.SARIMA_P,
			"d", cfg.SARIMA_D,
			"q", cfg.SARIMA_Q,
			"P", cfg.SARIMA_SP,
			"D", cfg.SARIMA_SD,
			"Q", cfg.SARIMA_SQ,
			"s", cfg.SARIMA_S,
		)
		return models.NewSARIMAModel(
			cfg.SARIMA_P, cfg.SARIMA_D, cfg.SARIMA_Q,
			cfg.SARIMA_SP, cfg.SARIMA_SD, cfg.SARIMA_SQ, cfg.SARIMA_S,
		), nil

	case config.SeasonalProphet:
		client, err := httpx.NewClient(cfg.ProphetTLS, cfg.ProphetTimeout)
		if err != nil {
			return nil, fmt.Errorf("prophet client: %w", err)
		}
		logger.Info("initializing Prophet model",
			"url", cfg.ProphetURL,
			"timeout", cfg.ProphetTimeout,
			"tls", cfg.ProphetTLS.Enabled,
		)
		return models.NewProphetModel(cfg.ProphetURL, cfg.ProphetHealthURL, client), nil

	case config.SeasonalNone:
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown seasonal backend %q", cfg.Seasonal)
	}
}

// Resolve builds the seasonal model and probes it. The returned model is nil
// unless the capability is available. An error is returned only for
// configuration problems; an unreachable backend is reported through the
// capability.
func Resolve(ctx context.Context, cfg *config.Config, logger *slog.Logger) (models.Model, models.Capability, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Seasonal == config.SeasonalNone {
		return nil, models.Capability{Backend: config.SeasonalNone, Reason: "disabled by configuration"}, nil
	}

	model, err := NewSeasonal(cfg, logger)
	if err != nil {
		return nil, models.Capability{}, err
	}

	capability := models.Capability{Available: true, Backend: cfg.Seasonal}

	if prober, ok := model.(models.Prober); ok {
		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		defer cancel()

		if err := prober.Probe(probeCtx); err != nil {
			logger.Warn("seasonal model unavailable, falling back to linear",
				"backend", cfg.Seasonal,
				"error", err,
			)
			return nil, models.Capability{Backend: cfg.Seasonal, Reason: err.Error()}, nil
		}
	}

	logger.Info("seasonal model available", "backend", cfg.Seasonal, "model", model.Name())
	return model, capability, nil
}
