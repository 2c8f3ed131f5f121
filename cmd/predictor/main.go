// Command predictor serves time-series forecasts over HTTP.
//
// Given a historical series and a horizon, the predictor returns future
// values from a seasonal model when one is available and the series has at
// least three points, and from an ordinary least-squares line otherwise.
// Seasonal results are memoized.
//
// HTTP API (default 0.0.0.0:5000):
//   - GET /         - Service status and seasonal model availability
//   - POST /predict - {"historical":[...], "periods":N} → {"predictions":[...], "model":"seasonal|linear"}
//   - GET /healthz  - Health check endpoint
//   - GET /readyz   - Readiness check endpoint
//   - GET /metrics  - Prometheus metrics endpoint
//
// Usage:
//
//	predictor -seasonal=sarima -listen=0.0.0.0:5000
//	predictor -seasonal=prophet -prophet-url=http://prophet:8000/predict
//
// Environment variables:
//
//	LISTEN               - HTTP listen address (default: 0.0.0.0:5000)
//	SEASONAL             - Seasonal backend: sarima, prophet, none (default: sarima)
//	PROPHET_URL          - Prophet service predict URL
//	PROPHET_HEALTH_URL   - Prophet service health URL (default: root of PROPHET_URL)
//	PROPHET_TIMEOUT      - Prophet request timeout (default: 30s)
//	SARIMA_P/D/Q         - SARIMA non-seasonal orders (default: 1/1/1)
//	SARIMA_SP/SD/SQ/S    - SARIMA seasonal orders and period (default: 0/0/0/7)
//	CACHE                - Cache backend: memory, redis (default: memory)
//	REDIS_ADDR           - Redis address (default: localhost:6379)
//	REDIS_TTL            - Redis entry TTL, 0 keeps entries (default: 0)
//	MAX_PERIODS          - Maximum horizon per request (default: 3650)
//	MAX_BODY_BYTES       - Maximum request body size (default: 1048576)
//	CORS_ALLOWED_ORIGINS - Comma separated origins, * for any (default: *)
//	LOG_LEVEL            - Logging level: debug, info, warn, error (default: info)
//	LOG_FORMAT           - Logging format: text, json (default: text)
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/HatiCode/predictor/cmd/predictor/config"
	"github.com/HatiCode/predictor/cmd/predictor/logger"
	"github.com/HatiCode/predictor/cmd/predictor/metrics"
	"github.com/HatiCode/predictor/cmd/predictor/router"
	"github.com/HatiCode/predictor/cmd/predictor/store"
	"github.com/HatiCode/predictor/cmd/predictor/strategies"
	"github.com/HatiCode/predictor/pkg/forecast"
	"github.com/HatiCode/predictor/pkg/httpx"
	"github.com/HatiCode/predictor/pkg/models"
	predictortls "github.com/HatiCode/predictor/pkg/tls"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.ParseFlags()

	logger := logger.New(cfg)
	slog.SetDefault(logger)

	logger.Info("starting predictor",
		"version", version,
		"listen", cfg.Listen,
		"seasonal", cfg.Seasonal,
		"cache", cfg.Cache,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New(nil)

	seasonal, capability, err := strategies.Resolve(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build seasonal model", "error", err)
		return 1
	}
	m.SetSeasonalAvailable(capability.Available)
	if !capability.Available {
		logger.Warn("seasonal model disabled, all requests use the linear model",
			"backend", capability.Backend,
			"reason", capability.Reason,
		)
	}

	c, err := store.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize cache", "error", err)
		return 1
	}
	if closer, ok := c.(interface{ Close() error }); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				logger.Error("failed to close cache", "error", err)
			}
		}()
	}

	opts := []forecast.Option{
		forecast.WithCache(c),
		forecast.WithLogger(logger),
		forecast.WithRecorder(m),
	}
	if seasonal != nil {
		opts = append(opts, forecast.WithSeasonal(seasonal))
	}
	svc := forecast.NewService(models.NewLinearModel(), opts...)

	handler := router.SetupRoutes(svc, capability, router.Options{
		MaxPeriods:   cfg.MaxPeriods,
		MaxBodyBytes: cfg.MaxBodyBytes,
		CORSOrigins:  cfg.CORSOrigins,
		Metrics:      m,
		Ready:        store.ReadyCheck(c),
	}, logger)
	httpServer := httpx.NewServer(cfg.Listen, handler, logger)

	serverErr := make(chan error, 1)
	if cfg.TLS.Enabled {
		tlsConfig, err := predictortls.NewServerConfig(cfg.TLS)
		if err != nil {
			logger.Error("failed to build TLS config", "error", err)
			return 1
		}
		httpServer.SetTLSConfig(tlsConfig)
		logger.Info("TLS enabled", "addr", httpServer.Addr(), "client_auth", cfg.TLS.CAFile != "")
		go func() {
			serverErr <- httpServer.StartTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		}()
	} else {
		go func() {
			serverErr <- httpServer.Start()
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	exitCode := 0
	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-serverErr:
		if err != nil {
			logger.Error("server failed", "error", err)
			exitCode = 1
		}
	}

	logger.Info("shutting down")
	cancel()

	if err := httpServer.Stop(cfg.ShutdownTimeout); err != nil {
		logger.Error("server shutdown failed", "error", err)
		exitCode = 1
	}

	logger.Info("shutdown complete")
	return exitCode
}
