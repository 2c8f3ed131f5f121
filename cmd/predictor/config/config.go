// Package config provides configuration parsing and management for the predictor.
//
// It handles both command-line flags and environment variables, with flags taking
// precedence over environment variables. The Config struct contains all runtime
// configuration for the predictor including:
//   - HTTP listener, CORS and request limits
//   - Seasonal backend selection (sarima, prophet or none) and its settings
//   - Cache backend (memory or redis)
//   - Logging configuration (level, format)
//   - TLS configuration for the server and for the Prophet client
//
// Supported configuration sources (in order of precedence):
//  1. Command-line flags
//  2. Environment variables
//  3. Default values
package config

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/HatiCode/predictor/pkg/cache"
	"github.com/HatiCode/predictor/pkg/tls"
)

// Seasonal backends.
const (
	SeasonalSARIMA  = "sarima"
	SeasonalProphet = "prophet"
	SeasonalNone    = "none"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config holds all predictor configuration.
type Config struct {
	Listen          string
	LogFormat       string
	LogLevel        string
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
	MaxPeriods      int
	CORSOrigins     []string
	TLS             tls.Config

	Seasonal         string
	ProphetURL       string
	ProphetHealthURL string
	ProphetTimeout   time.Duration
	ProphetTLS       tls.Config
	SARIMA_P         int
	SARIMA_D         int
	SARIMA_Q         int
	SARIMA_SP        int
	SARIMA_SD        int
	SARIMA_SQ        int
	SARIMA_S         int

	Cache          string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisTTL       time.Duration
	RedisNamespace string
}

// ParseFlags parses command-line flags and environment variables into a Config.
// Environment variables are used as fallbacks when flags are not provided.
// Invalid configuration terminates the process.
func ParseFlags() *Config {
	cfg, err := parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func parse(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := &Config{}
	var corsOrigins string

	fs.StringVar(&cfg.Listen, "listen", getEnv("LISTEN", "0.0.0.0:5000"), "HTTP listen address")
	fs.StringVar(&cfg.LogFormat, "log-format", getEnv("LOG_FORMAT", "text"), "Log format: text or json")
	fs.StringVar(&cfg.LogLevel, "log-level", getEnv("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second), "Graceful shutdown timeout")
	fs.Int64Var(&cfg.MaxBodyBytes, "max-body-bytes", getEnvInt64("MAX_BODY_BYTES", 1<<20), "Maximum request body size in bytes")
	fs.IntVar(&cfg.MaxPeriods, "max-periods", getEnvInt("MAX_PERIODS", 3650), "Maximum forecast horizon per request")
	fs.StringVar(&corsOrigins, "cors-allowed-origins", getEnv("CORS_ALLOWED_ORIGINS", "*"), "Comma separated CORS origins, * allows any")

	fs.BoolVar(&cfg.TLS.Enabled, "tls-enabled", getEnvBool("TLS_ENABLED", false), "Enable TLS for HTTP server")
	fs.StringVar(&cfg.TLS.CertFile, "tls-cert-file", getEnv("TLS_CERT_FILE", ""), "TLS certificate file")
	fs.StringVar(&cfg.TLS.KeyFile, "tls-key-file", getEnv("TLS_KEY_FILE", ""), "TLS private key file")
	fs.StringVar(&cfg.TLS.CAFile, "tls-ca-file", getEnv("TLS_CA_FILE", ""), "TLS CA certificate file for client verification")

	fs.StringVar(&cfg.Seasonal, "seasonal", getEnv("SEASONAL", SeasonalSARIMA), "Seasonal backend: sarima, prophet, or none")
	fs.StringVar(&cfg.ProphetURL, "prophet-url", getEnv("PROPHET_URL", ""), "Prophet service predict URL (required when seasonal=prophet)")
	fs.StringVar(&cfg.ProphetHealthURL, "prophet-health-url", getEnv("PROPHET_HEALTH_URL", ""), "Prophet service health URL (default: root of prophet-url)")
	fs.DurationVar(&cfg.ProphetTimeout, "prophet-timeout", getEnvDuration("PROPHET_TIMEOUT", 30*time.Second), "Prophet request timeout")
	fs.BoolVar(&cfg.ProphetTLS.Enabled, "prophet-tls-enabled", getEnvBool("PROPHET_TLS_ENABLED", false), "Enable TLS settings for the Prophet client")
	fs.StringVar(&cfg.ProphetTLS.CertFile, "prophet-tls-cert-file", getEnv("PROPHET_TLS_CERT_FILE", ""), "Prophet client certificate file")
	fs.StringVar(&cfg.ProphetTLS.KeyFile, "prophet-tls-key-file", getEnv("PROPHET_TLS_KEY_FILE", ""), "Prophet client private key file")
	fs.StringVar(&cfg.ProphetTLS.CAFile, "prophet-tls-ca-file", getEnv("PROPHET_TLS_CA_FILE", ""), "CA certificate file for verifying the Prophet service")

	fs.IntVar(&cfg.SARIMA_P, "sarima-p", getEnvInt("SARIMA_P", 1), "SARIMA non-seasonal AR order (0=auto, default 1)")
	fs.IntVar(&cfg.SARIMA_D, "sarima-d", getEnvInt("SARIMA_D", 1), "SARIMA non-seasonal differencing order (0=auto, default 1)")
	fs.IntVar(&cfg.SARIMA_Q, "sarima-q", getEnvInt("SARIMA_Q", 1), "SARIMA non-seasonal MA order (0=auto, default 1)")
	fs.IntVar(&cfg.SARIMA_SP, "sarima-sp", getEnvInt("SARIMA_SP", 0), "SARIMA seasonal AR order")
	fs.IntVar(&cfg.SARIMA_SD, "sarima-sd", getEnvInt("SARIMA_SD", 0), "SARIMA seasonal differencing order")
	fs.IntVar(&cfg.SARIMA_SQ, "sarima-sq", getEnvInt("SARIMA_SQ", 0), "SARIMA seasonal MA order")
	fs.IntVar(&cfg.SARIMA_S, "sarima-s", getEnvInt("SARIMA_S", 7), "SARIMA seasonal period in days (7 for weekly)")

	fs.StringVar(&cfg.Cache, "cache", getEnv("CACHE", CacheMemory), "Cache backend: memory or redis")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", getEnv("REDIS_ADDR", "localhost:6379"), "Redis server address")
	fs.StringVar(&cfg.RedisPassword, "redis-password", getEnv("REDIS_PASSWORD", ""), "Redis password")
	fs.IntVar(&cfg.RedisDB, "redis-db", getEnvInt("REDIS_DB", 0), "Redis database number")
	fs.DurationVar(&cfg.RedisTTL, "redis-ttl", getEnvDuration("REDIS_TTL", 0), "Redis entry TTL (0 keeps entries forever)")
	fs.StringVar(&cfg.RedisNamespace, "redis-namespace", getEnv("REDIS_NAMESPACE", cache.DefaultNamespace), "Redis key prefix")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.CORSOrigins = splitList(corsOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	seasonalComponents := c.SARIMA_SP > 0 || c.SARIMA_SD > 0 || c.SARIMA_SQ > 0

	return validation.ValidateStruct(c,
		validation.Field(&c.Listen,
			validation.Required,
			validation.By(validateHostPort),
		),
		validation.Field(&c.LogFormat, validation.Required, validation.In("text", "json")),
		validation.Field(&c.LogLevel, validation.Required, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.ShutdownTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.MaxBodyBytes, validation.Required, validation.Min(int64(1))),
		validation.Field(&c.MaxPeriods, validation.Required, validation.Min(1)),
		validation.Field(&c.TLS, validation.By(func(value interface{}) error {
			return c.TLS.ValidateServer()
		})),

		validation.Field(&c.Seasonal,
			validation.Required,
			validation.In(SeasonalSARIMA, SeasonalProphet, SeasonalNone),
		),
		validation.Field(&c.ProphetURL,
			validation.When(c.Seasonal == SeasonalProphet, validation.Required),
			is.RequestURL,
		),
		validation.Field(&c.ProphetHealthURL, is.RequestURL),
		validation.Field(&c.ProphetTimeout,
			validation.When(c.Seasonal == SeasonalProphet, validation.Required, validation.Min(time.Millisecond)),
		),
		validation.Field(&c.ProphetTLS),
		validation.Field(&c.SARIMA_P, validation.Min(0)),
		validation.Field(&c.SARIMA_D, validation.Min(0), validation.Max(2)),
		validation.Field(&c.SARIMA_Q, validation.Min(0)),
		validation.Field(&c.SARIMA_SP, validation.Min(0)),
		validation.Field(&c.SARIMA_SD, validation.Min(0), validation.Max(1)),
		validation.Field(&c.SARIMA_SQ, validation.Min(0)),
		validation.Field(&c.SARIMA_S,
			validation.When(seasonalComponents, validation.Required, validation.Min(1)),
		),

		validation.Field(&c.Cache, validation.Required, validation.In(CacheMemory, CacheRedis)),
		validation.Field(&c.RedisAddr,
			validation.When(c.Cache == CacheRedis, validation.Required, validation.By(validateHostPort)),
		),
		validation.Field(&c.RedisDB, validation.Min(0)),
		validation.Field(&c.RedisTTL, validation.Min(time.Duration(0))),
	)
}

func validateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}

	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}

	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		var i int64
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}
