// Package config loads rental service settings from environment variables,
// applies defaults, and validates the result. It covers the HTTP server,
// logging, storage, rate limiting, payments, and observability.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Gateway modes.
const (
	GatewayToss = "toss"
	GatewayFake = "fake"
)

// EnvProduction is the APP_ENV value of live deployments.
const EnvProduction = "production"

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// GatewayConfig selects and configures the external payment gateway.
type GatewayConfig struct {
	Mode      string        // GATEWAY_MODE: toss|fake
	BaseURL   string        // TOSS_BASE_URL
	SecretKey string        // TOSS_SECRET_KEY, required when Mode is toss
	Timeout   time.Duration // GATEWAY_TIMEOUT
}

// PaymentConfig holds payment workflow rules.
type PaymentConfig struct {
	// RequireAccepted rejects prepare unless the transaction is ACCEPTED.
	RequireAccepted     bool   // PAYMENT_REQUIRE_ACCEPTED
	DefaultCancelReason string // PAYMENT_DEFAULT_CANCEL_REASON
	Gateway             GatewayConfig
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
	Environment string  // APP_ENV, reported as deployment.environment
}

// Config holds all configuration values for the application.
type Config struct {
	AppEnv string // APP_ENV

	// Server
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MaxHeaderBytes    int
	GinMode           string // debug|release|test
	GzipEnabled       bool

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool
	SwaggerEnabled bool
	APIBasePath    string

	// Storage
	DBPath        string        // SQLite path
	DBBusyTimeout time.Duration // how long a writer waits on the SQLite lock

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency-Key retention
	IdempotencyTTL time.Duration

	Payment PaymentConfig

	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	appEnv := strings.ToLower(strings.TrimSpace(getenv("APP_ENV", "development")))
	cfg := Config{
		AppEnv: appEnv,

		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   getdur("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),
		GzipEnabled:       getbool("GZIP_ENABLED", true),

		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		DBPath:        getenv("DB_PATH", "rental.db"),
		DBBusyTimeout: getdur("DB_BUSY_TIMEOUT", 30*time.Second),

		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		Payment: PaymentConfig{
			RequireAccepted:     getbool("PAYMENT_REQUIRE_ACCEPTED", true),
			DefaultCancelReason: getenv("PAYMENT_DEFAULT_CANCEL_REASON", "user_requested"),
			Gateway: GatewayConfig{
				Mode:      strings.ToLower(strings.TrimSpace(getenv("GATEWAY_MODE", GatewayFake))),
				BaseURL:   strings.TrimRight(getenv("TOSS_BASE_URL", "https://api.tosspayments.com"), "/"),
				SecretKey: strings.TrimSpace(getenv("TOSS_SECRET_KEY", "")),
				Timeout:   getdur("GATEWAY_TIMEOUT", 10*time.Second),
			},
		},

		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-rental-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
			Environment: appEnv,
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (cfg Config) validate() error {
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 || cfg.ShutdownTimeout <= 0 {
		return errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return errors.New("DB_PATH must not be empty")
	}
	if cfg.DBBusyTimeout <= 0 {
		return errors.New("DB_BUSY_TIMEOUT must be > 0")
	}
	if cfg.RateRPS < 0 {
		return errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if strings.TrimSpace(cfg.Payment.DefaultCancelReason) == "" {
		return errors.New("PAYMENT_DEFAULT_CANCEL_REASON must not be empty")
	}
	gw := cfg.Payment.Gateway
	switch gw.Mode {
	case GatewayFake:
		if cfg.AppEnv == EnvProduction {
			return errors.New("GATEWAY_MODE=fake is not allowed when APP_ENV=production")
		}
	case GatewayToss:
		if gw.SecretKey == "" {
			return errors.New("TOSS_SECRET_KEY is required when GATEWAY_MODE=toss")
		}
		if !strings.HasPrefix(gw.BaseURL, "http://") && !strings.HasPrefix(gw.BaseURL, "https://") {
			return fmt.Errorf("TOSS_BASE_URL must be an http(s) URL, got %q", gw.BaseURL)
		}
	default:
		return fmt.Errorf("GATEWAY_MODE must be one of: %s, %s", GatewayToss, GatewayFake)
	}
	if gw.Timeout <= 0 {
		return errors.New("GATEWAY_TIMEOUT must be > 0")
	}
	// A settling payment keeps its writers waiting at most one gateway round
	// trip; leave them room before the busy timeout fires.
	if gw.Timeout > cfg.DBBusyTimeout/2 {
		return fmt.Errorf("GATEWAY_TIMEOUT (%s) must be at most half of DB_BUSY_TIMEOUT (%s)", gw.Timeout, cfg.DBBusyTimeout)
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	return nil
}

// ---- env helpers ----

func lookup(k string) (string, bool) {
	v, ok := os.LookupEnv(k)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func getenv(k, def string) string {
	if v, ok := lookup(k); ok {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := lookup(k); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := lookup(k); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	v, ok := lookup(k)
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := lookup(k); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures a leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	return "/" + p
}
