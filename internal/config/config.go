package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env      string
	HTTPPort string

	DatabaseDriver string
	DatabaseURL    string

	JWTIssuer       string
	JWTAudience     string
	JWTAccessSecret string
	JWTAccessTTL    time.Duration

	CORSAllowedOrigins []string

	BootstrapAdminEmail    string
	BootstrapAdminPassword string

	APIRateLimitPerMin    int
	RateLimitRedisEnabled bool
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	RedisPrefix           string

	ListCacheEnabled      bool
	ListCacheRedisEnabled bool
	ListCacheTTL          time.Duration

	PrometheusEnabled bool

	OTELServiceName           string
	OTELEnvironment           string
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELMetricsExportInterval time.Duration
	OTELTraceSamplingRatio    float64
	OTELMetricsEnabled        bool
	OTELTracingEnabled        bool
	OTELLogsEnabled           bool
	OTELLogLevel              string

	ReadinessProbeTimeout        time.Duration
	ServerStartGracePeriod       time.Duration
	ShutdownTimeout              time.Duration
	ShutdownHTTPDrainTimeout     time.Duration
	ShutdownObservabilityTimeout time.Duration
}

func Load() (*Config, error) {
	env := getEnv("APP_ENV", "development")
	cfg := &Config{
		Env:                    env,
		HTTPPort:               getEnv("HTTP_PORT", "8080"),
		DatabaseDriver:         strings.ToLower(getEnv("DATABASE_DRIVER", "postgres")),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		JWTIssuer:              getEnv("JWT_ISSUER", "gymchain-api"),
		JWTAudience:            getEnv("JWT_AUDIENCE", "gymchain-api-clients"),
		JWTAccessSecret:        os.Getenv("JWT_ACCESS_SECRET"),
		CORSAllowedOrigins:     splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		BootstrapAdminEmail:    strings.TrimSpace(strings.ToLower(os.Getenv("BOOTSTRAP_ADMIN_EMAIL"))),
		BootstrapAdminPassword: os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
		APIRateLimitPerMin:     getEnvInt("API_RATE_LIMIT_PER_MIN", 120),
		RateLimitRedisEnabled:  getEnvBool("RATE_LIMIT_REDIS_ENABLED", false),
		RedisAddr:              getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		RedisDB:                getEnvInt("REDIS_DB", 0),
		RedisPrefix:            getEnv("REDIS_PREFIX", "gymchain"),
		ListCacheEnabled:       getEnvBool("LIST_CACHE_ENABLED", isLocalLikeEnv(env)),
		ListCacheRedisEnabled:  getEnvBool("LIST_CACHE_REDIS_ENABLED", false),
		PrometheusEnabled:      getEnvBool("PROMETHEUS_ENABLED", true),

		OTELServiceName:          getEnv("OTEL_SERVICE_NAME", "gymchain-api"),
		OTELEnvironment:          getEnv("OTEL_ENVIRONMENT", env),
		OTELExporterOTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELExporterOTLPInsecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELTraceSamplingRatio:   getEnvFloat("OTEL_TRACE_SAMPLING_RATIO", 1.0),
		OTELMetricsEnabled:       getEnvBool("OTEL_METRICS_ENABLED", false),
		OTELTracingEnabled:       getEnvBool("OTEL_TRACING_ENABLED", false),
		OTELLogsEnabled:          getEnvBool("OTEL_LOGS_ENABLED", false),
		OTELLogLevel:             strings.ToLower(getEnv("OTEL_LOG_LEVEL", "info")),
	}

	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"JWT_ACCESS_TTL", "15m", &cfg.JWTAccessTTL},
		{"LIST_CACHE_TTL", "30s", &cfg.ListCacheTTL},
		{"OTEL_METRICS_EXPORT_INTERVAL", "10s", &cfg.OTELMetricsExportInterval},
		{"READINESS_PROBE_TIMEOUT", "1s", &cfg.ReadinessProbeTimeout},
		{"SERVER_START_GRACE_PERIOD", "0s", &cfg.ServerStartGracePeriod},
		{"SHUTDOWN_TIMEOUT", "20s", &cfg.ShutdownTimeout},
		{"SHUTDOWN_HTTP_DRAIN_TIMEOUT", "10s", &cfg.ShutdownHTTPDrainTimeout},
		{"SHUTDOWN_OBSERVABILITY_TIMEOUT", "8s", &cfg.ShutdownObservabilityTimeout},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(getEnv(d.key, d.def))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string
	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, "DATABASE_DRIVER must be one of postgres, sqlite")
	}
	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if len(c.JWTAccessSecret) < 32 {
		errs = append(errs, "JWT_ACCESS_SECRET must be at least 32 chars")
	}
	if c.JWTAccessTTL <= 0 || c.JWTAccessTTL > time.Hour {
		errs = append(errs, "JWT_ACCESS_TTL must be between 1s and 1h")
	}
	if c.APIRateLimitPerMin <= 0 {
		errs = append(errs, "API_RATE_LIMIT_PER_MIN must be > 0")
	}
	if c.UsesRedis() && strings.TrimSpace(c.RedisAddr) == "" {
		errs = append(errs, "REDIS_ADDR is required when RATE_LIMIT_REDIS_ENABLED or LIST_CACHE_REDIS_ENABLED is true")
	}
	if c.ListCacheEnabled && c.ListCacheTTL <= 0 {
		errs = append(errs, "LIST_CACHE_TTL must be > 0 when LIST_CACHE_ENABLED=true")
	}
	if c.BootstrapAdminEmail != "" && len(c.BootstrapAdminPassword) < 8 {
		errs = append(errs, "BOOTSTRAP_ADMIN_PASSWORD must be at least 8 chars when BOOTSTRAP_ADMIN_EMAIL is set")
	}
	if (c.OTELMetricsEnabled || c.OTELTracingEnabled || c.OTELLogsEnabled) && c.OTELExporterOTLPEndpoint == "" {
		errs = append(errs, "OTEL_EXPORTER_OTLP_ENDPOINT is required when OTel is enabled")
	}
	if c.OTELTraceSamplingRatio < 0 || c.OTELTraceSamplingRatio > 1 {
		errs = append(errs, "OTEL_TRACE_SAMPLING_RATIO must be between 0 and 1")
	}
	if c.OTELMetricsExportInterval <= 0 {
		errs = append(errs, "OTEL_METRICS_EXPORT_INTERVAL must be > 0")
	}
	if !isValidLogLevel(c.OTELLogLevel) {
		errs = append(errs, "OTEL_LOG_LEVEL must be one of debug, info, warn, error")
	}
	if c.ReadinessProbeTimeout <= 0 {
		errs = append(errs, "READINESS_PROBE_TIMEOUT must be > 0")
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, "SHUTDOWN_TIMEOUT must be > 0")
	}
	if c.ShutdownHTTPDrainTimeout > c.ShutdownTimeout {
		errs = append(errs, "SHUTDOWN_HTTP_DRAIN_TIMEOUT must be <= SHUTDOWN_TIMEOUT")
	}
	if !isLocalLikeEnv(c.Env) {
		if c.DatabaseDriver == "sqlite" {
			errs = append(errs, "DATABASE_DRIVER=sqlite is only allowed in local environments")
		}
		if containsWildcard(c.CORSAllowedOrigins) {
			errs = append(errs, "CORS_ALLOWED_ORIGINS must not contain * outside local environments")
		}
		if c.ListCacheEnabled && !c.ListCacheRedisEnabled {
			errs = append(errs, "LIST_CACHE_REDIS_ENABLED must be true when LIST_CACHE_ENABLED=true outside local environments")
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) IsLocal() bool { return isLocalLikeEnv(c.Env) }

// UsesRedis reports whether any component needs the shared Redis client.
func (c *Config) UsesRedis() bool {
	return c.RateLimitRedisEnabled || (c.ListCacheEnabled && c.ListCacheRedisEnabled)
}

func isLocalLikeEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "development", "dev", "local", "test":
		return true
	default:
		return false
	}
}

func isValidLogLevel(v string) bool {
	switch strings.ToLower(v) {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trim := strings.TrimSpace(p)
		if trim != "" {
			out = append(out, trim)
		}
	}
	return out
}
