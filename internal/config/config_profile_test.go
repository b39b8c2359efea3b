package config

import (
	"strings"
	"testing"
	"time"
)

func validConfigForTest(env string) *Config {
	return &Config{
		Env:                       env,
		DatabaseDriver:            "postgres",
		DatabaseURL:               "postgres://x",
		JWTAccessSecret:           "abcdefghijklmnopqrstuvwxyz123456",
		JWTAccessTTL:              15 * time.Minute,
		CORSAllowedOrigins:        []string{"http://localhost:3000"},
		APIRateLimitPerMin:        120,
		ListCacheEnabled:          true,
		ListCacheTTL:              30 * time.Second,
		OTELTraceSamplingRatio:    1.0,
		OTELMetricsExportInterval: 10 * time.Second,
		OTELLogLevel:              "info",
		ReadinessProbeTimeout:     time.Second,
		ShutdownTimeout:           20 * time.Second,
		ShutdownHTTPDrainTimeout:  10 * time.Second,
	}
}

func TestValidateProdProfileStrictRules(t *testing.T) {
	cfg := validConfigForTest("production")
	cfg.DatabaseDriver = "sqlite"
	cfg.CORSAllowedOrigins = []string{"*"}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected strict prod validation errors")
	}
	if !strings.Contains(err.Error(), "DATABASE_DRIVER=sqlite") || !strings.Contains(err.Error(), "CORS_ALLOWED_ORIGINS") {
		t.Fatalf("expected sqlite and cors errors, got %v", err)
	}
}

func TestValidateDevelopmentProfileAllowsRelaxedSettings(t *testing.T) {
	cfg := validConfigForTest("development")
	cfg.DatabaseDriver = "sqlite"
	cfg.DatabaseURL = "file:gymchain.db"
	cfg.CORSAllowedOrigins = []string{"*"}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected relaxed dev validation to pass: %v", err)
	}
}

func TestValidateAggregatesErrors(t *testing.T) {
	cfg := validConfigForTest("development")
	cfg.DatabaseURL = ""
	cfg.JWTAccessSecret = "short"
	cfg.BootstrapAdminEmail = "admin@gymchain.local"
	cfg.BootstrapAdminPassword = "x"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"DATABASE_URL", "JWT_ACCESS_SECRET", "BOOTSTRAP_ADMIN_PASSWORD"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %s in %q", want, err.Error())
		}
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "file::memory:")
	t.Setenv("JWT_ACCESS_SECRET", "abcdefghijklmnopqrstuvwxyz123456")
	t.Setenv("LIST_CACHE_TTL", "5s")
	t.Setenv("HTTP_PORT", "9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTPPort != "9090" || cfg.DatabaseDriver != "sqlite" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.ListCacheTTL != 5*time.Second {
		t.Fatalf("unexpected list cache ttl: %v", cfg.ListCacheTTL)
	}
	if cfg.JWTAccessTTL != 15*time.Minute {
		t.Fatalf("unexpected default access ttl: %v", cfg.JWTAccessTTL)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("JWT_ACCESS_TTL", "soon")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "JWT_ACCESS_TTL") {
		t.Fatalf("expected duration parse error, got %v", err)
	}
}

func TestValidateRequiresRedisAddrForRedisBackedCache(t *testing.T) {
	cfg := validConfigForTest("development")
	cfg.ListCacheRedisEnabled = true
	cfg.RedisAddr = ""
	if !cfg.UsesRedis() {
		t.Fatal("expected redis-backed list cache to need redis")
	}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "REDIS_ADDR") {
		t.Fatalf("expected REDIS_ADDR error, got %v", err)
	}

	cfg.ListCacheEnabled = false
	if cfg.UsesRedis() {
		t.Fatal("expected disabled list cache to not need redis")
	}
}

func TestValidateProdRequiresSharedListCache(t *testing.T) {
	cfg := validConfigForTest("production")
	cfg.ListCacheEnabled = true
	cfg.ListCacheRedisEnabled = false

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "LIST_CACHE_REDIS_ENABLED") {
		t.Fatalf("expected process-local list cache to be rejected in prod, got %v", err)
	}

	cfg.ListCacheRedisEnabled = true
	cfg.RedisAddr = "redis:6379"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected redis-backed list cache to pass: %v", err)
	}

	cfg.ListCacheEnabled = false
	cfg.ListCacheRedisEnabled = false
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected disabled list cache to pass: %v", err)
	}
}

func TestLoadDefaultsListCacheByEnvironment(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://x")
	t.Setenv("JWT_ACCESS_SECRET", "abcdefghijklmnopqrstuvwxyz123456")

	t.Setenv("APP_ENV", "development")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load dev config: %v", err)
	}
	if !cfg.ListCacheEnabled {
		t.Fatal("expected list cache on by default in development")
	}

	t.Setenv("APP_ENV", "production")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("load prod config: %v", err)
	}
	if cfg.ListCacheEnabled {
		t.Fatal("expected list cache off by default in production")
	}
}
