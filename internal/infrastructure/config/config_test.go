package config_test

import (
	"testing"
	"time"

	"github.com/eddostedson/eddo-budg-sub001/internal/infrastructure/config"
	"github.com/eddostedson/eddo-budg-sub001/internal/usecase"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.JWTSecret != "" {
		t.Fatalf("expected JWT secret default to be empty, got %q", cfg.JWTSecret)
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if cfg.StorageDriver != config.StoragePostgres || cfg.LockBackend != config.LockLocal {
		t.Fatalf("unexpected defaults: storage=%s lock=%s", cfg.StorageDriver, cfg.LockBackend)
	}

	if cfg.TotalsCacheTTL != time.Minute || cfg.EventsChannel != "ledger.events" {
		t.Fatalf("unexpected cache/events defaults: %s %s", cfg.TotalsCacheTTL, cfg.EventsChannel)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("JWT_SECRET", "top-secret")
	t.Setenv("AUTH_ENABLED", "true")
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/ledger.db")
	t.Setenv("LOCK_BACKEND", "redis")
	t.Setenv("LOCK_WAIT", "2s")
	t.Setenv("RATE_LIMIT_RPS", "12.5")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" || !cfg.RedisEnabled {
		t.Fatalf("expected custom redis settings, got %s enabled=%v", cfg.RedisURL, cfg.RedisEnabled)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout override, got %s", cfg.DatabaseTimeout)
	}

	if cfg.JWTSecret != "top-secret" || !cfg.AuthEnabled {
		t.Fatalf("expected auth settings to be set, got secret=%s enabled=%v", cfg.JWTSecret, cfg.AuthEnabled)
	}

	if cfg.StorageDriver != config.StorageSQLite || cfg.SQLitePath != "/tmp/ledger.db" {
		t.Fatalf("expected sqlite storage, got %s at %s", cfg.StorageDriver, cfg.SQLitePath)
	}

	if cfg.LockBackend != config.LockRedis || cfg.LockWait != 2*time.Second {
		t.Fatalf("expected redis lock with 2s wait, got %s %s", cfg.LockBackend, cfg.LockWait)
	}

	if cfg.RateLimitRPS != 12.5 {
		t.Fatalf("expected rate limit override, got %v", cfg.RateLimitRPS)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}

func TestLoadRejectsInvalidCombinations(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown storage driver", env: map[string]string{"STORAGE_DRIVER": "mongo"}},
		{name: "unknown lock backend", env: map[string]string{"LOCK_BACKEND": "zookeeper"}},
		{name: "redis lock without redis", env: map[string]string{"LOCK_BACKEND": "redis", "REDIS_ENABLED": "false"}},
		{name: "auth without secret", env: map[string]string{"AUTH_ENABLED": "true", "JWT_SECRET": ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			if _, err := config.Load(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestTotalsCacheTTLDefaultMatchesUseCase(t *testing.T) {
	t.Setenv("TOTALS_CACHE_TTL", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.TotalsCacheTTL != usecase.DefaultTotalsCacheTTL {
		t.Fatalf("config default %s differs from use case default %s", cfg.TotalsCacheTTL, usecase.DefaultTotalsCacheTTL)
	}
}
