package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"BACKEND_URL", "DB_DRIVER", "DB_CONN_STR", "PRICE_REFRESH_INTERVAL", "HTTP_PORT"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()

	assert.Equal(t, "http://localhost:8000", cfg.BackendURL)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "./finai.db", cfg.DBConnStr)
	assert.Equal(t, 5*time.Minute, cfg.PriceRefreshInterval)
	assert.Equal(t, "8080", cfg.HTTPPort)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("BACKEND_URL", "https://api.example.com/")
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DB_CONN_STR", "")
	t.Setenv("PRICE_REFRESH_INTERVAL", "30s")
	t.Setenv("BACKEND_RATE_LIMIT", "2.5")
	t.Setenv("BACKEND_BURST", "not-a-number")

	cfg := FromEnv()

	assert.Equal(t, "https://api.example.com", cfg.BackendURL)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Contains(t, cfg.DBConnStr, "postgres://")
	assert.Equal(t, 30*time.Second, cfg.PriceRefreshInterval)
	assert.Equal(t, 2.5, cfg.BackendRateLimit)
	assert.Equal(t, 10, cfg.BackendBurst)
}

func TestGetEnvAsDuration_Invalid(t *testing.T) {
	t.Setenv("FAMILY_CACHE_TTL", "forever")
	assert.Equal(t, time.Hour, getEnvAsDuration("FAMILY_CACHE_TTL", time.Hour))
}

func TestGetEnvAsList(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", " http://a.test , ,http://b.test")
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, getEnvAsList("CORS_ALLOWED_ORIGINS", nil))

	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	assert.Equal(t, []string{"x"}, getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"x"}))
}
