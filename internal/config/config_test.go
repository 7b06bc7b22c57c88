package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTExpiry)
	assert.Contains(t, cfg.DBURL, "postgres://")
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://x:y@db:5432/app?sslmode=disable")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_EXPIRES_DAYS", "2")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg := Load()

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "postgres://x:y@db:5432/app?sslmode=disable", cfg.DBURL)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, 48*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestGetEnvIntBadValue(t *testing.T) {
	t.Setenv("PORT", "not-a-number")

	cfg := Load()

	assert.Equal(t, 8080, cfg.Port)
}
