package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ProductionRequiresSecret(t *testing.T) {
	cfg := &Config{
		App:  AppConfig{Env: "production"},
		Auth: AuthConfig{JWTSecret: "", TokenTTLHours: 24},
	}
	assert.Error(t, cfg.Validate())

	cfg.Auth.JWTSecret = "configured"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_DevelopmentToleratesMissingSecret(t *testing.T) {
	cfg := &Config{
		App:  AppConfig{Env: "development"},
		Auth: AuthConfig{JWTSecret: "", TokenTTLHours: 24},
	}
	assert.NoError(t, cfg.Validate())
}

func TestValidate_TokenTTLMustBePositive(t *testing.T) {
	cfg := &Config{
		App:  AppConfig{Env: "development"},
		Auth: AuthConfig{TokenTTLHours: 0},
	}
	assert.Error(t, cfg.Validate())
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("AUTH_JWT_SECRET", "")
	t.Setenv("POSTGRES_DSN", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "catalog-service", cfg.App.Name)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL())
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.True(t, cfg.Feed.Enabled)
	assert.False(t, cfg.IsProduction())
}
