package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDevelopmentDefaults(t *testing.T) {
	t.Setenv("GO_ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Server.Environment)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.False(t, cfg.IsProduction())

	// Development falls back to built-in dev secrets
	assert.Equal(t, "dev-only-jwt-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, "dev-only-qr-secret", cfg.QR.SigningSecret)

	assert.Equal(t, "memory", cfg.Cache.Provider)
	assert.Equal(t, "/api/v1/soil-tests/verify", cfg.QR.VerifyBasePath)
	assert.Equal(t, 256, cfg.QR.ImageSize)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("GO_ENV", "development")
	t.Setenv("PORT", "9001")
	t.Setenv("JWT_EXPIRY", "30m")
	t.Setenv("RATE_LIMIT_REQUESTS", "50")
	t.Setenv("QR_IMAGE_SIZE", "512")
	t.Setenv("PUBLIC_BASE_URL", "https://api.agrilink.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9001", cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.Auth.JWTExpiry)
	assert.Equal(t, 50, cfg.Security.RateLimitRequests)
	assert.Equal(t, 512, cfg.QR.ImageSize)
	assert.Equal(t, "https://api.agrilink.example.com", cfg.Server.PublicBaseURL)
}

func TestLoadProductionRequiresSecrets(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("QR_SIGNING_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadProductionRequiresQRSecret(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	t.Setenv("JWT_SECRET", "a-sufficiently-long-secret")
	t.Setenv("QR_SIGNING_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "QR_SIGNING_SECRET")
}

func TestLoadProductionHappyPath(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	t.Setenv("JWT_SECRET", "a-sufficiently-long-secret")
	t.Setenv("QR_SIGNING_SECRET", "another-long-signing-secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad cache provider", "CACHE_PROVIDER", "memcached"},
		{"bcrypt cost too low", "BCRYPT_COST", "2"},
		{"bcrypt cost too high", "BCRYPT_COST", "40"},
		{"zero rate limit", "RATE_LIMIT_REQUESTS", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GO_ENV", "development")
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
