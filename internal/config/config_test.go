package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 64, cfg.TTSizeMB)
	assert.False(t, cfg.Production())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("CHESSARENA_ADDR", ":9090")
	t.Setenv("CHESSARENA_TOKEN_TTL", "30m")
	t.Setenv("CHESSARENA_TT_SIZE_MB", "128")
	t.Setenv("CHESSARENA_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 128, cfg.TTSizeMB)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestProductionRefusesDefaultSecret(t *testing.T) {
	t.Setenv("CHESSARENA_ENV", "prod")

	_, err := FromEnv()
	require.Error(t, err)

	t.Setenv("CHESSARENA_TOKEN_SECRET", "real-secret")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.Production())
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	t.Setenv("CHESSARENA_TT_SIZE_MB", "lots")
	_, err := FromEnv()
	assert.Error(t, err)
}
