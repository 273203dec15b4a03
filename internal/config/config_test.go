package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "postgres://localhost/ledger")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "production", cfg.AppEnv)
	assert.Equal(t, time.Duration(0), cfg.RecurringPollInterval)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 5*time.Minute, cfg.ConnMaxLifetime())
	assert.Equal(t, time.Minute, cfg.ConnMaxIdleTime())
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "")
	os.Unsetenv("DATABASE_URL")
	t.Setenv("JWT_SECRET", "secret")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	content := "DATABASE_URL=postgres://from-file/ledger\nJWT_SECRET=file-secret\nRECURRING_POLL_INTERVAL=5m\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600))

	// godotenv does not override variables that are already set.
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("DATABASE_URL", "")
	os.Unsetenv("DATABASE_URL")
	t.Setenv("RECURRING_POLL_INTERVAL", "")
	os.Unsetenv("RECURRING_POLL_INTERVAL")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://from-file/ledger", cfg.DatabaseURL)
	assert.Equal(t, "env-secret", cfg.JWTSecret)
	assert.Equal(t, 5*time.Minute, cfg.RecurringPollInterval)
}

func TestLoad_RejectsNegativeInterval(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "postgres://localhost/ledger")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("RECURRING_POLL_INTERVAL", "-1m")

	_, err := Load()
	require.Error(t, err)
}
