package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setRequiredEnv provides the settings that have no defaults.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("FAIRTRACK_DATABASE_URL", "postgres://localhost:5432/fairtrack")
	t.Setenv("FAIRTRACK_AUTH_JWT_SECRET", "jwt-secret-that-is-32-chars-long!")
	t.Setenv("FAIRTRACK_AUTH_REALTIME_SECRET", "realtime-secret-that-is-32-chars")
	t.Setenv("FAIRTRACK_STORAGE_ROOT", "/var/lib/fairtrack/files")
}

func TestLoadFromEnvironment(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost:5432/fairtrack", cfg.Database.URL)
	assert.Equal(t, "/var/lib/fairtrack/files", cfg.Storage.Root)

	// Defaults fill in everything else.
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.Auth.HandshakeWindow)
	assert.Equal(t, time.Second, cfg.Jobs.PollInterval)
	assert.Equal(t, 2*time.Minute, cfg.Jobs.LockTTL)
	assert.NotEmpty(t, cfg.Export.ArtifactDir)
	assert.Empty(t, cfg.Sync.Schedule)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("FAIRTRACK_SERVER_PORT", "9090")
	t.Setenv("FAIRTRACK_SERVER_LOG_LEVEL", "debug")
	t.Setenv("FAIRTRACK_JOBS_POLL_INTERVAL", "250ms")
	t.Setenv("FAIRTRACK_SYNC_SCHEDULE", "@hourly")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, 250*time.Millisecond, cfg.Jobs.PollInterval)
	assert.Equal(t, "@hourly", cfg.Sync.Schedule)
}

func TestLoadMissingRequired(t *testing.T) {
	// Only the database URL is present.
	t.Setenv("FAIRTRACK_DATABASE_URL", "postgres://localhost:5432/fairtrack")
	t.Setenv("FAIRTRACK_AUTH_JWT_SECRET", "")
	t.Setenv("FAIRTRACK_AUTH_REALTIME_SECRET", "")
	t.Setenv("FAIRTRACK_STORAGE_ROOT", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
}

func TestLoadRejectsShortSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("FAIRTRACK_AUTH_JWT_SECRET", "too-short")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadLogLevel(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("FAIRTRACK_SERVER_LOG_LEVEL", "chatty")

	_, err := Load()
	assert.Error(t, err)
}
