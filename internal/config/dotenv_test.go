package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, 3, cfg.GracePeriodSeconds)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GRACE_PERIOD_SECONDS", "5")
	t.Setenv("MAX_PARTICIPANTS", "0")
	t.Setenv("SINK_WORKERS", "-2")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("LOG_PRETTY", "true")

	cfg := Load()
	assert.Equal(t, 5, cfg.GracePeriodSeconds)
	assert.Equal(t, 0, cfg.MaxParticipants)
	assert.Equal(t, Default().SinkWorkers, cfg.SinkWorkers)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.True(t, cfg.LogPretty)
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}

func TestLoadDotEnvKeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("NATS_SUBJECT_PREFIX=fromfile\nPORT=9999\n"), 0o600))
	t.Setenv("PORT", "7000")
	// unset after the test so the loaded key does not leak into other tests
	t.Setenv("NATS_SUBJECT_PREFIX", "")
	require.NoError(t, os.Unsetenv("NATS_SUBJECT_PREFIX"))

	require.NoError(t, LoadDotEnv(path))
	cfg := Load()
	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, "fromfile", cfg.NATSSubjectPrefix)
}
