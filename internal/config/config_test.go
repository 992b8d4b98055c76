package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "stdio", cfg.Transport.Mode)
	assert.Equal(t, "cases", cfg.Cases.Dir)
	assert.Equal(t, 30, cfg.Session.TTLMinutes)
	assert.Equal(t, 30, cfg.Session.SweepIntervalSecs)
	assert.Equal(t, "clinsim.db", cfg.DB.Path)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.Auth.Enabled)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CLINSIM_TRANSPORT_MODE", "http")
	t.Setenv("CLINSIM_SERVER_PORT", "9090")
	t.Setenv("CLINSIM_CASES_DIR", "/srv/cases")
	t.Setenv("CLINSIM_SESSION_TTL_MINUTES", "15")
	t.Setenv("CLINSIM_OPENAI_MODEL", "gpt-4o")
	t.Setenv("CLINSIM_DB_PATH", "/tmp/clinsim.db")
	t.Setenv("CLINSIM_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http", cfg.Transport.Mode)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/srv/cases", cfg.Cases.Dir)
	assert.Equal(t, 15, cfg.Session.TTLMinutes)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, "/tmp/clinsim.db", cfg.DB.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadAuthTokenEnablesAuth(t *testing.T) {
	t.Setenv("CLINSIM_AUTH_TOKEN", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Auth.Enabled)
	assert.Equal(t, "secret", cfg.Auth.Token)
}

func TestLoadInvalidPort(t *testing.T) {
	t.Setenv("CLINSIM_SERVER_PORT", "not-a-port")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
transport:
  mode: http
session:
  ttl_minutes: 45
auth:
  enabled: true
  token: file-token
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	t.Setenv("CLINSIM_CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http", cfg.Transport.Mode)
	assert.Equal(t, 45, cfg.Session.TTLMinutes)
	assert.True(t, cfg.Auth.Enabled)
	assert.Equal(t, "file-token", cfg.Auth.Token)

	// Defaults not named in the file survive.
	assert.Equal(t, "cases", cfg.Cases.Dir)
}

func TestLoadMissingConfigFile(t *testing.T) {
	t.Setenv("CLINSIM_CONFIG_PATH", "/does/not/exist.yaml")

	_, err := Load()
	assert.Error(t, err)
}
