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
	t.Setenv(ConfigFileEnv, "")
	t.Setenv("API_URL", "")
	os.Unsetenv("API_URL")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000/api", cfg.APIURL)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxUploadBytes)
	assert.Zero(t, cfg.RequestTimeout)
	assert.NotEmpty(t, cfg.TokenFile)
}

func TestLoad_FileThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jan-chat.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_url: http://backend.internal:8080/api/
token_file: /tmp/session.yaml
request_timeout: 15s
log_level: debug
`), 0o600))

	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "http://backend.internal:8080/api", cfg.APIURL)
	assert.Equal(t, "/tmp/session.yaml", cfg.TokenFile)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_ConfigFileFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("notice_buffer: 4\n"), 0o600))
	t.Setenv(ConfigFileEnv, path)

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, 4, cfg.NoticeBuffer)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad url", func(c *Config) { c.APIURL = "not a url" }},
		{"tracing without endpoint", func(c *Config) { c.EnableTracing = true }},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }},
		{"zero upload limit", func(c *Config) { c.MaxUploadBytes = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
