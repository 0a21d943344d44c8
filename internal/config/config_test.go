// internal/config/config_test.go
package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/GIVerify/internal/browser"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 10*time.Minute, cfg.Server.WriteTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, browser.DefaultUserAgent, cfg.Browser.UserAgent)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromBytes(t *testing.T) {
	configYAML := `
server:
  address: "127.0.0.1:9000"
  write_timeout: 5m
logging:
  level: debug
  development: true
browser:
  headless: false
  exec_path: /usr/bin/chromium
metrics:
  enabled: false
`

	cfg, err := LoadFromBytes([]byte(configYAML))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Address)
	assert.Equal(t, 5*time.Minute, cfg.Server.WriteTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.False(t, cfg.Browser.Headless)
	assert.True(t, cfg.Browser.NoSandbox, "unset keys keep their defaults")
	assert.Equal(t, "/usr/bin/chromium", cfg.Browser.ExecPath)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoadFromBytes_Empty(t *testing.T) {
	cfg, err := LoadFromBytes(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromBytes_EnvironmentExpansion(t *testing.T) {
	t.Setenv("GIVERIFY_ADDR", ":7070")
	t.Setenv("GIVERIFY_EMPTY", "")

	cfg, err := LoadFromBytes([]byte(`
server:
  address: "${GIVERIFY_ADDR}"
logging:
  level: "${GIVERIFY_EMPTY:-warn}"
browser:
  user_agent: "${GIVERIFY_UNSET_UA:-TestAgent/1.0}"
`))
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Address)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "TestAgent/1.0", cfg.Browser.UserAgent)
}

func TestLoadFromBytes_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"syntax", "server: [", "failed to parse YAML"},
		{"log level", "logging:\n  level: loud\n", "logging.level"},
		{"negative timeout", "server:\n  read_timeout: -1s\n", "server.read_timeout"},
		{"metrics path", "metrics:\n  enabled: true\n  path: metrics\n", "metrics.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "giverify.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  address: \":9999\"\n"), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Address)

	_, err = LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration file not found")

	_, err = LoadFromFile("")
	assert.Error(t, err)
}

func TestSaveToWriterRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SaveToWriter(Default(), &buf))
	assert.Contains(t, buf.String(), "write_timeout: 10m0s")

	cfg, err := LoadFromReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
