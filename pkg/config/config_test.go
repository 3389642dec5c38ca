package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ":9876", cfg.Server.Address)
	assert.Equal(t, 10*time.Second, cfg.Session.AnswerTimeout)
	assert.Equal(t, 16, cfg.Session.MaxServerChannels)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Tracing.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Server.Address, cfg.Server.Address)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  address: ":7000"
  read_timeout: 5s
  write_timeout: 5s
  shutdown_timeout: 5s
session:
  answer_timeout: 3s
  max_server_channels: 4
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Address)
	assert.Equal(t, 3*time.Second, cfg.Session.AnswerTimeout)
	assert.Equal(t, 4, cfg.Session.MaxServerChannels)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
session:
  answer_timeout: -1s
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DCPROBE_ADDR", ":7777")
	t.Setenv("DCPROBE_LOG_LEVEL", "debug")
	t.Setenv("DCPROBE_ANSWER_TIMEOUT", "2s")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.Server.Address)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 2*time.Second, cfg.Session.AnswerTimeout)
}

func TestLoadMissingFileValidatesEnvOverrides(t *testing.T) {
	t.Setenv("DCPROBE_ANSWER_TIMEOUT", "-5s")

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidatePortRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WebRTC.PortRange.Min = 50000
	assert.Error(t, cfg.Validate())

	cfg.WebRTC.PortRange.Max = 40000
	assert.Error(t, cfg.Validate())

	cfg.WebRTC.PortRange.Max = 60000
	assert.NoError(t, cfg.Validate())
}
