package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/alecthomas/kingpin.v2"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Chunking)
	assert.Equal(t, 60*time.Millisecond, cfg.SliceBudget)
	assert.Equal(t, 10, cfg.CheckInterval)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, "chunking: false\nslice_budget: 25ms\nlog_level: debug\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Config{
		Chunking:      false,
		SliceBudget:   25 * time.Millisecond,
		CheckInterval: 10,
		LogLevel:      "debug",
	}, cfg)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.SliceBudget = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.CheckInterval = -1
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.LogLevel = "loud"
	assert.Error(t, cfg.Validate())
}

func TestFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, "chunking: true\nslice_budget: 25ms\ncheck_interval: 5\n")

	app := kingpin.New("test", "")
	flags := RegisterFlags(app)
	_, err := app.Parse([]string{"--config.file", path, "--chunking", "off", "--slice-budget", "1s"})
	require.NoError(t, err)

	cfg, err := flags.Resolve()
	require.NoError(t, err)
	assert.False(t, cfg.Chunking)
	assert.Equal(t, time.Second, cfg.SliceBudget)
	assert.Equal(t, 5, cfg.CheckInterval)
	assert.Equal(t, "info", cfg.LogLevel)
}
