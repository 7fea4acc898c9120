package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, [3]int{256, 256, 24}, cfg.Crop.TargetSize)
	assert.Equal(t, [3]float64{0.5, 0.5, 3.0}, cfg.Spacing.Target)
	assert.Equal(t, 50, cfg.Registration.HistogramBins)
	assert.Equal(t, 100, cfg.Registration.Iterations)
	assert.Equal(t, 1e-6, cfg.Registration.ConvergenceMinimumValue)
	assert.Equal(t, 10, cfg.Registration.ConvergenceWindowSize)
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("crop:\n  targetSize: [128, 128, 32]\nregistration:\n  iterations: 40\n")
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, [3]int{128, 128, 32}, cfg.Crop.TargetSize)
	assert.Equal(t, 40, cfg.Registration.Iterations)
	// untouched sections keep defaults
	assert.Equal(t, [3]float64{0.5, 0.5, 3.0}, cfg.Spacing.Target)
	assert.Equal(t, 40, cfg.Method().Iterations)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("spacing:\n  target: [0.5, 0, 3]\n"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("crop: [unclosed"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, CreateDefaultConfigFile(path))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}
