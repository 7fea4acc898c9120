// Package config provides configuration loading and management for medproio.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"medproio/internal/models"
	"medproio/pkg/registration"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Crop parameters for the volume cropper and padder
	Crop struct {
		// TargetSize is the output voxel count along x, y and z
		TargetSize [3]int `yaml:"targetSize"`
	} `yaml:"crop"`

	// Spacing parameters for the spacing resampler
	Spacing struct {
		// Target is the output voxel spacing in mm
		Target [3]float64 `yaml:"target"`
	} `yaml:"spacing"`

	// Registration parameters for rigid alignment
	Registration struct {
		HistogramBins           int     `yaml:"histogramBins"`
		LearningRate            float64 `yaml:"learningRate"`
		Iterations              int     `yaml:"iterations"`
		ConvergenceMinimumValue float64 `yaml:"convergenceMinimumValue"`
		ConvergenceWindowSize   int     `yaml:"convergenceWindowSize"`

		// SampleStride keeps every n-th voxel when evaluating the metric
		SampleStride int `yaml:"sampleStride"`
	} `yaml:"registration"`

	// Phantom describes the synthetic volumes used by the CLI
	Phantom struct {
		MovingSize       [3]int     `yaml:"movingSize"`
		MovingSpacing    [3]float64 `yaml:"movingSpacing"`
		ReferenceSize    [3]int     `yaml:"referenceSize"`
		ReferenceSpacing [3]float64 `yaml:"referenceSpacing"`

		// Shift displaces the moving anatomy in mm
		Shift [3]float64 `yaml:"shift"`
	} `yaml:"phantom"`

	// Output parameters
	Output struct {
		// Verbose enables debug logging
		Verbose bool `yaml:"verbose"`

		// PreviewDir receives PNG slice previews; empty disables them
		PreviewDir string `yaml:"previewDir"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Crop.TargetSize = models.DefaultTargetSize
	cfg.Spacing.Target = models.DefaultTargetSpacing

	m := registration.NewMethod()
	cfg.Registration.HistogramBins = m.Metric.Bins
	cfg.Registration.LearningRate = m.LearningRate
	cfg.Registration.Iterations = m.Iterations
	cfg.Registration.ConvergenceMinimumValue = m.ConvergenceMinimumValue
	cfg.Registration.ConvergenceWindowSize = m.ConvergenceWindowSize
	cfg.Registration.SampleStride = 16

	cfg.Phantom.MovingSize = [3]int{100, 100, 50}
	cfg.Phantom.MovingSpacing = [3]float64{1, 1, 1}
	cfg.Phantom.ReferenceSize = [3]int{200, 200, 17}
	cfg.Phantom.ReferenceSpacing = [3]float64{0.5, 0.5, 3.0}
	cfg.Phantom.Shift = [3]float64{2, -1, 0}

	cfg.Output.Verbose = false

	return cfg
}

// Validate checks every numeric setting
func (c *Config) Validate() error {
	if err := models.Size3(c.Crop.TargetSize).Validate(); err != nil {
		return fmt.Errorf("crop: %w", err)
	}
	if err := models.Spacing3(c.Spacing.Target).Validate(); err != nil {
		return fmt.Errorf("spacing: %w", err)
	}
	if err := c.Method().Validate(); err != nil {
		return fmt.Errorf("registration: %w", err)
	}
	if c.Registration.HistogramBins < 2 {
		return fmt.Errorf("registration: histogram bins must be at least 2, got %d", c.Registration.HistogramBins)
	}
	for _, s := range [][3]int{c.Phantom.MovingSize, c.Phantom.ReferenceSize} {
		if err := models.Size3(s).Validate(); err != nil {
			return fmt.Errorf("phantom: %w", err)
		}
	}
	for _, s := range [][3]float64{c.Phantom.MovingSpacing, c.Phantom.ReferenceSpacing} {
		if err := models.Spacing3(s).Validate(); err != nil {
			return fmt.Errorf("phantom: %w", err)
		}
	}
	return nil
}

// Method builds the registration method described by the configuration
func (c *Config) Method() *registration.Method {
	return &registration.Method{
		Metric: registration.MutualInformation{
			Bins:         c.Registration.HistogramBins,
			SampleStride: c.Registration.SampleStride,
		},
		LearningRate:            c.Registration.LearningRate,
		Iterations:              c.Registration.Iterations,
		ConvergenceMinimumValue: c.Registration.ConvergenceMinimumValue,
		ConvergenceWindowSize:   c.Registration.ConvergenceWindowSize,
	}
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Fields absent from the file keep their defaults
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}
	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
