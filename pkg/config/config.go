// Package config provides configuration loading and management for cryosim.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Imaging plane parameters
	Image struct {
		// Height and Width are the output image shape in pixels
		Height int `yaml:"height"`
		Width  int `yaml:"width"`

		// PaddedHeight and PaddedWidth are the internal padded shape;
		// zero means 1.5 times the output shape
		PaddedHeight int `yaml:"paddedHeight"`
		PaddedWidth  int `yaml:"paddedWidth"`

		// PixelSize is the physical pixel size in angstroms
		PixelSize float64 `yaml:"pixelSize"`
	} `yaml:"image"`

	// Simulation parameters
	Simulation struct {
		// Seed initializes the random source for sampling
		Seed uint64 `yaml:"seed"`

		// NumPoints is the number of scattering points in the synthetic
		// specimen generated when no volume file is given
		NumPoints int `yaml:"numPoints"`

		// SpecimenExtent bounds the synthetic specimen coordinates in angstroms
		SpecimenExtent float64 `yaml:"specimenExtent"`

		// NumCores specifies how many CPU cores to use for the projection
		NumCores int `yaml:"numCores"`

		// ContrastScale multiplies the noiseless signal in the
		// observation model
		ContrastScale float64 `yaml:"contrastScale"`

		// NoiseVariance is the flat per-mode noise variance of the
		// observation model
		NoiseVariance float64 `yaml:"noiseVariance"`
	} `yaml:"simulation"`

	// Contrast transfer function parameters
	Optics struct {
		// Enabled switches the CTF on; when false the instrument is
		// aberration free
		Enabled bool `yaml:"enabled"`

		// DefocusU and DefocusV are the astigmatic defocus values in
		// angstroms
		DefocusU float64 `yaml:"defocusU"`
		DefocusV float64 `yaml:"defocusV"`

		// AstigmatismAngle is the major axis angle in radians
		AstigmatismAngle float64 `yaml:"astigmatismAngle"`

		// VoltageKV is the accelerating voltage in kilovolts
		VoltageKV float64 `yaml:"voltageKV"`

		// SphericalAberration is the Cs coefficient in millimeters
		SphericalAberration float64 `yaml:"sphericalAberration"`

		// AmplitudeContrast is the amplitude contrast ratio
		AmplitudeContrast float64 `yaml:"amplitudeContrast"`

		// PhaseShift is an additional phase in radians
		PhaseShift float64 `yaml:"phaseShift"`
	} `yaml:"optics"`

	// Detector parameters
	Detector struct {
		// Variance is the per-pixel readout variance; zero disables
		// readout noise
		Variance float64 `yaml:"variance"`

		// PixelSize is the physical detector pixel size in angstroms;
		// zero means the specimen resolution
		PixelSize float64 `yaml:"pixelSize"`
	} `yaml:"detector"`

	// Output parameters
	Output struct {
		// Dir is the directory results are written to
		Dir string `yaml:"dir"`

		// SaveRendered determines whether the noiseless image is saved
		// alongside the samples
		SaveRendered bool `yaml:"saveRendered"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default imaging parameters
	cfg.Image.Height = 64
	cfg.Image.Width = 64
	cfg.Image.PixelSize = 1.0

	// Set default simulation parameters
	cfg.Simulation.Seed = 1
	cfg.Simulation.NumPoints = 64
	cfg.Simulation.SpecimenExtent = 20.0
	cfg.Simulation.NumCores = runtime.NumCPU()
	cfg.Simulation.ContrastScale = 1.0
	cfg.Simulation.NoiseVariance = 1.0

	// Set default optics parameters
	cfg.Optics.Enabled = true
	cfg.Optics.DefocusU = 10000
	cfg.Optics.DefocusV = 10000
	cfg.Optics.VoltageKV = 300
	cfg.Optics.SphericalAberration = 2.7
	cfg.Optics.AmplitudeContrast = 0.1

	// Set default output parameters
	cfg.Output.Dir = "cryosim_output"
	cfg.Output.SaveRendered = true
	cfg.Output.Verbose = true

	return cfg
}

// PaddedShape resolves the internal padded shape, defaulting to 1.5 times
// the output shape when not set explicitly.
func (c *Config) PaddedShape() [2]int {
	h, w := c.Image.PaddedHeight, c.Image.PaddedWidth
	if h == 0 {
		h = c.Image.Height * 3 / 2
	}
	if w == 0 {
		w = c.Image.Width * 3 / 2
	}
	return [2]int{h, w}
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
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

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
