// Package config provides configuration loading and management for volslicer.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Default slice index policies
const (
	IndexMiddle = "middle"
	IndexZero   = "zero"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Display parameters shared by the slicer and the grid plotter
	Display struct {
		// Colormap is the default colour map name
		Colormap string `yaml:"colormap"`

		// RangeMode is one of global, slice or explicit
		RangeMode string `yaml:"rangeMode"`

		// RangeMin and RangeMax are used when RangeMode is explicit
		RangeMin float64 `yaml:"rangeMin"`
		RangeMax float64 `yaml:"rangeMax"`

		// DefaultIndex selects the initial slider position: middle or zero
		DefaultIndex string `yaml:"defaultIndex"`

		// PanelWidth and PanelHeight are the size of one panel in pixels
		PanelWidth  int `yaml:"panelWidth"`
		PanelHeight int `yaml:"panelHeight"`

		// DPI converts pixels to plot units
		DPI int `yaml:"dpi"`

		// FixRange shares one colour range across grid panels
		FixRange bool `yaml:"fixRange"`

		// StretchY displays every grid panel with a 1:1 box
		StretchY bool `yaml:"stretchY"`
	} `yaml:"display"`

	// Data parameters for synthetic volumes
	Data struct {
		// PhantomSize is the edge length of generated phantoms
		PhantomSize int `yaml:"phantomSize"`

		// Noise is none, gaussian, poisson or s&p
		Noise string `yaml:"noise"`

		// NoiseLevel overrides the per-kind default when non-zero
		NoiseLevel float64 `yaml:"noiseLevel"`

		// Seed makes noise reproducible
		Seed uint64 `yaml:"seed"`
	} `yaml:"data"`

	// Processing parameters
	Processing struct {
		// NumCores bounds the workers used for batch rendering
		NumCores int `yaml:"numCores"`
	} `yaml:"processing"`

	// Output parameters
	Output struct {
		// Dir receives rendered images
		Dir string `yaml:"dir"`

		// Format is png or jpeg
		Format string `yaml:"format"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Display.Colormap = "viridis"
	cfg.Display.RangeMode = "global"
	cfg.Display.DefaultIndex = IndexMiddle
	cfg.Display.PanelWidth = 480
	cfg.Display.PanelHeight = 400
	cfg.Display.DPI = 96

	cfg.Data.PhantomSize = 64
	cfg.Data.Noise = "gaussian"
	cfg.Data.Seed = 10

	cfg.Processing.NumCores = runtime.NumCPU()

	cfg.Output.Dir = "slices"
	cfg.Output.Format = "png"
	cfg.Output.Verbose = true

	return cfg
}

// Validate checks enumerated fields and sizes
func (c *Config) Validate() error {
	switch c.Display.RangeMode {
	case "", "global", "slice":
	case "explicit":
		if c.Display.RangeMin > c.Display.RangeMax {
			return fmt.Errorf("explicit range min %g exceeds max %g", c.Display.RangeMin, c.Display.RangeMax)
		}
	default:
		return fmt.Errorf("unknown range mode %q", c.Display.RangeMode)
	}

	switch c.Display.DefaultIndex {
	case IndexMiddle, IndexZero:
	default:
		return fmt.Errorf("unknown default index policy %q", c.Display.DefaultIndex)
	}

	if c.Display.PanelWidth <= 0 || c.Display.PanelHeight <= 0 {
		return fmt.Errorf("panel size must be positive, got %dx%d", c.Display.PanelWidth, c.Display.PanelHeight)
	}
	if c.Display.DPI <= 0 {
		return fmt.Errorf("dpi must be positive, got %d", c.Display.DPI)
	}

	switch c.Output.Format {
	case "png", "jpeg", "jpg":
	default:
		return fmt.Errorf("unknown output format %q", c.Output.Format)
	}

	if c.Processing.NumCores < 1 {
		c.Processing.NumCores = 1
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
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
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
