// Package config loads server defaults from an optional YAML file.
//
// The file location comes from the MESH_MCP_CONFIG environment variable.
// When the variable is unset the built-in defaults are used, so a plain
// install needs no config file at all.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/scanforge/mesh-tools-mcp/internal/align"
	"github.com/scanforge/mesh-tools-mcp/internal/repair"
)

// EnvConfigPath names the environment variable pointing at the config file.
const EnvConfigPath = "MESH_MCP_CONFIG"

// Config holds the tunable defaults for repair and registration. Tool calls
// may still override individual values per request.
type Config struct {
	Repair repair.Options   `yaml:"repair"`
	ICP    align.ICPOptions `yaml:"icp"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Repair: repair.DefaultOptions(),
		ICP:    align.DefaultICPOptions(),
	}
}

// Load reads and validates the YAML config at path. Fields absent from the
// file keep their built-in defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// FromEnvironment resolves the configuration for server startup: the file
// named by MESH_MCP_CONFIG when set, built-in defaults otherwise.
func FromEnvironment() (*Config, error) {
	path := os.Getenv(EnvConfigPath)
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

func (c *Config) validate() error {
	if c.Repair.MaxHoleSize < 0 {
		return fmt.Errorf("repair.max_hole_size must be non-negative, got %d", c.Repair.MaxHoleSize)
	}
	if c.Repair.MinComponentSize < 0 {
		return fmt.Errorf("repair.min_component_size must be non-negative, got %d", c.Repair.MinComponentSize)
	}
	if c.ICP.SampleNumber < 3 {
		return fmt.Errorf("icp.sample_number must be at least 3, got %d", c.ICP.SampleNumber)
	}
	if c.ICP.MaxIterations < 1 {
		return fmt.Errorf("icp.max_iterations must be at least 1, got %d", c.ICP.MaxIterations)
	}
	if c.ICP.MaxDistanceFraction <= 0 || c.ICP.MaxDistanceFraction > 1 {
		return fmt.Errorf("icp.max_distance_fraction must be in (0, 1], got %g", c.ICP.MaxDistanceFraction)
	}
	if c.ICP.OutlierPercentile <= 0 || c.ICP.OutlierPercentile > 1 {
		return fmt.Errorf("icp.outlier_percentile must be in (0, 1], got %g", c.ICP.OutlierPercentile)
	}
	return nil
}
