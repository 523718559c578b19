package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// BenchmarkConfig holds every knob of a benchmark run. All fields are
// required and validated up front: there are no hidden defaults.
//
// The tpch extension is resolved from one of three sources: an explicit file
// path (tpch_extension_path), the engine's bundled distribution channel
// (use_bundled_extension), or, when neither is set, a cached download inside
// data_path.
type BenchmarkConfig struct {
	ScaleFactor   float64 `json:"scale_factor" mapstructure:"scale_factor"`
	DataPath      string  `json:"data_path" mapstructure:"data_path"`
	OutputPath    string  `json:"output_path" mapstructure:"output_path"`
	Iterations    int     `json:"iterations" mapstructure:"iterations"`
	Queries       []int   `json:"queries" mapstructure:"queries"`
	ExtensionPath string  `json:"tpch_extension_path" mapstructure:"tpch_extension_path"`
	UseBundled    bool    `json:"use_bundled_extension" mapstructure:"use_bundled_extension"`
}

var requiredConfigKeys = []string{"scale_factor", "data_path", "output_path", "iterations", "queries"}

func (c BenchmarkConfig) Validate() error {
	if c.ScaleFactor <= 0 {
		return fmt.Errorf("scale_factor must be positive, got %v", c.ScaleFactor)
	}
	if c.Iterations <= 0 {
		return fmt.Errorf("iterations must be positive, got %v", c.Iterations)
	}
	if len(c.Queries) == 0 {
		return fmt.Errorf("queries list cannot be empty")
	}
	for _, q := range c.Queries {
		if q < 1 || q > 22 {
			return fmt.Errorf("query %v must be between 1 and 22", q)
		}
	}
	if c.UseBundled && c.ExtensionPath != "" {
		return fmt.Errorf("tpch_extension_path and use_bundled_extension are mutually exclusive")
	}
	return nil
}

// extensionSource translates the config into resolver arguments: an explicit
// extension file path and/or the data directory holding the cached download.
// Both empty means the bundled distribution channel.
func extensionSource(c BenchmarkConfig) (explicitPath string, dataDir string) {
	if c.UseBundled {
		return "", ""
	}
	return c.ExtensionPath, c.DataPath
}

// LoadConfig reads a JSON benchmark configuration from path. Every required
// key must be present; a missing key, a decode failure or an invalid value
// fails the whole load.
func LoadConfig(path string) (BenchmarkConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return BenchmarkConfig{}, fmt.Errorf("failed to read config %v: %w", path, err)
	}
	for _, key := range requiredConfigKeys {
		if !v.IsSet(key) {
			return BenchmarkConfig{}, fmt.Errorf("config %v is missing required key '%v'", path, key)
		}
	}
	var config BenchmarkConfig
	if err := v.Unmarshal(&config); err != nil {
		return BenchmarkConfig{}, fmt.Errorf("failed to decode config %v: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return BenchmarkConfig{}, fmt.Errorf("invalid config %v: %w", path, err)
	}
	return config, nil
}

// WriteSampleConfig writes a configuration file with placeholder values for
// every key, to bootstrap a new setup.
func WriteSampleConfig(path string) error {
	queries := make([]int, 0, 22)
	for q := 1; q <= 22; q++ {
		queries = append(queries, q)
	}
	sample := map[string]any{
		"scale_factor":        1.0,
		"data_path":           "./data",
		"output_path":         "./results",
		"iterations":          3,
		"queries":             queries,
		"tpch_extension_path": nil,
	}
	data, err := json.MarshalIndent(sample, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
