package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, values map[string]any) string {
	t.Helper()
	data, err := json.Marshal(values)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func validConfigValues() map[string]any {
	return map[string]any{
		"scale_factor": 1.0,
		"data_path":    "./data",
		"output_path":  "./results",
		"iterations":   3,
		"queries":      []int{1, 2, 3},
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeConfigFile(t, validConfigValues())
	config, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 1.0, config.ScaleFactor)
	require.Equal(t, "./data", config.DataPath)
	require.Equal(t, "./results", config.OutputPath)
	require.Equal(t, 3, config.Iterations)
	require.Equal(t, []int{1, 2, 3}, config.Queries)
	require.Empty(t, config.ExtensionPath)
}

func TestLoadConfigMissingKeys(t *testing.T) {
	for _, key := range requiredConfigKeys {
		values := validConfigValues()
		delete(values, key)
		path := writeConfigFile(t, values)
		_, err := LoadConfig(path)
		require.ErrorContains(t, err, key)
	}
}

func TestLoadConfigInvalidJson(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := BenchmarkConfig{
		ScaleFactor: 1,
		DataPath:    "./data",
		OutputPath:  "./results",
		Iterations:  3,
		Queries:     []int{1},
	}
	require.NoError(t, base.Validate())

	invalid := base
	invalid.ScaleFactor = 0
	require.ErrorContains(t, invalid.Validate(), "scale_factor")

	invalid = base
	invalid.ScaleFactor = -1
	require.ErrorContains(t, invalid.Validate(), "scale_factor")

	invalid = base
	invalid.Iterations = 0
	require.ErrorContains(t, invalid.Validate(), "iterations")

	invalid = base
	invalid.Queries = nil
	require.ErrorContains(t, invalid.Validate(), "queries")

	invalid = base
	invalid.Queries = []int{0}
	require.ErrorContains(t, invalid.Validate(), "between 1 and 22")

	invalid = base
	invalid.Queries = []int{23}
	require.ErrorContains(t, invalid.Validate(), "between 1 and 22")

	invalid = base
	invalid.UseBundled = true
	invalid.ExtensionPath = "/tmp/tpch.duckdb_extension"
	require.ErrorContains(t, invalid.Validate(), "mutually exclusive")
}

func TestSampleConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")
	require.NoError(t, WriteSampleConfig(path))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 1.0, config.ScaleFactor)
	require.Equal(t, 3, config.Iterations)
	require.Len(t, config.Queries, 22)
	require.Equal(t, 1, config.Queries[0])
	require.Equal(t, 22, config.Queries[21])
	require.Empty(t, config.ExtensionPath)
	require.False(t, config.UseBundled)
}

func TestExtensionSource(t *testing.T) {
	config := BenchmarkConfig{DataPath: "./data", ExtensionPath: "/opt/tpch.duckdb_extension"}
	explicitPath, dataDir := extensionSource(config)
	require.Equal(t, "/opt/tpch.duckdb_extension", explicitPath)
	require.Equal(t, "./data", dataDir)

	config = BenchmarkConfig{DataPath: "./data", UseBundled: true}
	explicitPath, dataDir = extensionSource(config)
	require.Empty(t, explicitPath)
	require.Empty(t, dataDir)
}
