package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/searches", cfg.Input.SnapshotsDir)
	assert.Equal(t, "data/financials.json", cfg.Input.FinancialsPath)
	assert.True(t, cfg.Input.Strict)
	assert.Equal(t, "public/data", cfg.Output.Dir)
	assert.Equal(t, "data.js", cfg.Output.BundleName)
	assert.Equal(t, "COMPETITOR_DATA", cfg.Output.BundleGlobal)
	assert.True(t, cfg.Output.SQLite)
	assert.False(t, cfg.Output.XLSX)
	assert.Empty(t, cfg.Industries.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
input:
  snapshots_dir: snaps
  strict: false
output:
  dir: out
  xlsx: true
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "snaps", cfg.Input.SnapshotsDir)
	assert.False(t, cfg.Input.Strict)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.True(t, cfg.Output.XLSX)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	// Defaults still apply for unset values
	assert.Equal(t, "data/financials.json", cfg.Input.FinancialsPath)
	assert.True(t, cfg.Output.SQLite)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
output:
  dir: out
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("COMPGRAPH_OUTPUT_DIR", "elsewhere")
	t.Setenv("COMPGRAPH_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "elsewhere", cfg.Output.Dir)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("COMPGRAPH_INPUT_STRICT", "false")
	t.Setenv("COMPGRAPH_OUTPUT_BUNDLE_GLOBAL", "RIVALS")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Input.Strict)
	assert.Equal(t, "RIVALS", cfg.Output.BundleGlobal)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("output: [unclosed"), 0644))

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Input.SnapshotsDir = "data/searches"
	cfg.Input.Strict = true
	cfg.Output.Dir = "public/data"
	cfg.Output.BundleName = "data.js"
	cfg.Output.BundleGlobal = "COMPETITOR_DATA"
	return cfg
}

func TestValidateBuild_Defaults(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("build"))
}

func TestValidateBuild_MissingFields(t *testing.T) {
	cfg := &Config{}

	err := cfg.Validate("build")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "input.snapshots_dir is required")
	assert.Contains(t, err.Error(), "output.bundle_name is required")
	assert.Contains(t, err.Error(), "output.dir is required")
	assert.Contains(t, err.Error(), "output.bundle_global")
}

func TestValidateBuild_BundleName(t *testing.T) {
	cfg := validDefaults()
	cfg.Output.BundleName = "js/data.js"

	err := cfg.Validate("build")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "must be a file name")
}

func TestValidateBuild_ReservedBundleName(t *testing.T) {
	for _, name := range []string{"index.json", "index-public.json", "entities", "graph.db", "entities.xlsx", "Index.JSON", ".."} {
		t.Run(name, func(t *testing.T) {
			cfg := validDefaults()
			cfg.Output.BundleName = name

			err := cfg.Validate("build")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "reserved")
		})
	}
}

func TestValidateBuild_BundleGlobal(t *testing.T) {
	tests := []struct {
		global string
		ok     bool
	}{
		{"COMPETITOR_DATA", true},
		{"$data", true},
		{"_x1", true},
		{"", false},
		{"1abc", false},
		{"my-data", false},
		{"window.DATA", false},
	}

	for _, tt := range tests {
		t.Run(tt.global, func(t *testing.T) {
			cfg := validDefaults()
			cfg.Output.BundleGlobal = tt.global
			err := cfg.Validate("build")
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidateInspect(t *testing.T) {
	cfg := &Config{}
	cfg.Output.Dir = "out"
	assert.NoError(t, cfg.Validate("inspect"))

	cfg.Output.Dir = ""
	assert.Error(t, cfg.Validate("inspect"))
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
