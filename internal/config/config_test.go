package config

import (
	"os"
	"path/filepath"
	"testing"

	"gofit/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gofit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestLoadDefaults tests loading without a file
func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

// TestLoadFile tests the YAML layer
func TestLoadFile(t *testing.T) {
	chdir(t, t.TempDir())
	path := writeConfig(t, `
solver:
  method: bfgs
  maxIterations: 50
output:
  dir: results
  json: true
data:
  sheet: Measurements
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "bfgs", cfg.Solver.Method)
	assert.Equal(t, 50, cfg.Solver.MaxIterations)
	assert.Equal(t, 1e-10, cfg.Solver.GradientThreshold)
	assert.Equal(t, "results", cfg.Output.Dir)
	assert.True(t, cfg.Output.JSON)
	assert.Equal(t, "Measurements", cfg.Data.Sheet)
}

// TestEnvOverridesFile tests that environment variables win over the file
func TestEnvOverridesFile(t *testing.T) {
	chdir(t, t.TempDir())
	path := writeConfig(t, "solver:\n  maxIterations: 50\n")
	t.Setenv("GOFIT_MAX_ITERATIONS", "75")
	t.Setenv("GOFIT_JSON", "true")
	t.Setenv("GOFIT_SHEET", "Run2")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 75, cfg.Solver.MaxIterations)
	assert.True(t, cfg.Output.JSON)
	assert.Equal(t, "Run2", cfg.Data.Sheet)
}

// TestDotEnvIsRead tests that a .env file in the working directory is applied
func TestDotEnvIsRead(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GOFIT_OUTPUT_DIR=from-dotenv\n"), 0o644))
	t.Setenv("GOFIT_OUTPUT_DIR", "")
	os.Unsetenv("GOFIT_OUTPUT_DIR")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Output.Dir)
}

// TestLoadInvalid tests validation failures
func TestLoadInvalid(t *testing.T) {
	chdir(t, t.TempDir())
	tests := []struct {
		name    string
		content string
	}{
		{"unknown method", "solver:\n  method: simplex\n"},
		{"zero iterations", "solver:\n  maxIterations: -1\n"},
		{"bad threshold", "solver:\n  gradientThreshold: -1\n"},
		{"malformed yaml", "solver: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}

// TestLoadMissingFile tests an explicit path that does not exist
func TestLoadMissingFile(t *testing.T) {
	chdir(t, t.TempDir())
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24)
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
