package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, []string{"."}, cfg.ScanPaths)
	assert.Contains(t, cfg.Analysis.DataLibs, "pandas")
	assert.Contains(t, cfg.Analysis.DataLibs, "pd")
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	assert.Greater(t, cfg.Scan.Workers, 0)
	assert.Equal(t, ".pyfacts/history.db", cfg.History.Path)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pyfacts.toml")
	content := `
scan_paths = ["services", "jobs"]

[exclude]
dirs = ["migrations"]
files = ["*_pb2.py"]

[analysis]
data_libs = ["pd", "polars"]

[scan]
workers = 2

[history]
enabled = true
path = "out/history.db"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"services", "jobs"}, cfg.ScanPaths)
	assert.Equal(t, []string{"migrations"}, cfg.Exclude.Dirs)
	assert.Equal(t, []string{"*_pb2.py"}, cfg.Exclude.Files)
	assert.Equal(t, []string{"pd", "polars"}, cfg.Analysis.DataLibs)
	assert.Equal(t, 2, cfg.Scan.Workers)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, "out/history.db", cfg.History.Path)
	// Untouched sections still get defaults.
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}
