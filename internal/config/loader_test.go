package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/architadhande/queryverse-data-platform/pkg/adapters/duckdb"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644))
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(t.TempDir(), nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultModelsDir, cfg.ModelsDir)
	assert.Equal(t, DefaultTargetType, cfg.Target.Type)
	assert.Equal(t, DefaultTargetDatabase, cfg.Target.Database)
	assert.Equal(t, DefaultSampleRows, cfg.Ingest.SampleRows)
	assert.Equal(t, DefaultModelTimeout, cfg.Run.ModelTimeout)
	assert.Equal(t, DefaultQueryMaxRows, cfg.Query.MaxRows)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
models_dir: transforms
log_level: debug
target:
  type: duckdb
  database: warehouse.duckdb
ingest:
  sample_rows: 250
  attempt_timeout: 10s
  replace_policy: fail
query:
  max_rows: 500
`)

	cfg, err := Load(dir, nil)
	require.NoError(t, err)

	assert.Equal(t, "transforms", cfg.ModelsDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "warehouse.duckdb", cfg.Target.Database)
	assert.Equal(t, 250, cfg.Ingest.SampleRows)
	assert.Equal(t, 10*time.Second, cfg.Ingest.AttemptTimeout)
	assert.Equal(t, "fail", cfg.Ingest.ReplacePolicy)
	assert.Equal(t, 500, cfg.Query.MaxRows)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "log_level: info\ningest:\n  sample_rows: 100\n")

	t.Setenv("QUERYVERSE_LOG_LEVEL", "warn")
	t.Setenv("QUERYVERSE_INGEST__SAMPLE_ROWS", "42")

	cfg, err := Load(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 42, cfg.Ingest.SampleRows)
}

func TestLoadUnknownTarget(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "target:\n  type: oracle\n")

	_, err := Load(dir, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "log_level: info\n")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	assert.Equal(t, root, FindProjectRoot(nested))
	assert.Equal(t, "", FindProjectRoot(t.TempDir()))
}
