package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "streetmatch.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 2017, cfg.Tiger.Year)
	assert.Equal(t, 4, cfg.Tiger.Concurrency)
	assert.InDelta(t, 2.0, cfg.Tiger.RequestsPerSec, 0.001)
	assert.False(t, cfg.Tiger.UseFTP)
	assert.InDelta(t, 0.5, cfg.Xwalk.NameCutoff, 0.001)
	assert.True(t, cfg.Xwalk.RoadsOnly)
	assert.Equal(t, 4, cfg.Match.Workers)
	assert.Equal(t, "euclidean", cfg.Walk.Metric)
	assert.EqualValues(t, 0, cfg.Walk.Seed)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chTempDir(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/streetmatch
tiger:
  year: 2020
  counties: ["08031", "08005"]
walk:
  metric: mahalanobis
  seed: 42
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/streetmatch", cfg.Store.DatabaseURL)
	assert.Equal(t, 2020, cfg.Tiger.Year)
	assert.Equal(t, []string{"08031", "08005"}, cfg.Tiger.Counties)
	assert.Equal(t, "mahalanobis", cfg.Walk.Metric)
	assert.EqualValues(t, 42, cfg.Walk.Seed)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Defaults still apply for untouched sections.
	assert.Equal(t, 4, cfg.Match.Workers)
	assert.InDelta(t, 0.5, cfg.Xwalk.NameCutoff, 0.001)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))

	err := InitLogger(LogConfig{Level: "not-a-level", Format: "json"})
	assert.Error(t, err)
}
