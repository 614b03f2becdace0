package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { os.Chdir(wd) }) //nolint:errcheck

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "trends.db", cfg.Store.Path)
	assert.Equal(t, "US", cfg.Collect.Geo)
	assert.Equal(t, 90, cfg.Collect.Days)
	assert.Equal(t, 30, cfg.Collect.TimeoutSecs)
	assert.Equal(t, 1.0, cfg.Collect.RatePerSec)
	assert.Equal(t, 1, cfg.Collect.Burst)
	assert.Equal(t, 3, cfg.Collect.Retries)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_ConfigFile(t *testing.T) {
	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/trends
collect:
  geo: GB
  days: 30
server:
  port: 9000
`
	wd, err := os.Getwd()
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(dir+"/config.yaml", []byte(yaml), 0644))
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) }) //nolint:errcheck

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/trends", cfg.Store.DatabaseURL)
	assert.Equal(t, "GB", cfg.Collect.Geo)
	assert.Equal(t, 30, cfg.Collect.Days)
	assert.Equal(t, 9000, cfg.Server.Port)
	// Untouched sections keep their defaults.
	assert.Equal(t, "out", cfg.Output.Dir)
}

func TestLoad_EnvOverride(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { os.Chdir(wd) }) //nolint:errcheck

	t.Setenv("TRENDS_COLLECT_GEO", "DE")
	t.Setenv("TRENDS_OUTPUT_DIR", "/tmp/trends-out")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "DE", cfg.Collect.Geo)
	assert.Equal(t, "/tmp/trends-out", cfg.Output.Dir)
}

func TestStoreConfigDSN(t *testing.T) {
	sqlite := StoreConfig{Driver: "sqlite", Path: "trends.db", DatabaseURL: "ignored"}
	assert.Equal(t, "trends.db", sqlite.DSN())

	pg := StoreConfig{Driver: "postgres", DatabaseURL: "postgres://localhost/trends", Path: "ignored"}
	assert.Equal(t, "postgres://localhost/trends", pg.DSN())
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))

	err := InitLogger(LogConfig{Level: "shouting", Format: "json"})
	require.Error(t, err)
}
