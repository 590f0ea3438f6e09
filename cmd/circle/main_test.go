package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemstone08/circle/internal/config"
	"github.com/gemstone08/circle/internal/db"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func TestFlagDefaults(t *testing.T) {
	assert.Equal(t, ":8000", *listen)
	assert.Equal(t, "", *configFile)
	assert.Equal(t, "", *dbPath)
	assert.False(t, *noDB)
	assert.False(t, *showVersion)
}

func TestLoadConfigLayering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "circle.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"target_radius": 120, "score_slope": 150, "db_path": "file.db"}`), 0o644))

	cfg, err := loadConfig(path, "", env(map[string]string{config.EnvTargetRadius: "140"}))
	require.NoError(t, err)
	assert.Equal(t, 140.0, cfg.GetTargetRadius(), "environment overrides file")
	assert.Equal(t, 150.0, cfg.GetScoreSlope())
	assert.Equal(t, "file.db", cfg.GetDBPath())

	cfg, err = loadConfig(path, "flag.db", env(map[string]string{config.EnvDBPath: "env.db"}))
	require.NoError(t, err)
	assert.Equal(t, "flag.db", cfg.GetDBPath(), "flag overrides environment")
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("", "", env(nil))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultTargetRadius, cfg.GetTargetRadius())
	assert.Equal(t, config.DefaultDBPath, cfg.GetDBPath())
}

func TestLoadConfigCheckedInDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join("..", "..", config.DefaultConfigPath), "", env(nil))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultTargetRadius, cfg.GetTargetRadius())
	assert.Equal(t, config.DefaultScoreSlope, cfg.GetScoreSlope())
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := loadConfig("", "", env(map[string]string{config.EnvScoreSlope: "steep"}))
	assert.Error(t, err)

	_, err = loadConfig("", "", env(map[string]string{config.EnvTargetRadius: "NaN"}))
	assert.ErrorContains(t, err, "must be finite")

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.json"), "", env(nil))
	assert.Error(t, err)
}

func TestAppenders(t *testing.T) {
	cfg, err := loadConfig("", "", env(nil))
	require.NoError(t, err)
	assert.Empty(t, appenders(cfg, nil))

	store, err := db.NewDB(filepath.Join(t.TempDir(), "circle.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	assert.Len(t, appenders(cfg, store), 1)

	cfg, err = loadConfig("", "", env(map[string]string{
		config.EnvSheetEnabled: "TRUE",
		config.EnvSheetID:      "sheet-123",
	}))
	require.NoError(t, err)
	assert.Len(t, appenders(cfg, store), 2)
}
