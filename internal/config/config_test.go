package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("KDEX_CONFIG_DIR", dir)
	return dir
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 10, cfg.MaxFileSizeMB)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 500, cfg.WatcherDebounceMS)
	assert.False(t, cfg.EnableSemanticSearch)
	assert.Equal(t, "all-MiniLM-L6-v2", cfg.EmbeddingModel)
	assert.Equal(t, "lexical", cfg.DefaultSearchMode)
}

func TestDirHonorsEnvOverride(t *testing.T) {
	dir := withConfigDir(t)
	got, err := Dir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "kdex"), got)
}

func TestPathsAreUnderDir(t *testing.T) {
	dir := withConfigDir(t)

	path, err := Path()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "kdex", "config.toml"), path)

	storePath, err := StorePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "kdex", "index.db"), storePath)

	reposDir, err := ReposDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "kdex", "repos"), reposDir)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	withConfigDir(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	withConfigDir(t)

	cfg := Default()
	cfg.EnableSemanticSearch = true
	cfg.MaxFileSizeMB = 25
	cfg.DefaultSearchMode = "hybrid"
	require.NoError(t, Save(cfg))

	path, err := Path()
	require.NoError(t, err)
	_, statErr := os.Stat(path)
	require.NoError(t, statErr)

	loaded, err := Load()
	require.NoError(t, err)
	assert.True(t, loaded.EnableSemanticSearch)
	assert.Equal(t, 25, loaded.MaxFileSizeMB)
	assert.Equal(t, "hybrid", loaded.DefaultSearchMode)
}
