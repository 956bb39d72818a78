package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportThenLoadRoundTrips(t *testing.T) {
	cfg := Default()
	cfg.EnableSemanticSearch = true
	repos := []PortableRepo{
		{Type: "remote", URL: "https://github.com/acme/widgets", Branch: "main"},
		{Type: "local", Path: "/home/user/notes"},
	}

	doc := Export(cfg, repos)
	path := filepath.Join(t.TempDir(), "export.yaml")
	require.NoError(t, doc.SaveTo(path))

	loaded, err := LoadPortable(path)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Version)
	assert.Equal(t, repos, loaded.Repositories)
	assert.Equal(t, "true", loaded.Settings["enable_semantic_search"])
}

func TestLoadPortableRejectsUnsupportedVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	doc := &Portable{Version: 2, Settings: map[string]string{}}
	require.NoError(t, doc.SaveTo(path))

	_, err := LoadPortable(path)
	assert.Error(t, err)
}

func TestLoadPortableMissingFile(t *testing.T) {
	_, err := LoadPortable(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestMergePrefersExistingSettingsAndDedupesRepos(t *testing.T) {
	existing := Default()
	existing.MaxFileSizeMB = 42
	existingRepos := []PortableRepo{
		{Type: "remote", URL: "https://github.com/acme/widgets", Branch: "main"},
	}

	incoming := &Portable{
		Version: 1,
		Settings: map[string]string{
			"max_file_size_mb": "5",
		},
		Repositories: []PortableRepo{
			{Type: "remote", URL: "https://github.com/acme/widgets", Branch: "main"}, // duplicate
			{Type: "remote", URL: "https://github.com/acme/gizmos", Branch: "main"},
		},
	}

	merged, repos := Merge(existing, existingRepos, incoming)
	assert.Equal(t, 42, merged.MaxFileSizeMB, "existing settings win over incoming")
	assert.Len(t, repos, 2, "duplicate (url, branch) pair is not appended twice")
}
