package remote

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSpecOwnerRepoShorthand(t *testing.T) {
	spec, err := ResolveSpec("acme/widgets")
	require.NoError(t, err)
	assert.Equal(t, "acme", spec.Owner)
	assert.Equal(t, "widgets", spec.Repo)
	assert.Equal(t, "https://github.com/acme/widgets.git", spec.URL)
}

func TestResolveSpecHTTPSURL(t *testing.T) {
	spec, err := ResolveSpec("https://github.com/acme/widgets.git")
	require.NoError(t, err)
	assert.Equal(t, "acme", spec.Owner)
	assert.Equal(t, "widgets", spec.Repo)
}

func TestResolveSpecSSHURL(t *testing.T) {
	spec, err := ResolveSpec("git@github.com:acme/widgets.git")
	require.NoError(t, err)
	assert.Equal(t, "acme", spec.Owner)
	assert.Equal(t, "widgets", spec.Repo)
}

func TestResolveSpecRejectsEmpty(t *testing.T) {
	_, err := ResolveSpec("")
	assert.Error(t, err)
}

func TestResolveSpecRejectsMalformedShorthand(t *testing.T) {
	_, err := ResolveSpec("not-a-valid-spec")
	assert.Error(t, err)
}

func TestClonePath(t *testing.T) {
	got := ClonePath("/config/repos", Spec{Owner: "acme", Repo: "widgets"})
	assert.Equal(t, filepath.Join("/config/repos", "acme", "widgets"), got)
}

func TestRemoveDeletesCloneDirectory(t *testing.T) {
	dir := t.TempDir()
	clonePath := filepath.Join(dir, "acme", "widgets")
	require.NoError(t, os.MkdirAll(clonePath, 0o755))

	require.NoError(t, Remove(clonePath))

	_, err := os.Stat(clonePath)
	assert.True(t, os.IsNotExist(err))
}
