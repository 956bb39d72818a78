package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestRemoveRepositoryCascadesEveryRow covers spec.md §8 invariant 3:
// removing a repository leaves no rows of that repository anywhere,
// which depends on PRAGMA foreign_keys being enabled on the connection.
func TestRemoveRepositoryCascadesEveryRow(t *testing.T) {
	ctx := context.Background()
	st, err := Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	repoID, err := st.UpsertRepository(ctx, &Repository{
		RootPath:   "/repo",
		Name:       "repo",
		Status:     StatusReady,
		SourceKind: SourceLocal,
	})
	require.NoError(t, err)

	batch, err := st.BeginBatch(ctx)
	require.NoError(t, err)

	f := &File{RepoID: repoID, RelPath: "a.md", Hash: "h1", Size: 5, MTime: time.Unix(1, 0)}
	require.NoError(t, batch.UpsertFile(f, "hello"))
	require.NoError(t, batch.UpsertMarkdownMeta(f.ID, "title", []string{"tag1"}, []string{"other"}, nil))
	require.NoError(t, batch.Commit())

	var fileCount, contentCount, tagCount, linkCount, metaCount int
	require.NoError(t, st.db.QueryRow(`SELECT count(*) FROM files`).Scan(&fileCount))
	require.NoError(t, st.db.QueryRow(`SELECT count(*) FROM contents`).Scan(&contentCount))
	require.NoError(t, st.db.QueryRow(`SELECT count(*) FROM tags`).Scan(&tagCount))
	require.NoError(t, st.db.QueryRow(`SELECT count(*) FROM links`).Scan(&linkCount))
	require.NoError(t, st.db.QueryRow(`SELECT count(*) FROM markdown_meta`).Scan(&metaCount))
	require.Equal(t, 1, fileCount)
	require.Equal(t, 1, contentCount)
	require.Equal(t, 1, tagCount)
	require.Equal(t, 1, linkCount)
	require.Equal(t, 1, metaCount)

	require.NoError(t, st.RemoveRepository(ctx, repoID))

	require.NoError(t, st.db.QueryRow(`SELECT count(*) FROM files`).Scan(&fileCount))
	require.NoError(t, st.db.QueryRow(`SELECT count(*) FROM contents`).Scan(&contentCount))
	require.NoError(t, st.db.QueryRow(`SELECT count(*) FROM tags`).Scan(&tagCount))
	require.NoError(t, st.db.QueryRow(`SELECT count(*) FROM links`).Scan(&linkCount))
	require.NoError(t, st.db.QueryRow(`SELECT count(*) FROM markdown_meta`).Scan(&metaCount))
	require.Zero(t, fileCount)
	require.Zero(t, contentCount)
	require.Zero(t, tagCount)
	require.Zero(t, linkCount)
	require.Zero(t, metaCount)
}
