package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestUpsertFileChangedKeepsCorrectID covers a reindex of a Changed file: the
// ON CONFLICT(repo_id, rel_path) DO UPDATE path must not rely on
// last_insert_rowid() (which SQLite does not update on an UPDATE-only
// statement) and must write the new content under the same file's id rather
// than whatever row an earlier INSERT on the connection happened to leave
// behind.
func TestUpsertFileChangedKeepsCorrectID(t *testing.T) {
	ctx := context.Background()
	st, err := Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	repoID, err := st.UpsertRepository(ctx, &Repository{
		RootPath: "/repo", Name: "repo", Status: StatusReady, SourceKind: SourceLocal,
	})
	require.NoError(t, err)

	batch, err := st.BeginBatch(ctx)
	require.NoError(t, err)
	a := &File{RepoID: repoID, RelPath: "a.go", Hash: "ha1", Size: 5, MTime: time.Unix(1, 0)}
	require.NoError(t, batch.UpsertFile(a, "alpha original"))
	b := &File{RepoID: repoID, RelPath: "b.go", Hash: "hb1", Size: 5, MTime: time.Unix(1, 0)}
	require.NoError(t, batch.UpsertFile(b, "bravo original"))
	require.NoError(t, batch.Commit())

	aID, bID := a.ID, b.ID
	require.NotZero(t, aID)
	require.NotZero(t, bID)
	require.NotEqual(t, aID, bID)

	// Reindex "a.go" as Changed: a single UPDATE statement, no INSERT, on
	// this connection.
	batch2, err := st.BeginBatch(ctx)
	require.NoError(t, err)
	aChanged := &File{RepoID: repoID, RelPath: "a.go", Hash: "ha2", Size: 9, MTime: time.Unix(2, 0)}
	require.NoError(t, batch2.UpsertFile(aChanged, "alpha updated"))
	require.NoError(t, batch2.Commit())

	require.Equal(t, aID, aChanged.ID, "UpsertFile must resolve the existing row's id on the update path")

	var aText, bText string
	require.NoError(t, st.db.QueryRow(`SELECT text FROM contents WHERE file_id = ?`, aID).Scan(&aText))
	require.NoError(t, st.db.QueryRow(`SELECT text FROM contents WHERE file_id = ?`, bID).Scan(&bText))
	require.Equal(t, "alpha updated", aText)
	require.Equal(t, "bravo original", bText, "reindexing a.go must not corrupt b.go's content")

	var aHash string
	require.NoError(t, st.db.QueryRow(`SELECT hash FROM files WHERE id = ?`, aID).Scan(&aHash))
	require.Equal(t, "ha2", aHash)
}

// TestDeleteFilesRemovesContentsRow covers spec.md §8 invariant 1: contents
// is an FTS5 virtual table, so ON DELETE CASCADE from files cannot remove
// its row — DeleteFiles must do so explicitly or it leaks an orphan row
// forever.
func TestDeleteFilesRemovesContentsRow(t *testing.T) {
	ctx := context.Background()
	st, err := Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	repoID, err := st.UpsertRepository(ctx, &Repository{
		RootPath: "/repo", Name: "repo", Status: StatusReady, SourceKind: SourceLocal,
	})
	require.NoError(t, err)

	batch, err := st.BeginBatch(ctx)
	require.NoError(t, err)
	f := &File{RepoID: repoID, RelPath: "a.md", Hash: "h1", Size: 5, MTime: time.Unix(1, 0)}
	require.NoError(t, batch.UpsertFile(f, "hello"))
	require.NoError(t, batch.Commit())

	var contentCount int
	require.NoError(t, st.db.QueryRow(`SELECT count(*) FROM contents`).Scan(&contentCount))
	require.Equal(t, 1, contentCount)

	batch2, err := st.BeginBatch(ctx)
	require.NoError(t, err)
	require.NoError(t, batch2.DeleteFiles(repoID, []string{"a.md"}))
	require.NoError(t, batch2.Commit())

	require.NoError(t, st.db.QueryRow(`SELECT count(*) FROM contents`).Scan(&contentCount))
	require.Zero(t, contentCount, "DeleteFiles left an orphan contents row")
}
