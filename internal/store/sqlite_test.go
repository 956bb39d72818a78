package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestUpsertRepositoryReturnsSameIDOnReindex covers the ON CONFLICT(root_path)
// DO UPDATE path hit by every `add`/reindex of an existing root:
// last_insert_rowid() does not reflect an UPDATE-only statement, so the id
// must be looked up rather than trusted from the Exec result.
func TestUpsertRepositoryReturnsSameIDOnReindex(t *testing.T) {
	ctx := context.Background()
	st, err := Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	id1, err := st.UpsertRepository(ctx, &Repository{
		RootPath: "/repo", Name: "repo", Status: StatusReady, SourceKind: SourceLocal,
	})
	require.NoError(t, err)
	require.NotZero(t, id1)

	// Upsert an unrelated second repository in between, so the connection's
	// last_insert_rowid() is left pointing at a different row.
	_, err = st.UpsertRepository(ctx, &Repository{
		RootPath: "/other", Name: "other", Status: StatusReady, SourceKind: SourceLocal,
	})
	require.NoError(t, err)

	id2, err := st.UpsertRepository(ctx, &Repository{
		RootPath: "/repo", Name: "repo-renamed", Status: StatusIndexing, SourceKind: SourceLocal,
	})
	require.NoError(t, err)
	require.Equal(t, id1, id2, "reindexing an existing root must return the same repository id")

	got, err := st.GetRepositoryByID(ctx, id1)
	require.NoError(t, err)
	require.Equal(t, "repo-renamed", got.Name)
}
