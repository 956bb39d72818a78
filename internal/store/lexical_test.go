package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestLexicalSearchSnippetMarkers covers spec.md §8 scenario 2: indexing a
// single file containing "fn authenticate(user)" and searching for
// "authenticate" returns exactly one result whose snippet contains the
// literal marker-bracketed substring ">>>authenticate<<<".
func TestLexicalSearchSnippetMarkers(t *testing.T) {
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
	f := &File{RepoID: repoID, RelPath: "auth.rs", Hash: "h1", Size: 22, MTime: time.Unix(1, 0), Language: "rust"}
	require.NoError(t, batch.UpsertFile(f, "fn authenticate(user)"))
	require.NoError(t, batch.Commit())

	hits, err := st.LexicalSearch(ctx, "authenticate", Filters{}, 20, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Contains(t, hits[0].Snippet, ">>>authenticate<<<")
}

// TestLexicalSearchEmptyQuery covers spec.md §8 scenario 1: search("")
// returns a typed error, not an empty result.
func TestLexicalSearchEmptyQuery(t *testing.T) {
	ctx := context.Background()
	st, err := Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	_, err = st.LexicalSearch(ctx, "", Filters{}, 20, 0)
	require.Error(t, err)
}

// TestLexicalSearchFilterIsSubset covers spec.md §8 invariant 4:
// lexical_search(q) is a superset of lexical_search(q, filter) for any
// conjunctive filter.
func TestLexicalSearchFilterIsSubset(t *testing.T) {
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
	f1 := &File{RepoID: repoID, RelPath: "a.rs", Hash: "h1", Size: 10, MTime: time.Unix(1, 0), Language: "rust"}
	require.NoError(t, batch.UpsertFile(f1, "widget factory pattern"))
	f2 := &File{RepoID: repoID, RelPath: "b.py", Hash: "h2", Size: 10, MTime: time.Unix(1, 0), Language: "python"}
	require.NoError(t, batch.UpsertFile(f2, "widget registry"))
	require.NoError(t, batch.Commit())

	all, err := st.LexicalSearch(ctx, "widget", Filters{}, 20, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)

	filtered, err := st.LexicalSearch(ctx, "widget", Filters{Language: "rust"}, 20, 0)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	require.Equal(t, "a.rs", filtered[0].RelPath)
}
