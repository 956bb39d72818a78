package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdex-dev/kdex/internal/store"
)

func TestFuseRRFWorkedExample(t *testing.T) {
	// spec.md §8 scenario 4: lexical best match is file A, semantic best
	// match is file B; both should precede a third file and score 1/61.
	lexical := []store.LexicalHit{
		{FileID: 1, RelPath: "a.go"},
		{FileID: 3, RelPath: "c.go"},
	}
	vector := []store.VectorHit{
		{FileID: 2, RelPath: "b.go"},
	}

	results := fuseRRF(lexical, vector)
	require.Len(t, results, 3)

	byID := map[int64]Result{}
	for _, r := range results {
		byID[r.FileID] = r
	}

	assert.InDelta(t, 1.0/61.0, byID[1].Score, 1e-9)
	assert.InDelta(t, 1.0/61.0, byID[2].Score, 1e-9)
	// file 3 appears only second in the lexical list: 1/62
	assert.InDelta(t, 1.0/62.0, byID[3].Score, 1e-9)

	// A and B (1/61 each) outrank C (lower combined score).
	assert.Less(t, byID[3].Score, byID[1].Score)
}

func TestFuseRRFAbsentFromBothListsNeverAppears(t *testing.T) {
	results := fuseRRF(nil, nil)
	assert.Empty(t, results)
}

func TestFuseRRFDedupesVectorHitsByFile(t *testing.T) {
	vector := []store.VectorHit{
		{FileID: 5, RelPath: "x.go", Score: 0.9},
		{FileID: 5, RelPath: "x.go", Score: 0.2}, // second chunk of the same file
	}
	results := fuseRRF(nil, vector)
	require.Len(t, results, 1)
	assert.Equal(t, int64(5), results[0].FileID)
}
