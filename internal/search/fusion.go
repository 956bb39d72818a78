package search

import (
	"sort"

	"github.com/kdex-dev/kdex/internal/store"
)

// rrfK is the Reciprocal Rank Fusion smoothing constant (spec.md §4.7
// "k = 60").
const rrfK = 60

type fusedEntry struct {
	fileID  int64
	repoID  int64
	relPath string
	lang    string
	snippet string
	score   float64
}

// fuseRRF combines independently-ranked lexical and vector result lists by
// Reciprocal Rank Fusion (spec.md §4.7, §8 invariant 5): for each file
// present in either list, score = Σ 1/(k+rank_i) over only the lists it
// appears in — there is no contribution for a list a file is absent from,
// and the result is left unweighted and unnormalized so the literal
// worked example (a file appearing only at rank 1 of one list scores
// exactly 1/61) holds.
func fuseRRF(lexical []store.LexicalHit, vector []store.VectorHit) []Result {
	byFile := make(map[int64]*fusedEntry)
	var order []int64

	for rank, h := range lexical {
		e, ok := byFile[h.FileID]
		if !ok {
			e = &fusedEntry{fileID: h.FileID, repoID: h.RepoID, relPath: h.RelPath, lang: h.Language, snippet: h.Snippet}
			byFile[h.FileID] = e
			order = append(order, h.FileID)
		}
		e.score += 1.0 / float64(rrfK+rank+1)
	}

	// Vector results are file+chunk pairs; keep only the best (first,
	// i.e. highest-similarity) chunk per file and rank files by the
	// position of that best chunk (spec.md §4.7 "merge duplicate files
	// keeping the best chunk").
	seen := make(map[int64]bool)
	vecRank := 0
	for _, v := range vector {
		if seen[v.FileID] {
			continue
		}
		seen[v.FileID] = true
		vecRank++

		e, ok := byFile[v.FileID]
		if !ok {
			e = &fusedEntry{fileID: v.FileID, repoID: v.RepoID, relPath: v.RelPath, lang: v.Language, snippet: v.Text}
			byFile[v.FileID] = e
			order = append(order, v.FileID)
		}
		e.score += 1.0 / float64(rrfK+vecRank)
	}

	results := make([]Result, 0, len(order))
	for _, id := range order {
		e := byFile[id]
		results = append(results, Result{
			FileID:   e.fileID,
			RepoID:   e.repoID,
			RelPath:  e.relPath,
			Language: e.lang,
			Snippet:  e.snippet,
			Score:    e.score,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].FileID < results[j].FileID
	})
	return results
}
