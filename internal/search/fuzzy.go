package search

import (
	"context"
	"sort"
	"strings"

	"github.com/kdex-dev/kdex/internal/kdexerr"
	"github.com/kdex-dev/kdex/internal/store"
)

// defaultMinSimilarity is the fuzzy-mode similarity floor when the caller
// doesn't supply one (spec.md §4.7 "keep a configurable minimum
// similarity").
const defaultMinSimilarity = 0.7

// fuzzyPrefilterLimit bounds how many lexical candidates are pulled before
// rescoring, so a query with many loose token matches doesn't force a
// full-corpus Jaro-Winkler pass.
const fuzzyPrefilterLimit = 200

func (s *Searcher) fuzzy(ctx context.Context, query string, opts Options) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, kdexerr.New(kdexerr.EmptyQuery, "fuzzy search requires a non-empty query")
	}

	min := opts.MinSimilarity
	if min <= 0 {
		min = defaultMinSimilarity
	}

	// Prefilter lexically with the query terms OR'd together, since fuzzy
	// matching exists precisely to tolerate the typos a strict AND match
	// would reject.
	orQuery := strings.Join(strings.Fields(query), " OR ")
	hits, err := s.store.LexicalSearch(ctx, orQuery, opts.Filters, fuzzyPrefilterLimit, 0)
	if err != nil {
		if kdexerr.KindOf(err) == kdexerr.EmptyQuery {
			return nil, err
		}
		hits = nil
	}

	queryLower := strings.ToLower(query)
	type scored struct {
		hit store.LexicalHit
		sim float64
	}
	var candidates []scored
	for _, h := range hits {
		sim := jaroWinkler(queryLower, strings.ToLower(h.RelPath))
		if snipSim := jaroWinkler(queryLower, strings.ToLower(stripSnippetMarkers(h.Snippet))); snipSim > sim {
			sim = snipSim
		}
		if sim >= min {
			candidates = append(candidates, scored{hit: h, sim: sim})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].sim != candidates[j].sim {
			return candidates[i].sim > candidates[j].sim
		}
		return candidates[i].hit.FileID < candidates[j].hit.FileID
	})

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(candidates) {
		return []Result{}, nil
	}
	candidates = candidates[offset:]
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, Result{
			FileID:   c.hit.FileID,
			RepoID:   c.hit.RepoID,
			RelPath:  c.hit.RelPath,
			Language: c.hit.Language,
			Snippet:  c.hit.Snippet,
			Score:    c.sim,
		})
	}
	return out, nil
}

func stripSnippetMarkers(s string) string {
	s = strings.ReplaceAll(s, ">>>", "")
	s = strings.ReplaceAll(s, "<<<", "")
	return s
}

// jaroSimilarity computes the Jaro distance between two strings.
func jaroSimilarity(a, b string) float64 {
	r1, r2 := []rune(a), []rune(b)
	len1, len2 := len(r1), len(r2)
	if len1 == 0 && len2 == 0 {
		return 1
	}
	if len1 == 0 || len2 == 0 {
		return 0
	}

	matchDistance := len1
	if len2 > matchDistance {
		matchDistance = len2
	}
	matchDistance = matchDistance/2 - 1
	if matchDistance < 0 {
		matchDistance = 0
	}

	s1Matches := make([]bool, len1)
	s2Matches := make([]bool, len2)
	matches := 0
	for i := 0; i < len1; i++ {
		start := i - matchDistance
		if start < 0 {
			start = 0
		}
		end := i + matchDistance + 1
		if end > len2 {
			end = len2
		}
		for j := start; j < end; j++ {
			if s2Matches[j] || r1[i] != r2[j] {
				continue
			}
			s1Matches[i] = true
			s2Matches[j] = true
			matches++
			break
		}
	}
	if matches == 0 {
		return 0
	}

	transpositions := 0
	k := 0
	for i := 0; i < len1; i++ {
		if !s1Matches[i] {
			continue
		}
		for !s2Matches[k] {
			k++
		}
		if r1[i] != r2[k] {
			transpositions++
		}
		k++
	}

	m := float64(matches)
	return (m/float64(len1) + m/float64(len2) + (m-float64(transpositions)/2)/m) / 3
}

// jaroWinkler applies the Winkler common-prefix boost (max 4 runes) on top
// of the Jaro similarity.
func jaroWinkler(a, b string) float64 {
	jaro := jaroSimilarity(a, b)
	r1, r2 := []rune(a), []rune(b)
	const maxPrefix = 4
	const scaling = 0.1

	prefix := 0
	for prefix < maxPrefix && prefix < len(r1) && prefix < len(r2) && r1[prefix] == r2[prefix] {
		prefix++
	}
	return jaro + float64(prefix)*scaling*(1-jaro)
}
