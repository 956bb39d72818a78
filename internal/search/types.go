// Package search implements the Searcher component (spec.md §4.7): mode
// dispatch over lexical, semantic, hybrid, fuzzy, and regex search, with
// Reciprocal Rank Fusion for hybrid and Jaro-Winkler rescoring for fuzzy.
package search

import "github.com/kdex-dev/kdex/internal/store"

// Mode selects how a query is evaluated.
type Mode string

const (
	ModeLexical  Mode = "lexical"
	ModeSemantic Mode = "semantic"
	ModeHybrid   Mode = "hybrid"
	ModeFuzzy    Mode = "fuzzy"
	ModeRegex    Mode = "regex"
)

// Options configures a single search call.
type Options struct {
	Mode    Mode
	Filters store.Filters
	Limit   int
	Offset  int

	// MinSimilarity is the fuzzy-mode similarity floor (0-1). Zero means
	// the default.
	MinSimilarity float64

	// ContextLines is the number of lines of surrounding context a regex
	// match returns on either side.
	ContextLines int
}

// Result is one ranked hit, shaped to match the `search` MCP tool
// contract directly (spec.md §6: `{file, repo, snippet, line?, score}`).
type Result struct {
	FileID   int64
	RepoID   int64
	RelPath  string
	Language string
	Snippet  string
	Line     int // 1-indexed; 0 when not line-addressable (lexical/semantic)
	Score    float64
}
