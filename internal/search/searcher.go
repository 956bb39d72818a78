package search

import (
	"context"
	"strings"
	"sync"

	"github.com/kdex-dev/kdex/internal/embedder"
	"github.com/kdex-dev/kdex/internal/kdexerr"
	"github.com/kdex-dev/kdex/internal/store"
)

// Searcher exposes the single `search(query, filters, mode, limit, offset)`
// operation described in spec.md §4.7, dispatching to one of five modes.
type Searcher struct {
	store *store.Store
	emb   *embedder.Embedder
}

// New builds a Searcher over the given store. emb may be nil if semantic
// mode will never be requested: semantic without an embedder returns
// ModeUnavailable, and hybrid without one returns lexical results only.
func New(st *store.Store, emb *embedder.Embedder) *Searcher {
	return &Searcher{store: st, emb: emb}
}

// Search dispatches query to the requested mode, defaulting to lexical
// when Mode is empty (spec.md §6 `default_search_mode`).
func (s *Searcher) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	switch opts.Mode {
	case "", ModeLexical:
		return s.lexical(ctx, query, opts)
	case ModeSemantic:
		return s.semantic(ctx, query, opts)
	case ModeHybrid:
		return s.hybrid(ctx, query, opts)
	case ModeFuzzy:
		return s.fuzzy(ctx, query, opts)
	case ModeRegex:
		return s.regex(ctx, query, opts)
	default:
		return nil, kdexerr.New(kdexerr.Internal, "unknown search mode: "+string(opts.Mode))
	}
}

func (s *Searcher) lexical(ctx context.Context, query string, opts Options) ([]Result, error) {
	hits, err := s.store.LexicalSearch(ctx, query, opts.Filters, limitOf(opts), opts.Offset)
	if err != nil {
		return nil, err
	}
	return lexicalHitsToResults(hits), nil
}

func (s *Searcher) semantic(ctx context.Context, query string, opts Options) ([]Result, error) {
	if s.emb == nil {
		return nil, kdexerr.New(kdexerr.ModeUnavailable, "no embedder configured").
			WithSuggestion("enable semantic search in the config and reindex")
	}
	if strings.TrimSpace(query) == "" {
		return nil, kdexerr.New(kdexerr.EmptyQuery, "semantic search requires a non-empty query")
	}
	vec, err := s.emb.EmbedQuery(ctx, query)
	if err != nil {
		return nil, kdexerr.Wrap(kdexerr.Internal, "embed query", err)
	}
	hits, err := s.store.VectorSearch(ctx, vec, opts.Filters, limitOf(opts), opts.Offset)
	if err != nil {
		return nil, err
	}
	return dedupeVectorHits(hits), nil
}

// hybrid runs lexical and semantic search concurrently, then fuses with
// Reciprocal Rank Fusion (spec.md §4.7). Each branch is fetched with a
// generous limit and no offset, so RRF ranks and the final page slice are
// computed after fusion rather than per-source.
func (s *Searcher) hybrid(ctx context.Context, query string, opts Options) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, kdexerr.New(kdexerr.EmptyQuery, "hybrid search requires a non-empty query")
	}

	fetchLimit := limitOf(opts) + opts.Offset
	if fetchLimit < 20 {
		fetchLimit = 20
	}

	var (
		wg      sync.WaitGroup
		lexHits []store.LexicalHit
		lexErr  error
		vecHits []store.VectorHit
		vecErr  error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		lexHits, lexErr = s.store.LexicalSearch(ctx, query, opts.Filters, fetchLimit, 0)
	}()

	if s.emb != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vec, err := s.emb.EmbedQuery(ctx, query)
			if err != nil {
				vecErr = kdexerr.Wrap(kdexerr.Internal, "embed query", err)
				return
			}
			vecHits, vecErr = s.store.VectorSearch(ctx, vec, opts.Filters, fetchLimit, 0)
		}()
	}
	wg.Wait()

	if lexErr != nil && kdexerr.KindOf(lexErr) == kdexerr.EmptyQuery {
		return nil, lexErr
	}
	if vecErr != nil && kdexerr.KindOf(vecErr) != kdexerr.ModeUnavailable {
		return nil, vecErr
	}
	// Any other lexical failure (an FTS5 query the engine rejects, for
	// instance) degrades to semantic-only when the vector branch returned a
	// result list; otherwise lexErr is reported.
	if lexErr != nil && vecHits == nil {
		return nil, lexErr
	}

	fused := fuseRRF(lexHits, vecHits)
	return paginate(fused, opts), nil
}

func limitOf(opts Options) int {
	if opts.Limit <= 0 {
		return 20
	}
	return opts.Limit
}

func paginate(results []Result, opts Options) []Result {
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(results) {
		return []Result{}
	}
	results = results[offset:]
	limit := limitOf(opts)
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

func lexicalHitsToResults(hits []store.LexicalHit) []Result {
	out := make([]Result, 0, len(hits))
	for _, h := range hits {
		out = append(out, Result{
			FileID:   h.FileID,
			RepoID:   h.RepoID,
			RelPath:  h.RelPath,
			Language: h.Language,
			Snippet:  h.Snippet,
			Score:    normalizeBM25(h.Rank),
		})
	}
	return out
}

// normalizeBM25 maps SQLite's bm25() rank (more negative = more relevant,
// 0 = no match) onto a [0,1) score where higher is more relevant
// (spec.md §4.1 "surfaces that as a normalized score").
func normalizeBM25(rank float64) float64 {
	if rank > 0 {
		rank = 0
	}
	return -rank / (1 - rank)
}

// dedupeVectorHits merges duplicate files in a vector result list, keeping
// the first (best, since HNSW returns nearest-first) chunk per file
// (spec.md §4.7 "merge duplicate files keeping the best chunk").
func dedupeVectorHits(hits []store.VectorHit) []Result {
	seen := make(map[int64]bool, len(hits))
	out := make([]Result, 0, len(hits))
	for _, h := range hits {
		if seen[h.FileID] {
			continue
		}
		seen[h.FileID] = true
		out = append(out, Result{
			FileID:   h.FileID,
			RepoID:   h.RepoID,
			RelPath:  h.RelPath,
			Language: h.Language,
			Snippet:  h.Text,
			Score:    float64(h.Score),
		})
	}
	return out
}
