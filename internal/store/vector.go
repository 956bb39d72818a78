package store

import (
	"context"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/kdex-dev/kdex/internal/kdexerr"
	"github.com/kdex-dev/kdex/internal/scanner"
)

func matchGlob(pattern, path string) (bool, error) {
	return doublestar.Match(pattern, path)
}

// VectorSearch runs a cosine nearest-neighbor query against the dense
// index and hydrates each hit with its owning file's repo/path and the
// chunk text, applying Filters after the HNSW search (spec.md §4.1
// "semantic" mode).
func (s *Store) VectorSearch(ctx context.Context, query []float32, filters Filters, limit, offset int) ([]VectorHit, error) {
	if s.vector == nil || s.vector.Len() == 0 {
		return nil, kdexerr.New(kdexerr.ModeUnavailable, "no embeddings are indexed yet").
			WithSuggestion("run `kdex index` with an embedder configured")
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	// Over-fetch before filtering since HNSW has no notion of Filters.
	raw, err := s.vector.Search(ctx, query, limit+offset+(limit+offset)*3+20)
	if err != nil {
		return nil, kdexerr.Wrap(kdexerr.Internal, "vector search", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]VectorHit, 0, limit+offset)
	for _, hit := range raw {
		row := s.db.QueryRowContext(ctx, `
			SELECT f.id, f.repo_id, f.rel_path, f.lang, e.text, r.root_path
			FROM embeddings e
			JOIN files f ON f.id = e.file_id
			JOIN repositories r ON r.id = f.repo_id
			WHERE e.id = ?`, hit.ChunkID)

		var fileID, repoID int64
		var relPath, lang, text, rootPath string
		if err := row.Scan(&fileID, &repoID, &relPath, &lang, &text, &rootPath); err != nil {
			continue // chunk vanished (deleted concurrently); skip rather than fail the query
		}
		if !matchesFilters(filters, rootPath, lang, relPath) {
			continue
		}
		if filters.Tag != "" {
			var exists int
			err := s.db.QueryRowContext(ctx,
				`SELECT 1 FROM tags WHERE file_id = ? AND tag = ? LIMIT 1`, fileID, filters.Tag).Scan(&exists)
			if err != nil {
				continue
			}
		}

		hit.FileID = fileID
		hit.RepoID = repoID
		hit.RelPath = relPath
		hit.Language = lang
		hit.Text = text
		out = append(out, hit)
		if len(out) >= limit+offset {
			break
		}
	}
	if offset >= len(out) {
		return []VectorHit{}, nil
	}
	return out[offset:], nil
}

func matchesFilters(f Filters, rootPath, lang, relPath string) bool {
	if f.RepoSubstring != "" && !strings.Contains(rootPath, f.RepoSubstring) {
		return false
	}
	if f.Language != "" && f.Language != lang {
		return false
	}
	if f.Extension != "" {
		ext := f.Extension
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if !strings.HasSuffix(relPath, ext) {
			return false
		}
	}
	if f.PathGlob != "" {
		ok, _ := matchGlob(f.PathGlob, relPath)
		if !ok {
			return false
		}
	}
	if f.TypeClass != "" && scanner.DetectType(lang) != scanner.Type(f.TypeClass) {
		return false
	}
	return true
}
