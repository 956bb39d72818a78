package store

import (
	"context"
	"strings"

	"github.com/kdex-dev/kdex/internal/kdexerr"
	"github.com/kdex-dev/kdex/internal/scanner"
)

// snippetTokens is the approximate excerpt length, in tokens, returned
// around each match (spec.md §4.1 "~64-token excerpt").
const snippetTokens = 64

// LexicalSearch runs a BM25-ranked FTS5 query, joined against repo/file
// metadata for the supplied Filters, returning results ordered by rank
// ascending (lower bm25() is more relevant). Grounded on the teacher's
// SQLiteBM25Index query path.
func (s *Store) LexicalSearch(ctx context.Context, query string, filters Filters, limit, offset int) ([]LexicalHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, kdexerr.New(kdexerr.EmptyQuery, "lexical search requires a non-empty query")
	}
	ftsQuery := toFTSQuery(query)
	if ftsQuery == "" {
		return nil, kdexerr.New(kdexerr.EmptyQuery, "query contained no searchable terms")
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	where, args := buildFilterClause(filters)
	sql := `
		SELECT f.id, f.repo_id, f.rel_path, f.lang, bm25(contents) AS rank,
			snippet(contents, 0, '>>>', '<<<', '...', ?) AS snip
		FROM contents
		JOIN files f ON f.id = contents.file_id
		JOIN repositories r ON r.id = f.repo_id
		WHERE contents MATCH ?` + where + `
		ORDER BY rank ASC
		LIMIT ? OFFSET ?`

	queryArgs := append([]any{snippetTokens, ftsQuery}, args...)
	queryArgs = append(queryArgs, limit, offset)

	rows, err := s.db.QueryContext(ctx, sql, queryArgs...)
	if err != nil {
		return nil, kdexerr.Wrap(kdexerr.Internal, "lexical search query", err)
	}
	defer rows.Close()

	var out []LexicalHit
	for rows.Next() {
		var h LexicalHit
		if err := rows.Scan(&h.FileID, &h.RepoID, &h.RelPath, &h.Language, &h.Rank, &h.Snippet); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// buildFilterClause renders Filters as a conjunctive SQL WHERE extension
// (spec.md §4.1 "Filters apply uniformly across all modes"), returning the
// clause (already prefixed with " AND ...") plus its bind arguments.
func buildFilterClause(f Filters) (string, []any) {
	var clauses []string
	var args []any

	if f.RepoSubstring != "" {
		clauses = append(clauses, "r.root_path LIKE ?")
		args = append(args, "%"+f.RepoSubstring+"%")
	}
	if f.Language != "" {
		clauses = append(clauses, "f.lang = ?")
		args = append(args, f.Language)
	}
	if f.Extension != "" {
		ext := f.Extension
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		clauses = append(clauses, "f.rel_path LIKE ?")
		args = append(args, "%"+ext)
	}
	if f.PathGlob != "" {
		clauses = append(clauses, "f.rel_path GLOB ?")
		args = append(args, f.PathGlob)
	}
	if f.Tag != "" {
		clauses = append(clauses, "EXISTS (SELECT 1 FROM tags t WHERE t.file_id = f.id AND t.tag = ?)")
		args = append(args, f.Tag)
	}
	if f.TypeClass != "" {
		langs := scanner.LanguagesForType(scanner.Type(f.TypeClass))
		if len(langs) == 0 {
			// An unrecognized class matches nothing, rather than silently
			// falling through to an unfiltered result set.
			clauses = append(clauses, "0 = 1")
		} else {
			placeholders := make([]string, len(langs))
			for i, lang := range langs {
				placeholders[i] = "?"
				args = append(args, lang)
			}
			clauses = append(clauses, "f.lang IN ("+strings.Join(placeholders, ", ")+")")
		}
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " AND " + strings.Join(clauses, " AND "), args
}
