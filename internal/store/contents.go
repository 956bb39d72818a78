package store

import (
	"context"
	"database/sql"

	"github.com/kdex-dev/kdex/internal/kdexerr"
)

// ContentRow is one stored file's full text, used by search modes that
// need to stream raw content rather than query through FTS5 (regex).
type ContentRow struct {
	FileID   int64
	RepoID   int64
	RelPath  string
	Language string
	Text     string
}

// AllContents streams every indexed file's text under the given Filters,
// for search modes that scan content directly (spec.md §4.7 "stream
// candidate file text from the store").
func (s *Store) AllContents(ctx context.Context, filters Filters) ([]ContentRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	where, args := buildFilterClause(filters)
	sql := `
		SELECT f.id, f.repo_id, f.rel_path, f.lang, contents.text
		FROM contents
		JOIN files f ON f.id = contents.file_id
		JOIN repositories r ON r.id = f.repo_id
		WHERE 1=1` + where

	rows, err := s.db.QueryContext(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ContentRow
	for rows.Next() {
		var c ContentRow
		if err := rows.Scan(&c.FileID, &c.RepoID, &c.RelPath, &c.Language, &c.Text); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetContentByPath looks up a single file's full text by repo-relative
// path, for the MCP `get_file`/`get_context` tool contracts (spec.md §6).
// A bare path may match more than one repository; the first match (by
// repository name) wins.
func (s *Store) GetContentByPath(ctx context.Context, relPath string) (*ContentRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT f.id, f.repo_id, f.rel_path, f.lang, contents.text
		FROM contents
		JOIN files f ON f.id = contents.file_id
		JOIN repositories r ON r.id = f.repo_id
		WHERE f.rel_path = ?
		ORDER BY r.name
		LIMIT 1`, relPath)

	var c ContentRow
	if err := row.Scan(&c.FileID, &c.RepoID, &c.RelPath, &c.Language, &c.Text); err != nil {
		if err == sql.ErrNoRows {
			return nil, kdexerr.New(kdexerr.PathNotFound, "no indexed file at "+relPath).WithPath(relPath)
		}
		return nil, err
	}
	return &c, nil
}
