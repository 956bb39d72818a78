package store

import (
	"context"
	"path"
	"strings"
	"time"
)

// GetFilePaths returns every (rel_path, hash, size, mtime) stamp for the
// given repo, used by the indexer's incremental diff pass (spec.md §4.6).
func (s *Store) GetFilePaths(ctx context.Context, repoID int64) ([]FileStamp, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT rel_path, size, mtime, hash FROM files WHERE repo_id = ?`, repoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FileStamp
	for rows.Next() {
		var fs FileStamp
		var mtimeNano int64
		if err := rows.Scan(&fs.RelPath, &fs.Size, &mtimeNano, &fs.Hash); err != nil {
			return nil, err
		}
		fs.MTime = time.Unix(0, mtimeNano)
		out = append(out, fs)
	}
	return out, rows.Err()
}

// GetLinks returns every file that links to targetStem via a wiki-link
// (spec.md §4.4 "[[target]]"), joined with its owning repository.
func (s *Store) GetLinks(ctx context.Context, targetStem string) ([]LexicalHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT f.id, f.repo_id, f.rel_path, f.lang
		FROM links l
		JOIN files f ON f.id = l.source_file_id
		WHERE l.target_stem = ?`, targetStem)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LexicalHit
	for rows.Next() {
		var h LexicalHit
		if err := rows.Scan(&h.FileID, &h.RepoID, &h.RelPath, &h.Language); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// GetOrphans returns every markdown file with no incoming wiki-links
// (spec.md §4.4 "orphan" report), across all repositories. The stem
// comparison happens in Go since it depends on wiki-link resolution
// rules (lowercased basename without extension, matching the lowercased
// stems stored in links), not a SQL string function.
func (s *Store) GetOrphans(ctx context.Context) ([]LexicalHit, error) {
	s.mu.RLock()

	targets := make(map[string]bool)
	trows, err := s.db.QueryContext(ctx, `SELECT DISTINCT target_stem FROM links`)
	if err != nil {
		s.mu.RUnlock()
		return nil, err
	}
	for trows.Next() {
		var stem string
		if err := trows.Scan(&stem); err != nil {
			trows.Close()
			s.mu.RUnlock()
			return nil, err
		}
		targets[stem] = true
	}
	trows.Close()

	rows, err := s.db.QueryContext(ctx, `
		SELECT f.id, f.repo_id, f.rel_path, f.lang
		FROM files f
		JOIN markdown_meta m ON m.file_id = f.id`)
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LexicalHit
	for rows.Next() {
		var h LexicalHit
		if err := rows.Scan(&h.FileID, &h.RepoID, &h.RelPath, &h.Language); err != nil {
			return nil, err
		}
		stem := strings.ToLower(strings.TrimSuffix(path.Base(h.RelPath), path.Ext(h.RelPath)))
		if !targets[stem] {
			out = append(out, h)
		}
	}
	return out, rows.Err()
}

// GetStats summarizes the store for `kdex stats` (spec.md §6).
func (s *Store) GetStats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st Stats
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM repositories`)
	if err := row.Scan(&st.RepoCount); err != nil {
		return st, err
	}
	row = s.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(size), 0) FROM files`)
	if err := row.Scan(&st.FileCount, &st.TotalBytes); err != nil {
		return st, err
	}
	row = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings`)
	if err := row.Scan(&st.ChunkCount); err != nil {
		return st, err
	}
	return st, nil
}
