package store

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/kdex-dev/kdex/internal/kdexerr"
)

// Batch is a scoped write transaction (spec.md §4.1 "begin_batch() /
// commit_batch()"). The indexer commits in batches of batch_size files
// (default 100) to amortize fsync (spec.md §4.1).
type Batch struct {
	store *Store
	ctx   context.Context
}

// BeginBatch opens a new write transaction scoped to the returned Batch.
// Callers must call Commit or Rollback exactly once.
func (s *Store) BeginBatch(ctx context.Context) (*Batch, error) {
	s.mu.Lock()
	err := withRetry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		s.batchTx = tx
		return nil
	})
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	return &Batch{store: s, ctx: ctx}, nil
}

// Commit commits the batch's transaction and releases the store's write
// lock.
func (b *Batch) Commit() error {
	defer b.store.mu.Unlock()
	tx := b.store.batchTx
	b.store.batchTx = nil
	if tx == nil {
		return nil
	}
	if err := tx.Commit(); err != nil {
		return kdexerr.Wrap(kdexerr.Internal, "commit batch", err)
	}
	return nil
}

// Rollback aborts the batch's transaction and releases the store's write
// lock. Callers call exactly one of Commit/Rollback: both release the
// lock, so Rollback after Commit (even a failed one) unlocks it twice.
func (b *Batch) Rollback() error {
	defer b.store.mu.Unlock()
	tx := b.store.batchTx
	b.store.batchTx = nil
	if tx == nil {
		return nil
	}
	return tx.Rollback()
}

// UpsertFile inserts or replaces the file row and its FTS content row
// atomically (spec.md §4.1 "upsert_file"). normalizedText is the content
// row's indexed column.
func (b *Batch) UpsertFile(f *File, normalizedText string) error {
	tx := b.store.batchTx
	if _, err := tx.ExecContext(b.ctx, `
		INSERT INTO files (repo_id, rel_path, hash, size, mtime, lang)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(repo_id, rel_path) DO UPDATE SET
			hash=excluded.hash, size=excluded.size, mtime=excluded.mtime, lang=excluded.lang
	`, f.RepoID, f.RelPath, f.Hash, f.Size, f.MTime.UnixNano(), f.Language); err != nil {
		return err
	}

	// res.LastInsertId() is unreliable here: on the ON CONFLICT...DO UPDATE
	// path (every Changed file during an incremental reindex) no row is
	// inserted, so SQLite leaves last_insert_rowid() at whatever the
	// previous INSERT on this connection touched — not this file. Always
	// look the id up explicitly instead of trusting it.
	var id int64
	row := tx.QueryRowContext(b.ctx, `SELECT id FROM files WHERE repo_id=? AND rel_path=?`, f.RepoID, f.RelPath)
	if err := row.Scan(&id); err != nil {
		return err
	}
	f.ID = id

	if _, err := tx.ExecContext(b.ctx, `DELETE FROM contents WHERE file_id = ?`, id); err != nil {
		return err
	}
	_, err := tx.ExecContext(b.ctx, `INSERT INTO contents (text, file_id) VALUES (?, ?)`, normalizedText, id)
	return err
}

// TouchMTime updates only a file's stored mtime, for the "suspect" case
// where the content hash is unchanged and a full re-index would be
// wasted work (spec.md §4.6 "update mtime only").
func (b *Batch) TouchMTime(repoID int64, relPath string, mtime int64) error {
	tx := b.store.batchTx
	_, err := tx.ExecContext(b.ctx, `UPDATE files SET mtime = ? WHERE repo_id = ? AND rel_path = ?`,
		mtime, repoID, relPath)
	return err
}

// UpsertMarkdownMeta replaces the markdown_meta, tags, and links rows for
// a file, JSON-serializing title/tags/links/headings per spec.md §3.
func (b *Batch) UpsertMarkdownMeta(fileID int64, title string, tags, links []string, headings any) error {
	tx := b.store.batchTx

	tagsJSON, _ := json.Marshal(tags)
	linksJSON, _ := json.Marshal(links)
	headingsJSON, _ := json.Marshal(headings)

	if _, err := tx.ExecContext(b.ctx, `
		INSERT INTO markdown_meta (file_id, title, tags_json, links_json, headings_json)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(file_id) DO UPDATE SET
			title=excluded.title, tags_json=excluded.tags_json,
			links_json=excluded.links_json, headings_json=excluded.headings_json
	`, fileID, title, string(tagsJSON), string(linksJSON), string(headingsJSON)); err != nil {
		return err
	}

	if _, err := tx.ExecContext(b.ctx, `DELETE FROM tags WHERE file_id = ?`, fileID); err != nil {
		return err
	}
	for _, t := range tags {
		if _, err := tx.ExecContext(b.ctx, `INSERT INTO tags (file_id, tag) VALUES (?, ?)`, fileID, t); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(b.ctx, `DELETE FROM links WHERE source_file_id = ?`, fileID); err != nil {
		return err
	}
	for _, l := range links {
		if _, err := tx.ExecContext(b.ctx, `INSERT INTO links (source_file_id, target_stem) VALUES (?, ?)`, fileID, l); err != nil {
			return err
		}
	}
	return nil
}

// ChunkWrite is one embedding chunk pending storage (spec.md §4.1
// "store_chunks").
type ChunkWrite struct {
	Ordinal int
	Start   int
	End     int
	Text    string
	Vector  []float32
}

// StoreChunks replaces every embedding row for fileID with the provided
// chunks, and (when vectors are present) upserts them into the vector
// store keyed by the chunk's SQLite id.
func (b *Batch) StoreChunks(fileID int64, chunks []ChunkWrite) error {
	tx := b.store.batchTx

	rows, err := tx.QueryContext(b.ctx, `SELECT id FROM embeddings WHERE file_id = ?`, fileID)
	if err != nil {
		return err
	}
	var oldIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		oldIDs = append(oldIDs, id)
	}
	rows.Close()

	if _, err := tx.ExecContext(b.ctx, `DELETE FROM embeddings WHERE file_id = ?`, fileID); err != nil {
		return err
	}
	if b.store.vector != nil && len(oldIDs) > 0 {
		_ = b.store.vector.Remove(stringifyIDs(oldIDs))
	}

	var newIDs []string
	var newVecs [][]float32
	for _, c := range chunks {
		vecBytes := packVector(c.Vector)
		res, err := tx.ExecContext(b.ctx, `
			INSERT INTO embeddings (file_id, ordinal, start_off, end_off, text, vector)
			VALUES (?, ?, ?, ?, ?, ?)`, fileID, c.Ordinal, c.Start, c.End, c.Text, vecBytes)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		if len(c.Vector) > 0 {
			newIDs = append(newIDs, idToString(id))
			newVecs = append(newVecs, c.Vector)
		}
	}
	if b.store.vector != nil && len(newIDs) > 0 {
		return b.store.vector.Add(b.ctx, newIDs, newVecs)
	}
	return nil
}

// DeleteFiles cascades deletion of the given relative paths (and their
// content/meta/tags/links/embeddings/vectors) within repoID.
func (b *Batch) DeleteFiles(repoID int64, relPaths []string) error {
	tx := b.store.batchTx
	for _, rel := range relPaths {
		var fileID int64
		row := tx.QueryRowContext(b.ctx, `SELECT id FROM files WHERE repo_id=? AND rel_path=?`, repoID, rel)
		if err := row.Scan(&fileID); err != nil {
			continue
		}

		chunkRows, err := tx.QueryContext(b.ctx, `SELECT id FROM embeddings WHERE file_id = ?`, fileID)
		if err != nil {
			return err
		}
		var ids []int64
		for chunkRows.Next() {
			var id int64
			if err := chunkRows.Scan(&id); err != nil {
				chunkRows.Close()
				return err
			}
			ids = append(ids, id)
		}
		chunkRows.Close()

		// contents is an FTS5 virtual table: ON DELETE CASCADE on files
		// cannot reach it, so its row must be removed explicitly or it
		// survives the file's deletion (spec.md §8 invariant 1).
		if _, err := tx.ExecContext(b.ctx, `DELETE FROM contents WHERE file_id = ?`, fileID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(b.ctx, `DELETE FROM files WHERE id = ?`, fileID); err != nil {
			return err
		}
		if b.store.vector != nil && len(ids) > 0 {
			_ = b.store.vector.Remove(stringifyIDs(ids))
		}
	}
	return nil
}

// SetState upserts a kv_state row (checkpointing, schema bookkeeping).
func (b *Batch) SetState(key, value string) error {
	tx := b.store.batchTx
	_, err := tx.ExecContext(b.ctx, `
		INSERT INTO kv_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value`, key, value)
	return err
}

func idToString(id int64) string {
	return strconv.FormatInt(id, 10)
}
