package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure-Go SQLite driver, no CGO

	"github.com/kdex-dev/kdex/internal/kdexerr"
)

// maxBusyBackoff is the ceiling on the exponential backoff retried against
// a locked store before surfacing StoreBusy (spec.md §4.1 "Failure").
const maxBusyBackoff = 30 * time.Second

// Store owns exclusive write access to the SQLite database file described
// in spec.md §6. Reads are concurrent; writes are serialized behind one
// writer connection (spec.md §4.1), grounded on the teacher's
// SQLiteBM25Index (WAL pragmas, single *sql.DB, SetMaxOpenConns(1)).
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	vector *HNSWStore

	batchTx *sql.Tx // set between begin_batch/commit_batch
}

// Open opens or creates the database at path, running migrations
// idempotently (spec.md §4.1 "open(path)").
func Open(path string) (*Store, error) {
	if path == "" {
		path = ":memory:"
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, kdexerr.Wrap(kdexerr.Internal, "create store directory", err)
		}
		if err := checkIntegrity(path); err != nil {
			return nil, err
		}
	}

	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, kdexerr.Wrap(kdexerr.Internal, "open sqlite database", err).WithPath(path)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// ON DELETE CASCADE throughout the schema is a no-op unless this pragma
	// is set on the connection; it is not reliably carried by the DSN query
	// string alone for every driver/path combination, so set it explicitly.
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, kdexerr.Wrap(kdexerr.Internal, "enable foreign keys", err).WithPath(path)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	vecPath := ""
	if path != ":memory:" {
		vecPath = path + ".hnsw"
	}
	vec, err := OpenHNSWStore(vecPath, VectorStoreConfig{Dimensions: 384})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, path: path, vector: vec}, nil
}

// Close releases the underlying database handle and flushes the vector
// store snapshot to disk.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vector != nil {
		_ = s.vector.Save()
	}
	return s.db.Close()
}

// checkIntegrity runs PRAGMA integrity_check against an existing database
// before opening for writes (spec.md §4.1 "StoreCorrupt").
func checkIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return kdexerr.Wrap(kdexerr.StoreCorrupt, "open for integrity check", err).WithPath(path)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return kdexerr.Wrap(kdexerr.StoreCorrupt, "integrity check failed", err).
			WithPath(path).WithSuggestion("rebuild the index from sources")
	}
	if result != "ok" {
		return kdexerr.New(kdexerr.StoreCorrupt, "database failed integrity check: "+result).
			WithPath(path).WithSuggestion("rebuild the index from sources")
	}
	return nil
}

// withRetry retries fn with bounded exponential backoff when the error
// looks like a SQLite lock/busy condition, surfacing StoreBusy once the
// 30s ceiling is exceeded (spec.md §4.1 "Failure").
func withRetry(ctx context.Context, fn func() error) error {
	backoff := 50 * time.Millisecond
	deadline := time.Now().Add(maxBusyBackoff)
	for {
		err := fn()
		if err == nil || !isBusyErr(err) {
			return err
		}
		if time.Now().After(deadline) {
			return kdexerr.Wrap(kdexerr.StoreBusy, "store locked after retrying", err)
		}
		select {
		case <-ctx.Done():
			return kdexerr.Wrap(kdexerr.Cancelled, "cancelled while waiting for store", ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > 2*time.Second {
			backoff = 2 * time.Second
		}
	}
}

func isBusyErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "locked") || strings.Contains(msg, "busy")
}

// UpsertRepository creates or updates a Repository row, returning its id.
// Distinct roots get distinct ids (spec.md §4.1 "upsert_repository").
func (s *Store) UpsertRepository(ctx context.Context, r *Repository) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var id int64
	err := withRetry(ctx, func() error {
		now := time.Now().UnixNano()
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO repositories (root_path, name, created_at, status, source_kind,
				origin_url, branch, shallow, clone_path, vault_kind)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(root_path) DO UPDATE SET
				name=excluded.name, status=excluded.status, source_kind=excluded.source_kind,
				origin_url=excluded.origin_url, branch=excluded.branch, shallow=excluded.shallow,
				clone_path=excluded.clone_path, vault_kind=excluded.vault_kind
		`, r.RootPath, r.Name, now, string(r.Status), string(r.SourceKind),
			r.OriginURL, r.Branch, boolToInt(r.Shallow), r.ClonePath, r.VaultKind)
		if err != nil {
			return err
		}
		// res.LastInsertId() is unreliable on the ON CONFLICT...DO UPDATE
		// path (every re-`add`/reindex of an existing root): no row is
		// inserted, so last_insert_rowid() is left at whatever the previous
		// statement on this connection touched, not this repository. Always
		// look the id up explicitly instead of trusting it.
		row := s.db.QueryRowContext(ctx, `SELECT id FROM repositories WHERE root_path = ?`, r.RootPath)
		return row.Scan(&id)
	})
	return id, err
}

// SetRepositoryStatus updates status (and last_error for StatusError), and
// last_indexed_at when transitioning to Ready (spec.md §4.6 step 6).
func (s *Store) SetRepositoryStatus(ctx context.Context, repoID int64, status RepoStatus, lastErr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return withRetry(ctx, func() error {
		if status == StatusReady {
			_, err := s.db.ExecContext(ctx,
				`UPDATE repositories SET status=?, last_error='', last_indexed_at=? WHERE id=?`,
				string(status), time.Now().UnixNano(), repoID)
			return err
		}
		_, err := s.db.ExecContext(ctx,
			`UPDATE repositories SET status=?, last_error=? WHERE id=?`,
			string(status), lastErr, repoID)
		return err
	})
}

// UpdateRepositoryCounts refreshes file_count/total_bytes after an
// indexing run.
func (s *Store) UpdateRepositoryCounts(ctx context.Context, repoID int64, fileCount int, totalBytes int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`UPDATE repositories SET file_count=?, total_bytes=? WHERE id=?`,
			fileCount, totalBytes, repoID)
		return err
	})
}

// GetRepository looks up a repository by root path.
func (s *Store) GetRepository(ctx context.Context, rootPath string) (*Repository, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, root_path, name, created_at, last_indexed_at, file_count, total_bytes,
			status, source_kind, origin_url, branch, shallow, clone_path, vault_kind, last_error
		FROM repositories WHERE root_path = ?`, rootPath)
	r, err := scanRepository(row)
	if err == sql.ErrNoRows {
		return nil, kdexerr.New(kdexerr.RepoNotFound, "no repository at "+rootPath).
			WithSuggestion("run `kdex add " + rootPath + "` first")
	}
	return r, err
}

// GetRepositoryByID looks up a repository by id.
func (s *Store) GetRepositoryByID(ctx context.Context, id int64) (*Repository, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx, `
		SELECT id, root_path, name, created_at, last_indexed_at, file_count, total_bytes,
			status, source_kind, origin_url, branch, shallow, clone_path, vault_kind, last_error
		FROM repositories WHERE id = ?`, id)
	r, err := scanRepository(row)
	if err == sql.ErrNoRows {
		return nil, kdexerr.New(kdexerr.RepoNotFound, fmt.Sprintf("no repository with id %d", id))
	}
	return r, err
}

// ListRepositories returns every repository row.
func (s *Store) ListRepositories(ctx context.Context) ([]*Repository, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, root_path, name, created_at, last_indexed_at, file_count, total_bytes,
			status, source_kind, origin_url, branch, shallow, clone_path, vault_kind, last_error
		FROM repositories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Repository
	for rows.Next() {
		r, err := scanRepository(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RemoveRepository deletes a repository and every file/content/embedding/
// tag/link row that belonged to it (spec.md §8 invariant 3), plus its HNSW
// vectors. Cascading ON DELETE handles files/tags/links/embeddings/
// markdown_meta; contents is an FTS5 virtual table and is deleted
// explicitly since SQLite foreign-key cascades cannot target one.
func (s *Store) RemoveRepository(ctx context.Context, repoID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.chunkIDsForRepoLocked(ctx, repoID)
	if err != nil {
		return err
	}
	return withRetry(ctx, func() error {
		// contents is an FTS5 virtual table: ON DELETE CASCADE from
		// repositories->files cannot reach it, so its rows must be deleted
		// explicitly before the repository disappears, or they become
		// permanent orphans (spec.md §8 invariant 1 and invariant 3).
		if _, err := s.db.ExecContext(ctx, `
			DELETE FROM contents WHERE file_id IN (SELECT id FROM files WHERE repo_id = ?)`, repoID); err != nil {
			return err
		}
		if _, err := s.db.ExecContext(ctx, `DELETE FROM repositories WHERE id = ?`, repoID); err != nil {
			return err
		}
		if s.vector != nil {
			_ = s.vector.Remove(stringifyIDs(ids))
		}
		return nil
	})
}

func (s *Store) chunkIDsForRepoLocked(ctx context.Context, repoID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id FROM embeddings e JOIN files f ON f.id = e.file_id WHERE f.repo_id = ?`, repoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRepository(row rowScanner) (*Repository, error) {
	var r Repository
	var createdAt int64
	var lastIndexedAt sql.NullInt64
	var shallow int
	if err := row.Scan(&r.ID, &r.RootPath, &r.Name, &createdAt, &lastIndexedAt, &r.FileCount,
		&r.TotalBytes, &r.Status, &r.SourceKind, &r.OriginURL, &r.Branch, &shallow,
		&r.ClonePath, &r.VaultKind, &r.LastError); err != nil {
		return nil, err
	}
	r.CreatedAt = time.Unix(0, createdAt)
	if lastIndexedAt.Valid {
		t := time.Unix(0, lastIndexedAt.Int64)
		r.LastIndexedAt = &t
	}
	r.Shallow = shallow != 0
	return &r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func stringifyIDs(ids []int64) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = fmt.Sprintf("%d", id)
	}
	return out
}
