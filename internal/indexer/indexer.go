// Package indexer implements the Indexer component (spec.md §4.6): the
// central walk -> filter -> read -> analyze -> embed -> batch-commit
// pipeline, with incremental re-use of prior (size, mtime, hash) stamps.
package indexer

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/kdex-dev/kdex/internal/config"
	"github.com/kdex-dev/kdex/internal/embedder"
	"github.com/kdex-dev/kdex/internal/kdexerr"
	"github.com/kdex-dev/kdex/internal/markdown"
	"github.com/kdex-dev/kdex/internal/reader"
	"github.com/kdex-dev/kdex/internal/scanner"
	"github.com/kdex-dev/kdex/internal/store"
)

// stampCacheSize bounds the incremental-scan LRU so huge repositories do
// not hold every prior file stamp in memory at once (spec.md §4.6).
const stampCacheSize = 200_000

// Classification is the 5-way incremental diff decision for one candidate
// path (spec.md §4.6 "Incremental mode").
type Classification int

const (
	ClassNew Classification = iota
	ClassUnchanged
	ClassSuspect
	ClassChanged
	ClassDeleted
)

// ProgressEvent is reported via the Options.OnProgress callback (spec.md
// §4.6 "Progress").
type ProgressEvent struct {
	Total       int
	Processed   int
	Skipped     int
	CurrentPath string
	Bytes       int64
	Elapsed     time.Duration
}

// Options configures one indexing run.
type Options struct {
	Force      bool
	Config     *config.Config
	OnProgress func(ProgressEvent)
}

// Result summarizes a completed run (spec.md §8 scenario 3: "unchanged=2,
// changed=0").
type Result struct {
	FileCount  int
	TotalBytes int64
	Unchanged  int
	Suspect    int
	Changed    int
	New        int
	Deleted    int
	Skipped    int
}

// Indexer drives one repository's indexing pipeline against a Store.
type Indexer struct {
	store *store.Store
	emb   *embedder.Embedder
}

// New builds an Indexer bound to st, embedding chunks with emb when the
// configuration enables semantic search (emb may be nil otherwise).
func New(st *store.Store, emb *embedder.Embedder) *Indexer {
	return &Indexer{store: st, emb: emb}
}

type fileRecord struct {
	candidate scanner.Candidate
	class     Classification
	lang      string
	typ       scanner.Type
	hash      string
	size      int64
	readErr   error

	normalized string
	analysis   *markdown.Analysis
	chunks     []embedder.Chunk
	vectors    [][]float32

	// touchMTime is set when a Suspect file resolved to Unchanged (same
	// hash, different mtime): the writer updates the stored mtime without
	// re-processing the file (spec.md §4.6 "update mtime only").
	touchMTime bool
}

// Index runs the full pipeline against root (spec.md §4.6 steps 1-6).
func (ix *Indexer) Index(ctx context.Context, root string, opts Options) (*Result, error) {
	start := time.Now()
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	repo := &store.Repository{
		RootPath:   root,
		Name:       path.Base(strings.TrimRight(root, "/")),
		SourceKind: store.SourceLocal,
		VaultKind:  string(scanner.DetectVaultKind(root)),
	}
	repoID, err := ix.store.UpsertRepository(ctx, repo)
	if err != nil {
		return nil, err
	}
	if err := ix.store.SetRepositoryStatus(ctx, repoID, store.StatusIndexing, ""); err != nil {
		return nil, err
	}

	result, runErr := ix.run(ctx, repoID, root, cfg, opts)
	if runErr != nil {
		_ = ix.store.SetRepositoryStatus(ctx, repoID, store.StatusError, runErr.Error())
		return result, runErr
	}

	if err := ix.store.UpdateRepositoryCounts(ctx, repoID, result.FileCount, result.TotalBytes); err != nil {
		return result, err
	}
	if err := ix.store.SetRepositoryStatus(ctx, repoID, store.StatusReady, ""); err != nil {
		return result, err
	}

	if opts.OnProgress != nil {
		opts.OnProgress(ProgressEvent{
			Total:     result.FileCount,
			Processed: result.FileCount,
			Skipped:   result.Skipped,
			Elapsed:   time.Since(start),
		})
	}
	return result, nil
}

// IndexPaths runs the incremental pipeline scoped to exactly the given
// repo-relative paths, instead of walking the whole tree (spec.md §4.8
// step 3: "hand the change set to Indexer as an incremental run scoped to
// that path set"). A path absent from disk is treated as a deletion. The
// repo must already exist (created by a prior full Index call).
func (ix *Indexer) IndexPaths(ctx context.Context, root string, relPaths []string, opts Options) (*Result, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	repo, err := ix.store.GetRepository(ctx, root)
	if err != nil {
		return nil, err
	}
	repoID := repo.ID

	matcher := scanner.NewIgnoreMatcher(root, cfg.IgnorePatterns)
	result := &Result{}

	var toDelete []string
	var live []scanner.Candidate
	for _, rel := range relPaths {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		if matcher.Match(abs) {
			continue
		}
		info, statErr := os.Stat(abs)
		if statErr != nil || info.IsDir() {
			toDelete = append(toDelete, rel)
			continue
		}
		live = append(live, scanner.Candidate{
			AbsPath: abs,
			RelPath: filepath.ToSlash(rel),
			Size:    info.Size(),
			ModTime: info.ModTime().UnixNano(),
		})
	}

	prior, err := ix.loadStamps(ctx, repoID)
	if err != nil {
		return nil, err
	}

	recordCh := make(chan fileRecord, len(live)+1)
	writerErrCh := make(chan error, 1)
	var writerWG sync.WaitGroup
	writerWG.Add(1)
	go func() {
		defer writerWG.Done()
		writerErrCh <- ix.writeLoop(ctx, repoID, recordCh, cfg.BatchSize)
	}()

	for _, cand := range live {
		class := classify(cand, prior.stamp(cand.RelPath), opts.Force)
		tally(result, class)
		rec := fileRecord{candidate: cand, class: class}

		if class == ClassUnchanged {
			recordCh <- rec
			continue
		}
		if class == ClassSuspect {
			if err := ix.hashOnly(cfg, cand, &rec); err != nil {
				result.Skipped++
				continue
			}
			if rec.hash == prior.stamp(cand.RelPath).Hash {
				rec.class = ClassUnchanged
				rec.touchMTime = true
				result.Suspect--
				result.Unchanged++
				recordCh <- rec
				continue
			}
			rec.class = ClassChanged
			result.Suspect--
			result.Changed++
		}

		if err := ix.process(cfg, &rec); err != nil {
			result.Skipped++
			continue
		}
		recordCh <- rec
	}
	close(recordCh)
	writerWG.Wait()
	if writeErr := <-writerErrCh; writeErr != nil {
		return result, writeErr
	}

	if len(toDelete) > 0 {
		b, err := ix.store.BeginBatch(ctx)
		if err != nil {
			return result, kdexerr.Wrap(kdexerr.Internal, "begin batch", err)
		}
		if err := b.DeleteFiles(repoID, toDelete); err != nil {
			b.Rollback()
			return result, kdexerr.Wrap(kdexerr.Internal, "delete removed files", err)
		}
		if err := b.Commit(); err != nil {
			return result, err
		}
		result.Deleted = len(toDelete)
	}

	result.FileCount = len(live)
	for _, c := range live {
		result.TotalBytes += c.Size
	}
	return result, nil
}

func (ix *Indexer) run(ctx context.Context, repoID int64, root string, cfg *config.Config, opts Options) (*Result, error) {
	start := time.Now()

	matcher := scanner.NewIgnoreMatcher(root, cfg.IgnorePatterns)
	candidates, err := scanner.Walk(root, matcher)
	if err != nil {
		return nil, kdexerr.Wrap(kdexerr.Internal, "walk repository", err).WithPath(root)
	}

	prior, err := ix.loadStamps(ctx, repoID)
	if err != nil {
		return nil, err
	}

	var files []scanner.Candidate
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if c.IsDir {
			continue
		}
		files = append(files, c)
		seen[c.RelPath] = true
	}

	result := &Result{}
	var resultMu sync.Mutex
	var processed int

	recordCh := make(chan fileRecord, cfg.BatchSize)
	writerErrCh := make(chan error, 1)

	var writerWG sync.WaitGroup
	writerWG.Add(1)
	go func() {
		defer writerWG.Done()
		writerErrCh <- ix.writeLoop(ctx, repoID, recordCh, cfg.BatchSize)
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for _, cand := range files {
		cand := cand
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			class := classify(cand, prior.stamp(cand.RelPath), opts.Force)

			resultMu.Lock()
			processed++
			tally(result, class)
			if opts.OnProgress != nil {
				opts.OnProgress(ProgressEvent{
					Total:       len(files),
					Processed:   processed,
					Skipped:     result.Skipped,
					CurrentPath: cand.RelPath,
					Bytes:       cand.Size,
					Elapsed:     time.Since(start),
				})
			}
			resultMu.Unlock()

			rec := fileRecord{candidate: cand, class: class}

			switch class {
			case ClassUnchanged:
				recordCh <- rec
				return nil
			case ClassSuspect:
				if err := ix.hashOnly(cfg, cand, &rec); err != nil {
					resultMu.Lock()
					result.Skipped++
					resultMu.Unlock()
					return nil
				}
				if rec.hash == prior.stamp(cand.RelPath).Hash {
					rec.class = ClassUnchanged
					rec.touchMTime = true
					resultMu.Lock()
					result.Suspect--
					result.Unchanged++
					resultMu.Unlock()
					recordCh <- rec
					return nil
				}
				rec.class = ClassChanged
				resultMu.Lock()
				result.Suspect--
				result.Changed++
				resultMu.Unlock()
			}

			if err := ix.process(cfg, &rec); err != nil {
				resultMu.Lock()
				result.Skipped++
				resultMu.Unlock()
				return nil // per-file errors are skipped, not fatal (spec.md §4.6 "Failure semantics")
			}
			recordCh <- rec
			return nil
		})
	}

	walkErr := g.Wait()
	close(recordCh)
	writerWG.Wait()
	if writeErr := <-writerErrCh; writeErr != nil {
		return result, writeErr
	}
	if walkErr != nil {
		return result, kdexerr.Wrap(kdexerr.Cancelled, "indexing cancelled", walkErr)
	}

	deleted, err := ix.deletions(ctx, repoID, prior, seen)
	if err != nil {
		return result, err
	}
	result.Deleted = deleted

	result.FileCount = len(files)
	for _, c := range files {
		result.TotalBytes += c.Size
	}
	return result, nil
}

func tally(r *Result, c Classification) {
	switch c {
	case ClassUnchanged:
		r.Unchanged++
	case ClassSuspect:
		r.Suspect++
	case ClassChanged:
		r.Changed++
	case ClassNew:
		r.New++
	}
}

// classify implements spec.md §4.6's 5-way decision for one candidate
// against its prior stamp (zero value if absent).
func classify(c scanner.Candidate, prior store.FileStamp, force bool) Classification {
	if force {
		if prior.RelPath == "" {
			return ClassNew
		}
		return ClassChanged
	}
	if prior.RelPath == "" {
		return ClassNew
	}
	if c.Size == prior.Size && c.ModTime == prior.MTime.UnixNano() {
		return ClassUnchanged
	}
	if c.Size == prior.Size {
		return ClassSuspect
	}
	return ClassChanged
}

type stampCache struct {
	lru *lru.Cache[string, store.FileStamp]
}

func (s *stampCache) stamp(relPath string) store.FileStamp {
	if s == nil || s.lru == nil {
		return store.FileStamp{}
	}
	v, _ := s.lru.Get(relPath)
	return v
}

func (ix *Indexer) loadStamps(ctx context.Context, repoID int64) (*stampCache, error) {
	stamps, err := ix.store.GetFilePaths(ctx, repoID)
	if err != nil {
		return nil, err
	}
	cache, err := lru.New[string, store.FileStamp](stampCacheSize)
	if err != nil {
		return nil, kdexerr.Wrap(kdexerr.Internal, "create incremental-scan cache", err)
	}
	for _, s := range stamps {
		cache.Add(s.RelPath, s)
	}
	return &stampCache{lru: cache}, nil
}

// hashOnly reads and hashes a suspect file without running the full
// analyze/embed pipeline, so an mtime-only touch costs one read instead of
// a full re-process (spec.md §4.6 "Suspect").
func (ix *Indexer) hashOnly(cfg *config.Config, c scanner.Candidate, rec *fileRecord) error {
	res, err := reader.Read(c.AbsPath, cfg.MaxFileSizeMB)
	if err != nil {
		return err
	}
	rec.hash = res.Hash
	rec.size = res.Size
	rec.normalized = res.Text
	return nil
}

// process runs read -> classify (type/lang) -> analyze -> embed for a
// new/changed file (spec.md §4.2-§4.5).
func (ix *Indexer) process(cfg *config.Config, rec *fileRecord) error {
	c := rec.candidate
	typ, lang, reject := scanner.Classify(c.AbsPath, c.Size, cfg.MaxFileSizeMB, nil)
	if reject != "" {
		kind := kdexerr.DecodeFailed
		if reject == scanner.RejectTooLarge {
			kind = kdexerr.FileTooLarge
		}
		return kdexerr.New(kind, "rejected: "+string(reject)).WithPath(c.AbsPath)
	}
	rec.typ = typ
	rec.lang = lang

	if rec.normalized == "" {
		res, err := reader.Read(c.AbsPath, cfg.MaxFileSizeMB)
		if err != nil {
			return err
		}
		rec.hash = res.Hash
		rec.size = res.Size
		rec.normalized = res.Text
	}

	if typ == scanner.TypeMarkdown {
		rec.analysis = markdown.Analyze(rec.normalized, cfg.StripMarkdownSyntax, cfg.IndexCodeBlocks)
	}

	text := rec.normalized
	if rec.analysis != nil && cfg.StripMarkdownSyntax {
		text = rec.analysis.Stripped
	}
	chunks := embedder.Split(text)
	rec.chunks = chunks

	if cfg.EnableSemanticSearch && ix.emb != nil && len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, ch := range chunks {
			texts[i] = ch.Text
		}
		vecs, err := ix.emb.EmbedBatch(context.Background(), texts)
		if err != nil {
			return err
		}
		rec.vectors = vecs
	}
	return nil
}

// writeLoop is the single writer goroutine that owns the Store's batch
// transaction while workers run concurrently (spec.md §4.6 step 3: "writes
// are marshaled through a single writer owning the Store batch"),
// grounded on the teacher's internal/async pipeline shape.
func (ix *Indexer) writeLoop(ctx context.Context, repoID int64, recs <-chan fileRecord, batchSize int) error {
	var batch *store.Batch
	var pending int
	var err error

	commit := func() error {
		if batch == nil {
			return nil
		}
		e := batch.Commit()
		batch = nil
		pending = 0
		return e
	}

	for rec := range recs {
		if rec.class == ClassUnchanged && !rec.touchMTime {
			continue
		}
		if batch == nil {
			batch, err = ix.store.BeginBatch(ctx)
			if err != nil {
				// Store.BeginBatch already retries transient lock errors
				// internally (spec.md §4.6 "retried once, then fatally
				// surfaced"); a failure here is fatal.
				return kdexerr.Wrap(kdexerr.Internal, "begin batch", err)
			}
		}

		if rec.class == ClassUnchanged {
			// Suspect resolved to unchanged: only the stamp needs updating,
			// not the content/markdown/chunk rows (spec.md §4.6 "Suspect").
			if werr := batch.TouchMTime(repoID, rec.candidate.RelPath, rec.candidate.ModTime); werr != nil {
				batch.Rollback()
				batch = nil
				return kdexerr.Wrap(kdexerr.Internal, "touch mtime", werr)
			}
			pending++
			if pending >= batchSize {
				if cerr := commit(); cerr != nil {
					return cerr
				}
			}
			continue
		}

		f := &store.File{
			RepoID:   repoID,
			RelPath:  rec.candidate.RelPath,
			Hash:     rec.hash,
			Size:     rec.size,
			MTime:    timeFromUnixNano(rec.candidate.ModTime),
			Language: rec.lang,
		}
		if werr := batch.UpsertFile(f, rec.normalized); werr != nil {
			batch.Rollback()
			batch = nil
			return kdexerr.Wrap(kdexerr.Internal, "upsert file", werr)
		}

		if rec.analysis != nil {
			if werr := batch.UpsertMarkdownMeta(f.ID, rec.analysis.Title, rec.analysis.Tags, rec.analysis.WikiLinks, rec.analysis.Headings); werr != nil {
				batch.Rollback()
				batch = nil
				return kdexerr.Wrap(kdexerr.Internal, "upsert markdown meta", werr)
			}
		}

		writes := make([]store.ChunkWrite, len(rec.chunks))
		for i, ch := range rec.chunks {
			var vec []float32
			if i < len(rec.vectors) {
				vec = rec.vectors[i]
			}
			writes[i] = store.ChunkWrite{Ordinal: ch.Ordinal, Start: ch.Start, End: ch.End, Text: ch.Text, Vector: vec}
		}
		if werr := batch.StoreChunks(f.ID, writes); werr != nil {
			batch.Rollback()
			batch = nil
			return kdexerr.Wrap(kdexerr.Internal, "store chunks", werr)
		}

		pending++
		if pending >= batchSize {
			if cerr := commit(); cerr != nil {
				return cerr
			}
		}
	}
	return commit()
}

func (ix *Indexer) deletions(ctx context.Context, repoID int64, prior *stampCache, seen map[string]bool) (int, error) {
	if prior == nil || prior.lru == nil {
		return 0, nil
	}
	var toDelete []string
	for _, key := range prior.lru.Keys() {
		if !seen[key] {
			toDelete = append(toDelete, key)
		}
	}
	if len(toDelete) == 0 {
		return 0, nil
	}

	b, err := ix.store.BeginBatch(ctx)
	if err != nil {
		return 0, err
	}
	if err := b.DeleteFiles(repoID, toDelete); err != nil {
		b.Rollback()
		return 0, kdexerr.Wrap(kdexerr.Internal, "delete removed files", err)
	}
	if err := b.Commit(); err != nil {
		return 0, err
	}
	return len(toDelete), nil
}

func timeFromUnixNano(n int64) time.Time {
	return time.Unix(0, n)
}
