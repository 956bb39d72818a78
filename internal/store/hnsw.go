package store

import (
	"bufio"
	"context"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/coder/hnsw"

	"github.com/kdex-dev/kdex/internal/kdexerr"
)

// VectorStoreConfig tunes the HNSW graph. Grounded on the teacher's
// internal/store/hnsw.go defaults.
type VectorStoreConfig struct {
	Dimensions int
	M          int
	EfSearch   int
}

// HNSWStore implements the dense-vector half of the Store using
// coder/hnsw, a pure-Go HNSW implementation (spec.md §4.1 "vector_search").
// Keys are chunk ids (string-encoded int64) mapped to hnsw's internal
// uint64 keys. Adapted from the teacher's internal/store/hnsw.go.
type HNSWStore struct {
	mu    sync.RWMutex
	graph *hnsw.Graph[uint64]
	cfg   VectorStoreConfig
	path  string

	idToKey map[string]uint64
	keyToID map[uint64]string
	nextKey uint64
}

type hnswSnapshot struct {
	IDToKey map[string]uint64
	NextKey uint64
	Cfg     VectorStoreConfig
}

// OpenHNSWStore creates (or restores from path, if it exists) an HNSW
// vector store. path == "" creates an in-memory store.
func OpenHNSWStore(path string, cfg VectorStoreConfig) (*HNSWStore, error) {
	if cfg.Dimensions == 0 {
		cfg.Dimensions = 384
	}
	if cfg.M == 0 {
		cfg.M = 16
	}
	if cfg.EfSearch == 0 {
		cfg.EfSearch = 20
	}

	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = cfg.M
	graph.EfSearch = cfg.EfSearch
	graph.Ml = 0.25

	s := &HNSWStore{
		graph:   graph,
		cfg:     cfg,
		path:    path,
		idToKey: make(map[string]uint64),
		keyToID: make(map[uint64]string),
	}

	if path != "" {
		if err := s.restore(); err != nil && !os.IsNotExist(err) {
			return nil, kdexerr.Wrap(kdexerr.StoreCorrupt, "restore vector index", err).WithPath(path)
		}
	}
	return s, nil
}

// Add inserts or replaces vectors keyed by id.
func (s *HNSWStore) Add(ctx context.Context, ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids/vectors length mismatch: %d vs %d", len(ids), len(vectors))
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, id := range ids {
		if old, ok := s.idToKey[id]; ok {
			s.graph.Delete(old)
			delete(s.keyToID, old)
		}
		key := s.nextKey
		s.nextKey++
		s.idToKey[id] = key
		s.keyToID[key] = id
		s.graph.Add(hnsw.MakeNode(key, vectors[i]))
	}
	return nil
}

// Remove deletes vectors by id.
func (s *HNSWStore) Remove(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if key, ok := s.idToKey[id]; ok {
			s.graph.Delete(key)
			delete(s.idToKey, id)
			delete(s.keyToID, key)
		}
	}
	return nil
}

// Search returns the k nearest chunk ids to query by cosine similarity,
// descending (spec.md §4.1 "vector_search").
func (s *HNSWStore) Search(ctx context.Context, query []float32, k int) ([]VectorHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	neighbors := s.graph.Search(query, k)
	out := make([]VectorHit, 0, len(neighbors))
	for _, n := range neighbors {
		id, ok := s.keyToID[n.Key]
		if !ok {
			continue
		}
		score := cosineSimilarity(query, n.Value)
		chunkID, _ := strconv.ParseInt(id, 10, 64)
		out = append(out, VectorHit{ChunkID: chunkID, Score: score})
	}
	return out, nil
}

// Len returns the number of stored vectors.
func (s *HNSWStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.idToKey)
}

// Save persists the id mappings and vectors to path via gob, so a process
// restart does not need to re-embed the world.
func (s *HNSWStore) Save() error {
	if s.path == "" {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(s.path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := gob.NewEncoder(w)

	snap := hnswSnapshot{IDToKey: s.idToKey, NextKey: s.nextKey, Cfg: s.cfg}
	if err := enc.Encode(snap); err != nil {
		return err
	}

	vectors := make(map[uint64][]float32, len(s.keyToID))
	for key := range s.keyToID {
		if node, ok := s.graph.Lookup(key); ok {
			vectors[key] = node
		}
	}
	if err := enc.Encode(vectors); err != nil {
		return err
	}
	return w.Flush()
}

func (s *HNSWStore) restore() error {
	f, err := os.Open(s.path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := gob.NewDecoder(bufio.NewReader(f))
	var snap hnswSnapshot
	if err := dec.Decode(&snap); err != nil {
		return err
	}
	var vectors map[uint64][]float32
	if err := dec.Decode(&vectors); err != nil {
		return err
	}

	s.idToKey = snap.IDToKey
	s.nextKey = snap.NextKey
	s.keyToID = make(map[uint64]string, len(snap.IDToKey))
	for id, key := range snap.IDToKey {
		s.keyToID[key] = id
		if vec, ok := vectors[key]; ok {
			s.graph.Add(hnsw.MakeNode(key, vec))
		}
	}
	return nil
}

// cosineSimilarity computes cosine similarity between two equal-length
// vectors (spec.md §4.5 "Cosine similarity is computed in the caller
// (Store), not the embedder").
func cosineSimilarity(a, b []float32) float32 {
	var dot, na, nb float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
